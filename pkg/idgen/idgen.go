// Package idgen generates small monotonic IDs.
// We use these as stable per-session shape tokens: identity inside a
// session is positional, but the token survives reindexing.
package idgen

import "sync/atomic"

// Uint32 returns values 1,2,3... up to 2^32-1, then wraps around to 1.
// Zero is never generated, so callers can use 0 as "no token".
type Uint32 struct {
	next atomic.Uint32
}

func (u *Uint32) Next() uint32 {
	n := u.next.Add(1)
	if n == 0 {
		n = u.next.Add(1)
	}
	return n
}

// Peek returns the last value handed out (0 if none yet).
func (u *Uint32) Peek() uint32 {
	return u.next.Load()
}
