// Package rando generates random identifiers.
package rando

import (
	"crypto/rand"
	"fmt"
	"time"
)

const alphaNumChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// StrongRandomAlphaNumChars returns a crypto-random string of [A-Za-z0-9].
func StrongRandomAlphaNumChars(nchars int) string {
	buf := make([]byte, nchars)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i := 0; i < nchars; i++ {
		buf[i] = alphaNumChars[int(buf[i])%len(alphaNumChars)]
	}
	return string(buf)
}

// UniqueName prefixes name with a timestamp and a random token, so that
// repeated imports of the same filename don't collide, even within the
// same millisecond.
func UniqueName(name string) string {
	return fmt.Sprintf("%v_%v_%v", time.Now().UnixMilli(), StrongRandomAlphaNumChars(6), name)
}
