package saver

import (
	"sync/atomic"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/hanscribe/hanscribe/server/session"
)

// DebounceInterval is how long the session must stay quiet after a
// mutation before the watcher fires a save. A fresh mutation during the
// quiet window restarts the window, so a long editing burst produces one
// save at the end, not one per keystroke.
const DebounceInterval = 2 * time.Second

// WatcherTickInterval is the watcher's polling granularity. It only
// bounds how stale the dirty check can be, so it just needs to be well
// under DebounceInterval.
const WatcherTickInterval = 250 * time.Millisecond

// SaveFunc persists the given snapshot. The watcher doesn't care how;
// Saver.Save wrapped by the server is the usual implementation.
type SaveFunc func(snap session.Snapshot) error

// Watcher polls the session's generation counter and calls save once the
// session has been dirty and quiet for DebounceInterval. The snapshot is
// taken when the save fires, not when the mutation happened, so the save
// always reflects the latest state.
type Watcher struct {
	log      logs.Log
	sess     *session.Session
	save     SaveFunc
	debounce time.Duration
	tick     time.Duration

	shutdown chan struct{}
	done     chan struct{}
	saving   atomic.Bool
}

func NewWatcher(logger logs.Log, sess *session.Session, save SaveFunc) *Watcher {
	return &Watcher{
		log:      logger,
		sess:     sess,
		save:     save,
		debounce: DebounceInterval,
		tick:     WatcherTickInterval,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Run starts the watcher loop. Call Close to stop it; Close flushes a
// pending save before returning.
func (w *Watcher) Run() {
	go w.loop()
}

// Saving reports whether a save is in flight right now.
func (w *Watcher) Saving() bool {
	return w.saving.Load()
}

func (w *Watcher) Close() {
	close(w.shutdown)
	<-w.done
}

func (w *Watcher) loop() {
	defer close(w.done)

	savedGen := w.sess.Generation()
	lastGen := savedGen
	lastChange := time.Now()

	for {
		t := time.NewTimer(w.tick)
		shutdown := false
		select {
		case <-w.shutdown:
			shutdown = true
		case <-t.C:
		}
		t.Stop()

		gen := w.sess.Generation()
		if gen != lastGen {
			lastGen = gen
			lastChange = time.Now()
		}

		dirty := lastGen != savedGen
		quiet := time.Since(lastChange) >= w.debounce
		if dirty && (quiet || shutdown) {
			// Re-read the generation before saving. A mutation racing the
			// snapshot leaves the session dirty for the next pass, never
			// unsaved.
			savedGen = w.sess.Generation()
			lastGen = savedGen
			w.saving.Store(true)
			err := w.save(w.sess.Snapshot())
			w.saving.Store(false)
			if err != nil {
				w.log.Errorf("Auto-save failed: %v", err)
				// Mark dirty again, with a fresh quiet window so we don't
				// hammer a failing backend on every tick.
				savedGen--
				lastChange = time.Now()
			}
		}

		if shutdown {
			break
		}
	}
}
