// Package schedule provides the repeating and one-shot task handles that drive
// every timer-based behaviour of the site: carousel ticks, navigation retries,
// the smooth-scroll frame loop and its deferred start.
//
// Callbacks registered on the real clock run on their own goroutine, so state
// touched by a callback must be guarded by the owner. The Manual clock fires
// callbacks synchronously from Advance, which keeps tests deterministic.
package schedule

import (
	"sync"
	"time"
)

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	// Every runs fn every d until the returned handle is stopped.
	Every(d time.Duration, fn func()) Handle
	// After runs fn once after d unless the handle is stopped first.
	After(d time.Duration, fn func()) Handle
}

// Handle controls a scheduled task.
type Handle interface {
	// Stop cancels the task. It is idempotent and may be called from inside
	// the task's own callback. It reports whether this call stopped the task.
	Stop() bool
}

// Real returns a Clock backed by the runtime timers.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Every(d time.Duration, fn func()) Handle {
	t := &repeatingTask{
		ticker: time.NewTicker(d),
		done:   make(chan struct{}),
	}
	go t.run(fn)
	return t
}

func (realClock) After(d time.Duration, fn func()) Handle {
	return &oneShotTask{timer: time.AfterFunc(d, fn)}
}

type repeatingTask struct {
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

func (t *repeatingTask) run(fn func()) {
	defer t.ticker.Stop()

	for {
		select {
		case <-t.done:
			return
		case <-t.ticker.C:
			// A tick may race with Stop; prefer the stop.
			select {
			case <-t.done:
				return
			default:
			}
			fn()
		}
	}
}

func (t *repeatingTask) Stop() bool {
	stopped := false
	t.once.Do(func() {
		close(t.done)
		stopped = true
	})
	return stopped
}

type oneShotTask struct {
	timer *time.Timer
}

func (t *oneShotTask) Stop() bool {
	return t.timer.Stop()
}

// Stop stops h when it is non-nil. It exists so owners can clear optional
// handles on every exit path without nil checks.
func Stop(h Handle) {
	if h != nil {
		h.Stop()
	}
}
