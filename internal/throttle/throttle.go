// Package throttle coalesces a high-frequency stream of values into at most
// one apply per interval. The last value of a burst is always flushed on the
// trailing edge, so a consumer never sticks slightly behind the final input.
package throttle

import (
	"sync"
	"time"
)

// Throttler rate-limits applications of values of type T. Offer may be
// called from any goroutine; apply is invoked without the internal lock
// held.
type Throttler[T any] struct {
	interval time.Duration
	apply    func(T)

	mu      sync.Mutex
	last    time.Time
	pending *T
	timer   *time.Timer
	stopped bool
}

// New creates a Throttler that calls apply at most once per interval.
func New[T any](interval time.Duration, apply func(T)) *Throttler[T] {
	return &Throttler[T]{interval: interval, apply: apply}
}

// Offer submits a value. Values arriving inside the interval replace each
// other; the survivor is applied when the interval elapses.
func (t *Throttler[T]) Offer(v T) {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	now := time.Now()
	if t.timer == nil && now.Sub(t.last) >= t.interval {
		// Leading edge: apply immediately.
		t.last = now
		t.mu.Unlock()
		t.apply(v)
		return
	}
	t.pending = &v
	if t.timer == nil {
		delay := t.interval - now.Sub(t.last)
		if delay < 0 {
			delay = 0
		}
		t.timer = time.AfterFunc(delay, t.fire)
	}
	t.mu.Unlock()
}

func (t *Throttler[T]) fire() {
	t.mu.Lock()
	v := t.pending
	t.pending = nil
	t.timer = nil
	t.last = time.Now()
	stopped := t.stopped
	t.mu.Unlock()
	if v != nil && !stopped {
		t.apply(*v)
	}
}

// Flush applies any pending value immediately and cancels the trailing
// timer.
func (t *Throttler[T]) Flush() {
	t.mu.Lock()
	v := t.pending
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.last = time.Now()
	stopped := t.stopped
	t.mu.Unlock()
	if v != nil && !stopped {
		t.apply(*v)
	}
}

// Stop cancels any pending apply and rejects further offers.
func (t *Throttler[T]) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.pending = nil
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()
}
