// Package snapshot holds the read-only view of already-scheduled events.
// The current view is swapped atomically; readers never block writers.
// Concurrent refreshes follow a last-request-wins rule keyed by a monotonic
// sequence number, so a slow fetch resolving out of order is discarded.
package snapshot

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mvallejoc/eventum/internal/event"
	"github.com/mvallejoc/eventum/internal/metrics"
)

// Fetcher loads the full event list from the event repository.
type Fetcher interface {
	FetchEvents(ctx context.Context) ([]event.Event, error)
}

type state struct {
	events   []event.Event
	seq      uint64
	loadedAt time.Time
}

// Store is the swap point for the events snapshot. The zero-value-adjacent
// NewStore starts in the "unknown" state: no snapshot has ever loaded, and
// conflict checks against it must not be read as "no conflicts".
type Store struct {
	cur atomic.Pointer[state]
	seq atomic.Uint64
}

// NewStore creates an empty, not-yet-loaded store.
func NewStore() *Store {
	return &Store{}
}

// Events returns the current snapshot and whether one has ever loaded.
func (s *Store) Events() ([]event.Event, bool) {
	st := s.cur.Load()
	if st == nil {
		return nil, false
	}
	return st.events, true
}

// LoadedAt returns when the current snapshot was installed.
func (s *Store) LoadedAt() (time.Time, bool) {
	st := s.cur.Load()
	if st == nil {
		return time.Time{}, false
	}
	return st.loadedAt, true
}

// Refresh fetches a fresh event list and installs it unless a newer refresh
// already landed.
func (s *Store) Refresh(ctx context.Context, f Fetcher) error {
	seq := s.seq.Add(1)
	events, err := f.FetchEvents(ctx)
	if err != nil {
		metrics.SnapshotRefreshes.WithLabelValues("error").Inc()
		return err
	}
	if s.install(seq, events) {
		metrics.SnapshotRefreshes.WithLabelValues("ok").Inc()
		metrics.SnapshotEvents.Set(float64(len(events)))
	} else {
		metrics.SnapshotRefreshes.WithLabelValues("stale").Inc()
	}
	return nil
}

// install swaps in the new state only if seq is newer than the current one.
func (s *Store) install(seq uint64, events []event.Event) bool {
	next := &state{events: events, seq: seq, loadedAt: time.Now()}
	for {
		cur := s.cur.Load()
		if cur != nil && cur.seq >= seq {
			return false
		}
		if s.cur.CompareAndSwap(cur, next) {
			return true
		}
	}
}

// StartCron schedules periodic refreshes with the given cron spec (e.g.
// "@every 5m"). The returned stop function halts the schedule; a refresh
// already in flight is allowed to finish.
func (s *Store) StartCron(spec string, f Fetcher, timeout time.Duration) (stop func(), err error) {
	c := cron.New()
	_, err = c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Refresh(ctx, f); err != nil {
			slog.Warn("scheduled snapshot refresh failed", "err", err)
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return func() { c.Stop() }, nil
}
