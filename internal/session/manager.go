package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvallejoc/eventum/internal/draftstore"
	"github.com/mvallejoc/eventum/internal/form"
	"github.com/mvallejoc/eventum/internal/metrics"
)

// Manager owns the live sessions and their draft persistence.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	drafts        *draftstore.Store // nil disables persistence
	throttleEvery time.Duration
}

// NewManager creates a Manager. drafts may be nil to run memory-only.
func NewManager(drafts *draftstore.Store, throttleEvery time.Duration) *Manager {
	if throttleEvery <= 0 {
		throttleEvery = 50 * time.Millisecond
	}
	return &Manager{
		sessions:      make(map[string]*Session),
		drafts:        drafts,
		throttleEvery: throttleEvery,
	}
}

func (m *Manager) persistFn() func(string, *form.Draft) {
	if m.drafts == nil {
		return nil
	}
	return func(id string, d *form.Draft) {
		if err := m.drafts.Save(id, d); err != nil {
			slog.Warn("draft persist failed", "session", id, "err", err)
		}
	}
}

// Create opens a new empty form session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), form.NewDraft(), m.throttleEvery, m.persistFn())
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	metrics.FormSessions.Inc()
	return s
}

// Get returns a session by ID.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete closes and removes a session together with its persisted draft.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return
	}
	s.Close()
	metrics.FormSessions.Dec()
	if m.drafts != nil {
		if err := m.drafts.Delete(id); err != nil {
			slog.Warn("draft delete failed", "session", id, "err", err)
		}
	}
}

// Restore reopens sessions for every persisted draft, typically at startup.
// The wizard restarts at the first step; the user's rows and fields are all
// back. Returns the number of restored sessions.
func (m *Manager) Restore() int {
	if m.drafts == nil {
		return 0
	}
	restored := 0
	for _, id := range m.drafts.Keys() {
		draft := form.NewDraft()
		if err := m.drafts.Load(id, draft); err != nil {
			slog.Warn("draft restore failed", "session", id, "err", err)
			continue
		}
		s := newSession(id, draft, m.throttleEvery, m.persistFn())
		m.mu.Lock()
		m.sessions[id] = s
		m.mu.Unlock()
		metrics.FormSessions.Inc()
		restored++
	}
	return restored
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
