// internal/store/memory.go
//
// In-memory session store used by the orchestrator.
//
// Characteristics:
//   - Stores *game.Session values keyed by session ID.
//   - Concurrency-safe via a mutex.
//   - Optional TTL: sessions idle for longer are dropped, swept lazily on Save.
//   - State is lost when the process restarts; finished games are kept in the
//     history database by the web adapter, not here.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/robalobadob/gamezone/internal/game"
)

// ErrNotFound is returned by Get for unknown session IDs.
var ErrNotFound = errors.New("session not found")

// Store defines the persistence interface for live sessions.
type Store interface {
	// Save persists or updates a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Delete discards a session. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// Len reports how many sessions are live.
	Len(ctx context.Context) int
}

// Option configures the memory store.
type Option func(*memory)

// WithTTL expires sessions that have not been saved or read for d.
// Expired sessions behave as deleted; a non-positive d keeps them forever.
func WithTTL(d time.Duration) Option {
	return func(m *memory) {
		if d > 0 {
			m.ttl = d
		}
	}
}

type entry struct {
	session *game.Session
	touched time.Time
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	swept    time.Time
	now      func() time.Time
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore(opts ...Option) Store {
	m := &memory{sessions: make(map[string]*entry), now: time.Now}
	for _, o := range opts {
		o(m)
	}
	m.swept = m.now()
	return m
}

func (m *memory) expired(e *entry, now time.Time) bool {
	return m.ttl > 0 && now.Sub(e.touched) >= m.ttl
}

// Save stores s and, at most every ttl/2, drops expired sessions so
// abandoned games do not accumulate.
func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.sessions[s.ID] = &entry{session: s, touched: now}
	if m.ttl > 0 && now.Sub(m.swept) >= m.ttl/2 {
		for id, e := range m.sessions {
			if m.expired(e, now) {
				delete(m.sessions, id)
			}
		}
		m.swept = now
	}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := m.now()
	if m.expired(e, now) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	e.touched = now
	return e.session, nil
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len counts live sessions; expired ones awaiting a sweep are excluded.
func (m *memory) Len(ctx context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	n := 0
	for _, e := range m.sessions {
		if !m.expired(e, now) {
			n++
		}
	}
	return n
}
