// internal/store/memory.go
//
// In-memory implementation of the session Store interface.
// Games live only as long as the process.
//
// Characteristics:
//   - Stores *session.Session objects keyed by ID in a map.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - Idle sessions are evicted by Sweep (driven by Janitor) and closed.
//   - ErrNotFound is returned for missing IDs.

package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory/apps/go-server/internal/session"
)

// ErrNotFound is returned when no session has the requested ID.
var ErrNotFound = errors.New("not found")

// Store defines the registry interface for live game sessions.
type Store interface {
	// Save adds or replaces a session.
	Save(ctx context.Context, s *session.Session) error

	// Get retrieves a session by ID.
	Get(ctx context.Context, id string) (*session.Session, error)

	// Delete removes and closes a session.
	Delete(ctx context.Context, id string) error

	// Sweep closes and removes sessions idle since before cutoff; returns how many.
	Sweep(ctx context.Context, cutoff time.Time) int
}

// memory is an in-memory map-based Store implementation.
type memory struct {
	mu       sync.RWMutex                // guards sessions map
	sessions map[string]*session.Session // keyed by Session.ID
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*session.Session)}
}

func (m *memory) Save(ctx context.Context, s *session.Session) error {
	m.mu.Lock()
	old, replaced := m.sessions[s.ID]
	m.sessions[s.ID] = s
	m.mu.Unlock()
	if replaced && old != s {
		old.Close()
	}
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	s.Close()
	return nil
}

func (m *memory) Sweep(ctx context.Context, cutoff time.Time) int {
	var stale []*session.Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

// Janitor sweeps st every interval, evicting sessions idle for longer than ttl,
// until ctx is done.
func Janitor(ctx context.Context, st Store, every, ttl time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			if n := st.Sweep(ctx, now.Add(-ttl)); n > 0 {
				log.Info().Int("evicted", n).Dur("ttl", ttl).Msg("idle sessions swept")
			}
		}
	}
}
