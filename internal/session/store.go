package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/david/licitaciones-radar/internal/ingest"
)

// Store maps session ids to sessions. Sessions idle for longer than the
// configured duration are removed by Run.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	now      func() time.Time

	backend Backend
	norm    *ingest.Normalizer
}

func NewStore(backend Backend, norm *ingest.Normalizer, idle time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	if norm == nil {
		norm = ingest.NewNormalizer(nil, time.UTC)
	}
	return &Store{
		sessions: make(map[string]*Session),
		idle:     idle,
		now:      now,
		backend:  backend,
		norm:     norm,
	}
}

func (st *Store) Create() *Session {
	s := New(uuid.NewString(), st.backend, st.norm)
	s.touch(st.now())

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

// Get returns the session and marks it as seen.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	st.mu.Unlock()
	if !ok {
		return nil, false
	}
	s.touch(st.now())
	return s, true
}

func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions idle since before now minus the idle duration and
// returns how many were removed.
func (st *Store) Sweep(now time.Time) int {
	cutoff := now.Add(-st.idle)

	st.mu.Lock()
	defer st.mu.Unlock()
	removed := 0
	for id, s := range st.sessions {
		if s.idleSince().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// Run sweeps periodically until ctx is done.
func (st *Store) Run(ctx context.Context) {
	interval := st.idle / 2
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(st.now()); n > 0 {
				log.Printf("[session] expired %d idle sessions, %d active", n, st.Len())
			}
		}
	}
}
