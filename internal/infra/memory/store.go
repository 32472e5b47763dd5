package memory

import (
	"context"
	"sync"
	"time"

	"fullscreen-quiz-service/internal/domain"
)

// Store is an in-memory implementation of app.Store. Entries optionally expire after ttl.
type Store struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.RWMutex
	entries map[string]entry
}

type entry struct {
	value     []byte
	expiresAt time.Time
}

func NewStore(ttl time.Duration) *Store {
	return NewStoreWithClock(ttl, time.Now)
}

// NewStoreWithClock allows deterministic expiry in tests.
func NewStoreWithClock(ttl time.Duration, clock func() time.Time) *Store {
	return &Store{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry),
	}
}

func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	if !e.expiresAt.IsZero() && !e.expiresAt.After(s.clock()) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return nil, domain.ErrRecordNotFound
	}
	return append([]byte(nil), e.value...), nil
}

func (s *Store) Save(_ context.Context, key string, value []byte) error {
	e := entry{value: append([]byte(nil), value...)}
	if s.ttl > 0 {
		e.expiresAt = s.clock().Add(s.ttl)
	}
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}
