package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"time"

	appErrors "github.com/noah-isme/credit-tracker-api/pkg/errors"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process key -> (value, expiry) store. Values are kept as
// JSON so callers get copies, matching the Redis-backed repository.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]entry), now: time.Now}
}

// WithClock overrides the time source. Used by tests to step past TTLs.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.now = now
	return s
}

// Get decodes the value stored under key into dest or returns ErrCacheMiss.
func (s *MemoryStore) Get(_ context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(e.value, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value under key for ttl.
func (s *MemoryStore) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	s.mu.Lock()
	s.entries[key] = entry{value: payload, expiresAt: s.now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

// DeleteByPattern removes keys matching a glob pattern (Redis SCAN MATCH syntax subset).
func (s *MemoryStore) DeleteByPattern(_ context.Context, pattern string) error {
	if _, err := path.Match(pattern, ""); err != nil {
		return fmt.Errorf("invalid cache pattern %s: %w", pattern, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.entries, key)
		}
	}
	return nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for _, e := range s.entries {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n
}
