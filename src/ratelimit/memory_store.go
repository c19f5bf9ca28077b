package ratelimit

import (
	"context"
	"sync"
	"time"
)

const sweepInterval = time.Minute

type memoryEntry struct {
	count   int64
	expires time.Time
}

// MemoryStore keeps counters in process memory. Counters reset on restart
// and are not shared between instances.
type MemoryStore struct {
	mu        sync.Mutex
	entries   map[string]*memoryEntry
	now       func() time.Time
	lastSweep time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Increment(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if now.Sub(s.lastSweep) >= sweepInterval {
		s.sweep(now)
		s.lastSweep = now
	}

	e, ok := s.entries[key]
	if !ok || !now.Before(e.expires) {
		e = &memoryEntry{expires: now.Add(window)}
		s.entries[key] = e
	}
	e.count++

	return e.count, e.expires.Sub(now), nil
}

func (s *MemoryStore) sweep(now time.Time) {
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
}
