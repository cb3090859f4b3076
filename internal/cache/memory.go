package cache

import (
	"context"
	"slices"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStats is a point-in-time snapshot of a MemoryStore.
type MemoryStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Keys      int
}

// MemoryStore is an in-process Store for development and tests.
// Expired entries are dropped on read and by a background sweep.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	stats   MemoryStats
	now     func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryStore creates a MemoryStore sweeping expired entries every
// cleanupInterval. A non-positive interval disables the sweep.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go s.cleanupLoop(cleanupInterval)
	}
	return s
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		s.stats.Misses++
		return nil, ErrMiss
	}
	if !s.now().Before(entry.expiresAt) {
		delete(s.entries, key)
		s.stats.Misses++
		s.stats.Evictions++
		return nil, ErrMiss
	}
	s.stats.Hits++
	return slices.Clone(entry.value), nil
}

// Set implements Store.
func (s *MemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{value: slices.Clone(value), expiresAt: s.now().Add(ttl)}
	return nil
}

// Stats returns a snapshot of hit, miss and eviction counts.
func (s *MemoryStore) Stats() MemoryStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := s.stats
	stats.Keys = len(s.entries)
	return stats
}

// Close stops the background sweep.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for key, entry := range s.entries {
		if !now.Before(entry.expiresAt) {
			delete(s.entries, key)
			s.stats.Evictions++
		}
	}
}
