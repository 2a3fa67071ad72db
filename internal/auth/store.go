package auth

import (
	"context"
	"sync"
	"time"
)

// Store persists opaque session values by key. A zero ttl means no expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Pruner is implemented by stores that need expired entries swept.
type Pruner interface {
	Prune(ctx context.Context, now time.Time) (int, error)
}

type memoryRecord struct {
	value     []byte
	expiresAt time.Time
}

func (r memoryRecord) expired(now time.Time) bool {
	return !r.expiresAt.IsZero() && r.expiresAt.Before(now)
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]memoryRecord
	now     func() time.Time
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]memoryRecord),
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	record, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	now := s.now()
	if record.expired(now) {
		s.mu.Lock()
		// A Put may have replaced the record after the read lock was released.
		if current, ok := s.records[key]; ok && current.expired(now) {
			delete(s.records, key)
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	return append([]byte(nil), record.value...), true, nil
}

func (s *MemoryStore) Put(_ context.Context, key string, value []byte, ttl time.Duration) error {
	record := memoryRecord{value: append([]byte(nil), value...)}
	if ttl > 0 {
		record.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.records[key] = record
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// Prune removes entries that expired before now.
func (s *MemoryStore) Prune(_ context.Context, now time.Time) (int, error) {
	removed := 0
	s.mu.Lock()
	for key, record := range s.records {
		if record.expired(now) {
			delete(s.records, key)
			removed++
		}
	}
	s.mu.Unlock()
	return removed, nil
}
