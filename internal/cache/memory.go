package cache

import (
	"sync"
	"time"
)

// MemoryStore keeps entries in a plain mutex-guarded map. It is the default
// store when no cache file is configured and the store used by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[storeKey]*Entry
}

type storeKey struct {
	category string
	key      string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[storeKey]*Entry)}
}

func (s *MemoryStore) Get(category, key string) (*Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[storeKey{category, key}]
	if !ok {
		return nil, false, nil
	}
	return entry.clone(), true, nil
}

func (s *MemoryStore) Put(entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[storeKey{entry.Category, entry.Key}] = entry.clone()
	return nil
}

func (s *MemoryStore) Delete(category, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, storeKey{category, key})
	return nil
}

func (s *MemoryStore) Touch(category, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[storeKey{category, key}]; ok {
		entry.AccessCount++
		entry.LastAccessedAt = at
	}
	return nil
}

func (s *MemoryStore) Entries() ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make([]*Entry, 0, len(s.entries))
	for _, entry := range s.entries {
		snapshot = append(snapshot, entry.clone())
	}
	return snapshot, nil
}

func (s *MemoryStore) PurgeExpired(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	purged := 0
	for k, entry := range s.entries {
		if entry.Expired(now) {
			delete(s.entries, k)
			purged++
		}
	}
	return purged, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
