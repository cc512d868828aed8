package storage

import (
	"sync"

	"github.com/statkit/absbridge/pkg/dataflow"
)

// MemoryStore implements the CacheStore interface using in-memory storage.
// It is used for tests and ephemeral runs where persistence across process
// restarts is not needed.
type MemoryStore struct {
	cache *dataflow.Cache
	mu    sync.RWMutex
}

// NewMemoryStore creates a new in-memory cache store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Initialize sets up the storage backend
func (s *MemoryStore) Initialize() error {
	// Nothing to initialize for in-memory storage
	return nil
}

// Load retrieves the stored snapshot
func (s *MemoryStore) Load() (*dataflow.Cache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cache == nil {
		return nil, ErrCacheNotFound
	}
	return copyCache(s.cache), nil
}

// Save replaces the stored snapshot
func (s *MemoryStore) Save(cache *dataflow.Cache) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache = copyCache(cache)
	return nil
}

// Close cleans up resources
func (s *MemoryStore) Close() error {
	return nil
}

// copyCache snapshots the cache so callers cannot alias the stored slice
func copyCache(cache *dataflow.Cache) *dataflow.Cache {
	flows := make([]dataflow.DataFlow, len(cache.Flows))
	copy(flows, cache.Flows)
	return &dataflow.Cache{
		LastUpdated: cache.LastUpdated,
		Flows:       flows,
	}
}
