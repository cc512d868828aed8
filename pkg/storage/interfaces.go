// Package storage provides interfaces for persisting the dataflow cache.
package storage

import (
	"errors"

	"github.com/statkit/absbridge/pkg/dataflow"
)

// ErrCacheNotFound is returned by Load when no snapshot has been persisted
// yet. It is the only "expected" storage failure: callers treat it as an
// absent cache, not an error.
var ErrCacheNotFound = errors.New("dataflow cache not found")

// CacheStore persists the dataflow cache snapshot. A store holds exactly
// one snapshot; Save replaces it wholesale.
type CacheStore interface {
	// Initialize sets up the storage backend
	Initialize() error

	// Load retrieves the persisted snapshot, or ErrCacheNotFound if absent
	Load() (*dataflow.Cache, error)

	// Save replaces the persisted snapshot
	Save(cache *dataflow.Cache) error

	// Close cleans up resources
	Close() error
}
