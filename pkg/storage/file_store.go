package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/statkit/absbridge/pkg/dataflow"
)

// FileStore persists the dataflow cache as a single JSON document on disk
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed cache store at the given path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Initialize sets up the storage backend
func (s *FileStore) Initialize() error {
	// The parent directory is created on every write instead
	return nil
}

// Load reads the persisted snapshot from disk. A missing file yields
// ErrCacheNotFound; malformed JSON propagates unchanged.
func (s *FileStore) Load() (*dataflow.Cache, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var cache dataflow.Cache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", s.path, err)
	}

	return &cache, nil
}

// Save writes the snapshot to disk, creating the parent directory if absent
func (s *FileStore) Save(cache *dataflow.Cache) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// Close cleans up resources
func (s *FileStore) Close() error {
	return nil
}
