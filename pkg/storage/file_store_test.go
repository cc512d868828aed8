package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statkit/absbridge/pkg/dataflow"
)

func sampleCache() *dataflow.Cache {
	return &dataflow.Cache{
		LastUpdated: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Flows: []dataflow.DataFlow{
			{
				ID:       "CPI",
				AgencyID: "ABS",
				Version:  "1.0.0",
				Name:     "Consumer Price Index",
				Structure: &dataflow.StructureRef{
					ID:       "CPI_DSD",
					Version:  "1.0.0",
					AgencyID: "ABS",
				},
			},
			{
				ID:       "LF",
				AgencyID: "ABS",
				Version:  "1.0.0",
				Name:     "Labour Force",
			},
		},
	}
}

func TestFileStoreRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewFileStore(path)
	require.NoError(t, store.Initialize())
	defer store.Close()

	original := sampleCache()
	require.NoError(t, store.Save(original))

	loaded, err := store.Load()
	require.NoError(t, err)

	assert.Equal(t, original.Flows, loaded.Flows)
	assert.True(t, loaded.LastUpdated.Equal(original.LastUpdated),
		"LastUpdated should survive the roundtrip: got %v want %v", loaded.LastUpdated, original.LastUpdated)
}

func TestFileStoreLoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "does-not-exist.json"))

	_, err := store.Load()

	assert.True(t, errors.Is(err, ErrCacheNotFound), "missing file should map to ErrCacheNotFound, got %v", err)
}

func TestFileStoreSaveCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "cache.json")
	store := NewFileStore(path)

	require.NoError(t, store.Save(sampleCache()))

	_, err := os.Stat(path)
	assert.NoError(t, err, "cache file should exist after Save")
}

func TestFileStoreLoadMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	store := NewFileStore(path)

	_, err := store.Load()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrCacheNotFound), "malformed JSON is not the same as a missing cache")
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	store := NewFileStore(path)

	first := sampleCache()
	require.NoError(t, store.Save(first))

	second := &dataflow.Cache{
		LastUpdated: time.Now().UTC(),
		Flows:       []dataflow.DataFlow{{ID: "ERP", AgencyID: "ABS", Version: "2.0.0"}},
	}
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	require.Len(t, loaded.Flows, 1)
	assert.Equal(t, "ERP", loaded.Flows[0].ID)
}
