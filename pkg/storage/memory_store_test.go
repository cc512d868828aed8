package storage

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Initialize())
	defer store.Close()

	original := sampleCache()
	require.NoError(t, store.Save(original))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, original.Flows, loaded.Flows)
	assert.True(t, loaded.LastUpdated.Equal(original.LastUpdated))
}

func TestMemoryStoreLoadEmpty(t *testing.T) {
	store := NewMemoryStore()

	_, err := store.Load()

	assert.True(t, errors.Is(err, ErrCacheNotFound))
}

func TestMemoryStoreCopiesOnSaveAndLoad(t *testing.T) {
	store := NewMemoryStore()

	original := sampleCache()
	require.NoError(t, store.Save(original))

	// Mutating the caller's slice after Save must not leak into the store
	original.Flows[0].ID = "MUTATED"

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "CPI", loaded.Flows[0].ID)

	// Mutating a loaded snapshot must not leak into the store either
	loaded.Flows[0].ID = "ALSO_MUTATED"

	reloaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "CPI", reloaded.Flows[0].ID)
}
