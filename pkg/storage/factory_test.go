package storage

import (
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStoreMemory(t *testing.T) {
	store, err := NewStore(StoreConfig{Type: MemoryStoreType})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)
}

func TestNewStoreFile(t *testing.T) {
	store, err := NewStore(StoreConfig{
		Type:     FileStoreType,
		FilePath: filepath.Join(t.TempDir(), "cache.json"),
	})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)
}

func TestNewStoreFileRequiresPath(t *testing.T) {
	_, err := NewStore(StoreConfig{Type: FileStoreType})
	assert.Error(t, err)
}

func TestNewStoreRedis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	store, err := NewStore(StoreConfig{
		Type:  RedisStoreType,
		Redis: &RedisStoreConfig{Addr: mr.Addr()},
	})
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &RedisStore{}, store)
}

func TestNewStoreRedisRequiresConfig(t *testing.T) {
	_, err := NewStore(StoreConfig{Type: RedisStoreType})
	assert.Error(t, err)
}

func TestNewStoreUnknownType(t *testing.T) {
	_, err := NewStore(StoreConfig{Type: "etcd"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store type")
}
