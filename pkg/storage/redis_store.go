package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/statkit/absbridge/pkg/dataflow"
)

// DefaultRedisKey is the key the snapshot is stored under when none is configured
const DefaultRedisKey = "absbridge:dataflow_cache"

// RedisStoreConfig contains configuration for the Redis store
type RedisStoreConfig struct {
	// Addr is the Redis host:port
	Addr string

	// Password for the Redis server, if any
	Password string

	// DB is the Redis database number
	DB int

	// Key the snapshot is stored under; DefaultRedisKey when empty
	Key string

	// Expiration is an optional server-side TTL for the snapshot. Zero
	// means no expiry; staleness is then judged solely by LastUpdated.
	Expiration time.Duration
}

// RedisStore implements the CacheStore interface using Redis
type RedisStore struct {
	client     *redis.Client
	key        string
	expiration time.Duration
}

// NewRedisStore creates a new Redis-backed cache store
func NewRedisStore(config RedisStoreConfig) *RedisStore {
	key := config.Key
	if key == "" {
		key = DefaultRedisKey
	}

	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     config.Addr,
			Password: config.Password,
			DB:       config.DB,
		}),
		key:        key,
		expiration: config.Expiration,
	}
}

// Initialize verifies connectivity to the Redis server
func (s *RedisStore) Initialize() error {
	if err := s.client.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

// Load retrieves the persisted snapshot
func (s *RedisStore) Load() (*dataflow.Cache, error) {
	data, err := s.client.Get(context.Background(), s.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache from redis: %w", err)
	}

	var cache dataflow.Cache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse cached snapshot: %w", err)
	}

	return &cache, nil
}

// Save replaces the persisted snapshot
func (s *RedisStore) Save(cache *dataflow.Cache) error {
	data, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := s.client.Set(context.Background(), s.key, data, s.expiration).Err(); err != nil {
		return fmt.Errorf("failed to write cache to redis: %w", err)
	}

	return nil
}

// Close cleans up resources
func (s *RedisStore) Close() error {
	return s.client.Close()
}
