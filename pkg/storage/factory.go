package storage

import (
	"fmt"
)

// StoreType represents the type of cache store
type StoreType string

const (
	// MemoryStoreType is an in-memory cache store
	MemoryStoreType StoreType = "memory"

	// FileStoreType is a JSON-file cache store
	FileStoreType StoreType = "file"

	// RedisStoreType is a Redis cache store
	RedisStoreType StoreType = "redis"

	// DynamoDBStoreType is a DynamoDB cache store
	DynamoDBStoreType StoreType = "dynamodb"

	// PostgreSQLStoreType is a PostgreSQL cache store
	PostgreSQLStoreType StoreType = "postgresql"
)

// StoreConfig contains configuration for cache stores
type StoreConfig struct {
	// Type is the type of cache store to create
	Type StoreType

	// FilePath is the cache file location for the file store
	FilePath string

	// Redis contains configuration for the Redis store
	Redis *RedisStoreConfig

	// DynamoDB contains configuration for the DynamoDB store
	DynamoDB *DynamoDBStoreConfig

	// PostgreSQL contains configuration for the PostgreSQL store
	PostgreSQL *PostgreSQLStoreConfig
}

// NewStore creates a new cache store based on the configuration
func NewStore(config StoreConfig) (CacheStore, error) {
	switch config.Type {
	case MemoryStoreType:
		return NewMemoryStore(), nil

	case FileStoreType:
		if config.FilePath == "" {
			return nil, fmt.Errorf("file path is required for the file store")
		}
		return NewFileStore(config.FilePath), nil

	case RedisStoreType:
		if config.Redis == nil {
			return nil, fmt.Errorf("Redis configuration is required for the Redis store")
		}
		return NewRedisStore(*config.Redis), nil

	case DynamoDBStoreType:
		if config.DynamoDB == nil {
			return nil, fmt.Errorf("DynamoDB configuration is required for the DynamoDB store")
		}
		return NewDynamoDBStore(*config.DynamoDB)

	case PostgreSQLStoreType:
		if config.PostgreSQL == nil {
			return nil, fmt.Errorf("PostgreSQL configuration is required for the PostgreSQL store")
		}
		return NewPostgreSQLStore(*config.PostgreSQL)

	default:
		return nil, fmt.Errorf("unknown store type: %s", config.Type)
	}
}
