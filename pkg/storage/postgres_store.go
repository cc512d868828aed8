package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/statkit/absbridge/pkg/dataflow"
)

// PostgreSQLStoreConfig contains configuration for the PostgreSQL store
type PostgreSQLStoreConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// PostgreSQLStore implements the CacheStore interface using PostgreSQL.
// The snapshot occupies a single row; Save upserts it.
type PostgreSQLStore struct {
	db *sql.DB
}

// NewPostgreSQLStore creates a new PostgreSQL-backed cache store
func NewPostgreSQLStore(config PostgreSQLStoreConfig) (*PostgreSQLStore, error) {
	// Set default port if not specified
	if config.Port == 0 {
		config.Port = 5432
	}

	// Set default SSL mode if not specified
	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.Database, config.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	return &PostgreSQLStore{db: db}, nil
}

// Initialize creates the cache table if it does not exist
func (s *PostgreSQLStore) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS dataflow_cache (
			cache_id TEXT PRIMARY KEY,
			last_updated TIMESTAMPTZ NOT NULL,
			payload JSONB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create dataflow_cache table: %w", err)
	}
	return nil
}

// Load retrieves the persisted snapshot
func (s *PostgreSQLStore) Load() (*dataflow.Cache, error) {
	var payload []byte
	err := s.db.QueryRow(
		"SELECT payload FROM dataflow_cache WHERE cache_id = $1",
		cacheItemID,
	).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("failed to read cache from PostgreSQL: %w", err)
	}

	var cache dataflow.Cache
	if err := json.Unmarshal(payload, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse cached snapshot: %w", err)
	}

	return &cache, nil
}

// Save replaces the persisted snapshot
func (s *PostgreSQLStore) Save(cache *dataflow.Cache) error {
	payload, err := json.Marshal(cache)
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO dataflow_cache (cache_id, last_updated, payload)
		VALUES ($1, $2, $3)
		ON CONFLICT (cache_id) DO UPDATE
		SET last_updated = EXCLUDED.last_updated, payload = EXCLUDED.payload
	`, cacheItemID, cache.LastUpdated, payload)
	if err != nil {
		return fmt.Errorf("failed to write cache to PostgreSQL: %w", err)
	}

	return nil
}

// Close cleans up resources
func (s *PostgreSQLStore) Close() error {
	return s.db.Close()
}
