// Package config provides configuration handling for absbridge.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	// Server configuration (HTTP API and MCP SSE transport)
	Server ServerConfig `json:"server" yaml:"server"`

	// ABS upstream API configuration
	ABS ABSConfig `json:"abs" yaml:"abs"`

	// Cache configuration
	Cache CacheConfig `json:"cache" yaml:"cache"`

	// Auth configuration for the HTTP API
	Auth AuthConfig `json:"auth" yaml:"auth"`

	// Logging configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Host to bind to
	Host string `json:"host" yaml:"host"`

	// Port to listen on
	Port int `json:"port" yaml:"port"`

	// TLS configuration
	TLS TLSConfig `json:"tls" yaml:"tls"`
}

// TLSConfig contains TLS settings
type TLSConfig struct {
	// Enabled indicates whether TLS is enabled
	Enabled bool `json:"enabled" yaml:"enabled"`

	// CertFile is the path to the certificate file
	CertFile string `json:"cert_file" yaml:"cert_file"`

	// KeyFile is the path to the key file
	KeyFile string `json:"key_file" yaml:"key_file"`
}

// ABSConfig contains settings for the upstream ABS SDMX API
type ABSConfig struct {
	// BaseURL is the API host
	BaseURL string `json:"base_url" yaml:"base_url"`

	// RequestTimeoutSeconds bounds each request
	RequestTimeoutSeconds int `json:"request_timeout_seconds" yaml:"request_timeout_seconds"`
}

// CacheConfig contains dataflow cache settings
type CacheConfig struct {
	// Store is the cache store backend
	Store string `json:"store" yaml:"store"` // "file", "memory", "redis", "dynamodb", "postgresql"

	// FilePath is the cache file location for the file store
	FilePath string `json:"file_path" yaml:"file_path"`

	// TTLHours is the refresh interval in hours
	TTLHours int `json:"ttl_hours" yaml:"ttl_hours"`

	// RefreshSchedule is an optional cron expression for background
	// refreshes (e.g. "@every 24h"). Empty disables the scheduler.
	RefreshSchedule string `json:"refresh_schedule" yaml:"refresh_schedule"`

	// Redis configuration
	Redis RedisConfig `json:"redis" yaml:"redis"`

	// DynamoDB configuration
	DynamoDB DynamoDBConfig `json:"dynamodb" yaml:"dynamodb"`

	// PostgreSQL configuration
	Postgres PostgresConfig `json:"postgres" yaml:"postgres"`
}

// RedisConfig contains Redis settings
type RedisConfig struct {
	// Addr is the Redis host:port
	Addr string `json:"addr" yaml:"addr"`

	// Password for the Redis server
	Password string `json:"password" yaml:"password"`

	// DB is the Redis database number
	DB int `json:"db" yaml:"db"`

	// Key the snapshot is stored under
	Key string `json:"key" yaml:"key"`
}

// DynamoDBConfig contains DynamoDB settings
type DynamoDBConfig struct {
	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the DynamoDB endpoint (for local development)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// TablePrefix is the prefix for the cache table
	TablePrefix string `json:"table_prefix" yaml:"table_prefix"`
}

// PostgresConfig contains PostgreSQL settings
type PostgresConfig struct {
	// Host is the database host
	Host string `json:"host" yaml:"host"`

	// Port is the database port
	Port int `json:"port" yaml:"port"`

	// Database is the database name
	Database string `json:"database" yaml:"database"`

	// User is the database user
	User string `json:"user" yaml:"user"`

	// Password is the database password
	Password string `json:"password" yaml:"password"`

	// SSLMode is the SSL mode
	SSLMode string `json:"ssl_mode" yaml:"ssl_mode"`
}

// AuthConfig contains authentication settings for the HTTP API. When both
// JWTSecret and APIKeyHash are empty the API is open.
type AuthConfig struct {
	// JWTSecret is the secret for signing and validating JWT tokens
	JWTSecret string `json:"jwt_secret" yaml:"jwt_secret"`

	// APIKeyHash is a bcrypt hash of a static API key accepted as a
	// bearer token
	APIKeyHash string `json:"api_key_hash" yaml:"api_key_hash"`

	// TokenExpiration is the token expiration time in hours
	TokenExpiration int `json:"token_expiration" yaml:"token_expiration"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	// Level is the logging level
	Level string `json:"level" yaml:"level"` // "debug", "info", "warn", "error"

	// Format is the log format
	Format string `json:"format" yaml:"format"` // "json", "text"
}

// LoadConfig loads the configuration from a file. YAML is used for .yaml
// and .yml files, JSON otherwise.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else {
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return &config, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
			TLS: TLSConfig{
				Enabled: false,
			},
		},
		ABS: ABSConfig{
			BaseURL:               "https://data.api.abs.gov.au",
			RequestTimeoutSeconds: 30,
		},
		Cache: CacheConfig{
			Store:    "file",
			FilePath: filepath.Join(os.Getenv("HOME"), ".absbridge", "dataflow_cache.json"),
			TTLHours: 24,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
			DynamoDB: DynamoDBConfig{
				Region:      "ap-southeast-2",
				TablePrefix: "absbridge_",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "absbridge",
				User:     "absbridge",
				SSLMode:  "disable",
			},
		},
		Auth: AuthConfig{
			TokenExpiration: 24,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// SaveConfig saves the configuration to a file as JSON
func SaveConfig(config *Config, path string) error {
	// Create the directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// OverrideFromEnv overrides configuration values from ABSBRIDGE_*
// environment variables
func OverrideFromEnv(cfg *Config) {
	// Server configuration
	if host := os.Getenv("ABSBRIDGE_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("ABSBRIDGE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	// ABS configuration
	if baseURL := os.Getenv("ABSBRIDGE_ABS_BASE_URL"); baseURL != "" {
		cfg.ABS.BaseURL = baseURL
	}
	if timeout := os.Getenv("ABSBRIDGE_ABS_REQUEST_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			cfg.ABS.RequestTimeoutSeconds = t
		}
	}

	// Cache configuration
	if store := os.Getenv("ABSBRIDGE_CACHE_STORE"); store != "" {
		cfg.Cache.Store = store
	}
	if filePath := os.Getenv("ABSBRIDGE_CACHE_FILE_PATH"); filePath != "" {
		cfg.Cache.FilePath = filePath
	}
	if ttl := os.Getenv("ABSBRIDGE_CACHE_TTL_HOURS"); ttl != "" {
		if t, err := strconv.Atoi(ttl); err == nil {
			cfg.Cache.TTLHours = t
		}
	}
	if schedule := os.Getenv("ABSBRIDGE_CACHE_REFRESH_SCHEDULE"); schedule != "" {
		cfg.Cache.RefreshSchedule = schedule
	}
	if addr := os.Getenv("ABSBRIDGE_REDIS_ADDR"); addr != "" {
		cfg.Cache.Redis.Addr = addr
	}
	if password := os.Getenv("ABSBRIDGE_REDIS_PASSWORD"); password != "" {
		cfg.Cache.Redis.Password = password
	}
	if region := os.Getenv("ABSBRIDGE_DYNAMODB_REGION"); region != "" {
		cfg.Cache.DynamoDB.Region = region
	}
	if endpoint := os.Getenv("ABSBRIDGE_DYNAMODB_ENDPOINT"); endpoint != "" {
		cfg.Cache.DynamoDB.Endpoint = endpoint
	}
	if tablePrefix := os.Getenv("ABSBRIDGE_DYNAMODB_TABLE_PREFIX"); tablePrefix != "" {
		cfg.Cache.DynamoDB.TablePrefix = tablePrefix
	}
	if host := os.Getenv("ABSBRIDGE_POSTGRES_HOST"); host != "" {
		cfg.Cache.Postgres.Host = host
	}
	if port := os.Getenv("ABSBRIDGE_POSTGRES_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Cache.Postgres.Port = p
		}
	}
	if database := os.Getenv("ABSBRIDGE_POSTGRES_DATABASE"); database != "" {
		cfg.Cache.Postgres.Database = database
	}
	if user := os.Getenv("ABSBRIDGE_POSTGRES_USER"); user != "" {
		cfg.Cache.Postgres.User = user
	}
	if password := os.Getenv("ABSBRIDGE_POSTGRES_PASSWORD"); password != "" {
		cfg.Cache.Postgres.Password = password
	}

	// Auth configuration
	if jwtSecret := os.Getenv("ABSBRIDGE_JWT_SECRET"); jwtSecret != "" {
		cfg.Auth.JWTSecret = jwtSecret
	}
	if apiKeyHash := os.Getenv("ABSBRIDGE_API_KEY_HASH"); apiKeyHash != "" {
		cfg.Auth.APIKeyHash = apiKeyHash
	}
	if tokenExpiration := os.Getenv("ABSBRIDGE_TOKEN_EXPIRATION"); tokenExpiration != "" {
		if exp, err := strconv.Atoi(tokenExpiration); err == nil {
			cfg.Auth.TokenExpiration = exp
		}
	}

	// Logging configuration
	if level := os.Getenv("ABSBRIDGE_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if format := os.Getenv("ABSBRIDGE_LOG_FORMAT"); format != "" {
		cfg.Logging.Format = format
	}
}
