// Package main is the entry point for the absbridge HTTP API server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/statkit/absbridge/pkg/api"
	"github.com/statkit/absbridge/pkg/config"
	"github.com/statkit/absbridge/pkg/logging"
	"github.com/statkit/absbridge/pkg/scheduler"
	"github.com/statkit/absbridge/pkg/sdmx"
	"github.com/statkit/absbridge/pkg/services"
	"github.com/statkit/absbridge/pkg/storage"
)

var (
	// Command-line flags
	configPath = flag.String("config", "", "Path to config file")
	version    = flag.Bool("version", false, "Print version information")
)

// Version information
const (
	AppVersion = "0.1.0"
	AppName    = "absbridge-api"
)

func main() {
	// Load environment variables from .env file
	_ = godotenv.Load()

	flag.Parse()

	if *version {
		fmt.Printf("%s version %s\n", AppName, AppVersion)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}, os.Stderr)

	store, err := newCacheStore(cfg)
	if err != nil {
		log.Fatalf("Failed to create cache store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		log.Fatalf("Failed to initialize cache store: %v", err)
	}
	defer store.Close()

	client := sdmx.NewClient(sdmx.ClientConfig{
		BaseURL: cfg.ABS.BaseURL,
		Timeout: time.Duration(cfg.ABS.RequestTimeoutSeconds) * time.Second,
	}, logger)

	flows := services.NewDataflowService(client, store, services.DataflowServiceOptions{
		RefreshInterval: time.Duration(cfg.Cache.TTLHours) * time.Hour,
		Logger:          logger,
	})

	if cfg.Cache.RefreshSchedule != "" {
		sched := scheduler.New(flows, cfg.Cache.RefreshSchedule, logger)
		if err := sched.Start(); err != nil {
			log.Fatalf("Failed to start refresh scheduler: %v", err)
		}
		defer sched.Stop()
	}

	server := api.NewServer(cfg, flows, logger)

	// Handle graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	case <-stop:
		logger.Info("shutting down gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Stop(ctx); err != nil {
			log.Fatalf("Error during shutdown: %v", err)
		}
	}
}

// loadConfig loads the configuration from the specified path or from
// standard locations, creating a default one if none is found
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config

	if path != "" {
		var err error
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	} else {
		locations := []string{
			"./absbridge.json",
			"./absbridge.yaml",
			"./configs/absbridge.json",
			filepath.Join(os.Getenv("HOME"), ".absbridge", "config.json"),
			"/etc/absbridge/config.json",
		}

		for _, candidate := range locations {
			if loadedCfg, err := config.LoadConfig(candidate); err == nil {
				cfg = loadedCfg
				break
			}
		}

		if cfg == nil {
			cfg = config.DefaultConfig()
		}
	}

	config.OverrideFromEnv(cfg)

	return cfg, nil
}

// newCacheStore creates the cache store selected by the configuration
func newCacheStore(cfg *config.Config) (storage.CacheStore, error) {
	return storage.NewStore(storage.StoreConfig{
		Type:     storage.StoreType(cfg.Cache.Store),
		FilePath: cfg.Cache.FilePath,
		Redis: &storage.RedisStoreConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
			Key:      cfg.Cache.Redis.Key,
		},
		DynamoDB: &storage.DynamoDBStoreConfig{
			Region:      cfg.Cache.DynamoDB.Region,
			Endpoint:    cfg.Cache.DynamoDB.Endpoint,
			TablePrefix: cfg.Cache.DynamoDB.TablePrefix,
		},
		PostgreSQL: &storage.PostgreSQLStoreConfig{
			Host:     cfg.Cache.Postgres.Host,
			Port:     cfg.Cache.Postgres.Port,
			User:     cfg.Cache.Postgres.User,
			Password: cfg.Cache.Postgres.Password,
			Database: cfg.Cache.Postgres.Database,
			SSLMode:  cfg.Cache.Postgres.SSLMode,
		},
	})
}
