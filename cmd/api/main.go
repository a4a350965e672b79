package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Sharatdevadiga/careerflow-api-server/internal/api"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/config"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/logger"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/storage/memory"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/storage/postgres"
	"github.com/Sharatdevadiga/careerflow-api-server/internal/storage/redis"
)

func main() {
	// a missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting careerflow api",
		zap.String("env", cfg.Env),
		zap.String("log_level", cfg.LogLevel),
		zap.String("storage", cfg.StorageDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	if err := run(ctx, cfg, log, openStorage); err != nil {
		log.Error("startup failed", zap.Error(err))
		log.Sync()
		os.Exit(1)
	}

	log.Info("shutting down gracefully...")
}

type storageOpener func(cfg *config.Config, log *zap.Logger) (api.Storage, func(), error)

// run owns every resource it opens, so each one is closed on any return path.
func run(ctx context.Context, cfg *config.Config, log *zap.Logger, open storageOpener) error {
	store, closeStore, err := open(cfg, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer closeStore()

	var cache *redis.Cache
	if cfg.RedisEnabled() {
		log.Info("connecting to Redis...")
		cache, err = redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer cache.Close()
	} else {
		log.Warn("REDIS_ADDR not set, rate limiting and token revocation disabled")
	}

	server, err := api.New(cfg, store, cache, log)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	return server.Run(ctx)
}

func openStorage(cfg *config.Config, log *zap.Logger) (api.Storage, func(), error) {
	if cfg.StorageDriver == config.DriverMemory {
		log.Warn("using in-memory storage, data is lost on restart")
		return memory.New(), func() {}, nil
	}

	log.Info("connecting to PostgreSQL...")
	store, err := postgres.New(cfg.PostgresDSN, log)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := store.Migrate(ctx); err != nil {
		store.Close()
		return nil, nil, err
	}

	return store, func() { store.Close() }, nil
}
