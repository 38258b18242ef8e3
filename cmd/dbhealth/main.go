// dbhealth probes the configured store and exits non-zero on failure.
// Intended for container health checks and deploy smoke tests.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if cfg.Database.SQLitePath != "" {
		_, db, err := repository.OpenSQLite(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Error("sqlite store unhealthy", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Error("sqlite ping failed", "error", err)
			os.Exit(1)
		}
		logger.Info("sqlite store healthy", "path", cfg.Database.SQLitePath)
		return
	}

	pool, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer repository.Close(pool, logger)

	if err := repository.HealthCheck(ctx, pool, 5*time.Second, logger); err != nil {
		logger.Error("database unhealthy", "error", err)
		os.Exit(1)
	}
	logger.Info("database healthy")
}
