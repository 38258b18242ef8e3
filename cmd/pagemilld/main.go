// pagemilld is the ingestion worker daemon. It drains the book-processing
// queue, runs the extraction pipeline for each delivered job, and serves
// Prometheus metrics.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/extract"
	"github.com/pagemill/pagemill/internal/pipeline"
	"github.com/pagemill/pagemill/internal/queue"
	"github.com/pagemill/pagemill/internal/repository"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	registry := extract.NewRegistry(cfg.Pipeline.MinTextLength)
	processor := pipeline.NewProcessor(repo, registry, cfg.Pipeline.WordsPerPage, logger)

	redis := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	worker := queue.NewWorker(redis, queue.WorkerConfig{
		Concurrency:    cfg.Worker.Concurrency,
		RetryBaseDelay: cfg.Worker.RetryBaseDelay,
	}, processor.ProcessBook, logger)

	metricsSrv := &http.Server{
		Addr:    cfg.Metrics.Addr,
		Handler: promhttp.Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("worker starting",
			"queue", queue.QueueName,
			"concurrency", cfg.Worker.Concurrency,
			"max_attempts", cfg.Worker.MaxAttempts,
		)
		return worker.Run()
	})
	g.Go(func() error {
		logger.Info("metrics listening", "addr", cfg.Metrics.Addr)
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		worker.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

// openStore picks the backend from config: the embedded sqlite store when
// SQLITE_PATH is set, otherwise Postgres over a pgx pool.
func openStore(ctx context.Context, cfg *common.Config, logger *slog.Logger) (repository.BookRepository, func(), error) {
	if cfg.Database.SQLitePath != "" {
		repo, db, err := repository.OpenSQLite(cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() { db.Close() }, nil
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
		return nil, nil, err
	}
	if err := repository.HealthCheck(ctx, pool, cfg.Database.DialTimeout, logger); err != nil {
		repository.Close(pool, logger)
		return nil, nil, err
	}
	return repository.NewBookRepository(pool, logger), func() { repository.Close(pool, logger) }, nil
}
