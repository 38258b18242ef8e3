// enqueue registers a book and submits it for ingestion, or re-submits an
// existing book by id. Operator tool for manual runs and backfills.
//
// Usage:
//
//	enqueue -file /uploads/book.epub -mime application/epub+zip -title "Title" -author "Author"
//	enqueue -book 0b280a62-0d14-4661-8149-6ad9a9b34e11
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"github.com/pagemill/pagemill/internal/books"
	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/queue"
	"github.com/pagemill/pagemill/internal/repository"
)

func main() {
	_ = godotenv.Load()

	var (
		bookID  = flag.String("book", "", "existing book id to re-enqueue")
		file    = flag.String("file", "", "path to the uploaded source file")
		mime    = flag.String("mime", "", "declared media type of the file")
		title   = flag.String("title", "", "book title")
		author  = flag.String("author", "", "author name")
		desc    = flag.String("description", "", "optional description")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	repo, cleanup, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	client := queue.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, queue.ClientConfig{
		MaxAttempts:        cfg.Worker.MaxAttempts,
		JobTimeout:         cfg.Worker.JobTimeout,
		CompletedRetention: cfg.Worker.CompletedRetention,
	}, logger)
	defer client.Close()

	svc := books.NewService(repo, client, logger)

	if *bookID != "" {
		id, err := uuid.Parse(*bookID)
		if err != nil {
			logger.Error("invalid book id", "book_id", *bookID, "error", err)
			os.Exit(1)
		}
		info, err := svc.Resubmit(ctx, id)
		if err != nil {
			logger.Error("resubmit failed", "book_id", id, "error", err)
			os.Exit(1)
		}
		logger.Info("job enqueued", "task_id", info.TaskID, "book_id", info.BookID)
		return
	}

	if *file == "" || *mime == "" || *title == "" || *author == "" {
		logger.Error("either -book, or all of -file, -mime, -title, -author are required")
		flag.Usage()
		os.Exit(2)
	}

	book, info, err := svc.Submit(ctx, books.SubmitRequest{
		Title:       *title,
		AuthorName:  *author,
		Description: *desc,
		FilePath:    *file,
		MIMEType:    *mime,
	})
	if err != nil {
		logger.Error("submit failed", "error", err)
		os.Exit(1)
	}
	logger.Info("book submitted", "book_id", book.ID, "task_id", info.TaskID, "queue", info.Queue)
}

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
	return repository.NewBookRepository(pool, logger), func() { repository.Close(pool, logger) }, nil
}
