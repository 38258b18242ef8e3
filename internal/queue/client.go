package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/entity"
)

// ClientConfig tunes how jobs are enqueued. Defaults match the pipeline's
// contract: 3 attempts total, 2 s exponential base, 10 min per-job timeout.
type ClientConfig struct {
	MaxAttempts        int
	JobTimeout         time.Duration
	CompletedRetention time.Duration
}

func (c *ClientConfig) defaults() {
	if c.MaxAttempts < 1 {
		c.MaxAttempts = 3
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = 10 * time.Minute
	}
	if c.CompletedRetention <= 0 {
		c.CompletedRetention = 24 * time.Hour
	}
}

// maxRetry converts the total-attempt ceiling into the broker's retry count:
// the first delivery is not a retry, so 3 attempts means 2 retries.
func (c ClientConfig) maxRetry() int {
	return c.MaxAttempts - 1
}

// Client is the producer-side queue handle. Both the submission path and the
// worker pool receive an explicit handle; there is no package-level
// singleton, and lifecycle is Close, not ambient process state.
type Client struct {
	inner  *asynq.Client
	cfg    ClientConfig
	logger *slog.Logger
}

// NewClient builds a producer handle against the given Redis broker.
func NewClient(redis asynq.RedisClientOpt, cfg ClientConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.defaults()
	return &Client{
		inner:  asynq.NewClient(redis),
		cfg:    cfg,
		logger: logger,
	}
}

// Enqueue submits one ingestion job. The caller must have durably saved the
// file at job.FilePath first. Redelivery on failure is the broker's job; the
// task carries its full retry budget and retention policy.
func (c *Client) Enqueue(ctx context.Context, job entity.IngestionJob) (entity.JobInfo, error) {
	payload, err := MarshalJob(job)
	if err != nil {
		return entity.JobInfo{}, err
	}

	task := asynq.NewTask(TypeBookProcess, payload)
	info, err := c.inner.EnqueueContext(ctx, task,
		asynq.Queue(QueueName),
		asynq.MaxRetry(c.cfg.maxRetry()),
		asynq.Timeout(c.cfg.JobTimeout),
		asynq.Retention(c.cfg.CompletedRetention),
	)
	if err != nil {
		c.logger.Error("failed to enqueue job", "book_id", job.BookID, "error", err)
		return entity.JobInfo{}, common.WrapError(err, "enqueue ingestion job")
	}

	c.logger.Info("job enqueued",
		"task_id", info.ID, "book_id", job.BookID, "mime_type", job.MIMEType, "queue", info.Queue)
	return entity.JobInfo{
		TaskID:     info.ID,
		BookID:     job.BookID,
		Queue:      info.Queue,
		MaxRetry:   info.MaxRetry,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}

// Close releases the broker connection.
func (c *Client) Close() error {
	return c.inner.Close()
}
