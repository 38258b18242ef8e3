package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pagemill/pagemill/internal/entity"
)

// JobHandler runs the pipeline for one delivered job. A returned error
// counts as a failed attempt and makes the broker redeliver with backoff,
// until the attempt ceiling is reached.
type JobHandler func(ctx context.Context, job entity.IngestionJob) error

// WorkerConfig tunes the consumer side of the queue.
type WorkerConfig struct {
	Concurrency    int
	RetryBaseDelay time.Duration
}

func (c *WorkerConfig) defaults() {
	if c.Concurrency < 1 {
		c.Concurrency = 4
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = 2 * time.Second
	}
}

// Worker drains the ingestion queue. Any single task is delivered to at
// most one worker at a time; distinct jobs run fully in parallel up to
// Concurrency.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// NewWorker builds the consumer. handler is invoked once per delivery with
// the decoded, schema-validated job.
func NewWorker(redis asynq.RedisClientOpt, cfg WorkerConfig, handler JobHandler, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.defaults()

	server := asynq.NewServer(redis, asynq.Config{
		Concurrency:    cfg.Concurrency,
		Queues:         map[string]int{QueueName: 1},
		RetryDelayFunc: retryDelayFunc(cfg.RetryBaseDelay),
		Logger:         &asynqLogger{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			taskID, _ := asynq.GetTaskID(ctx)
			logger.Error("job attempt failed",
				"task_id", taskID,
				"attempt", retried+1,
				"max_attempts", maxRetry+1,
				"error", err,
			)
		}),
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		logger: logger,
	}
	w.mux.HandleFunc(TypeBookProcess, func(ctx context.Context, task *asynq.Task) error {
		job, err := UnmarshalJob(task.Payload())
		if err != nil {
			// A payload that fails schema validation will fail every
			// redelivery the same way; still surfaced as a normal failure so
			// retry accounting and the archive see it.
			return err
		}
		return handler(ctx, job)
	})
	return w
}

// Run blocks, processing deliveries until the context is canceled or
// Shutdown is called.
func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

// Start begins processing without blocking; pair with Shutdown.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Shutdown waits for in-flight jobs, then stops. Unfinished deliveries are
// returned to the queue (at-least-once: they will be redelivered).
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// retryDelayFunc implements the exponential backoff contract: base delay on
// the first retry, doubling per attempt (2s, 4s, 8s, ...).
func retryDelayFunc(base time.Duration) asynq.RetryDelayFunc {
	return func(n int, _ error, _ *asynq.Task) time.Duration {
		return RetryDelay(base, n)
	}
}

// RetryDelay computes the backoff before retry n (1-based).
func RetryDelay(base time.Duration, n int) time.Duration {
	if n < 1 {
		n = 1
	}
	return base << (n - 1)
}

// asynqLogger adapts slog to the broker's logging interface.
type asynqLogger struct {
	logger *slog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Debug(sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Info(sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Warn(sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Error(sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.logger.Error(sprint(args...)) }

func sprint(args ...interface{}) string {
	return fmt.Sprint(args...)
}
