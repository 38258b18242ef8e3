// Package pipeline drives one ingestion job end to end: mark the book
// processing, extract, chunk, replace the stored pages, and record the final
// status. All book status transitions happen here, so status is never written
// from more than one code path.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pagemill/pagemill/constants"
	"github.com/pagemill/pagemill/internal/chunker"
	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/entity"
	"github.com/pagemill/pagemill/internal/extract"
	"github.com/pagemill/pagemill/internal/metrics"
	"github.com/pagemill/pagemill/internal/repository"
)

// Processor coordinates extraction, chunking, and persistence for delivered
// jobs. Per-book serialization: two jobs for the same book never interleave
// within one process; across processes the transactional page replace plus
// last-write-wins status bound the damage.
type Processor struct {
	Books        repository.BookRepository
	Extractor    *extract.Registry
	WordsPerPage int
	Logger       *slog.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*bookLock
}

// bookLock is a refcounted mutex: the map entry is dropped when the last
// holder releases, so the lock table stays proportional to in-flight jobs,
// not to every book ever processed.
type bookLock struct {
	sync.Mutex
	refs int
}

func NewProcessor(books repository.BookRepository, ex *extract.Registry, wordsPerPage int, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if wordsPerPage <= 0 {
		wordsPerPage = chunker.DefaultWordsPerPage
	}
	return &Processor{
		Books:        books,
		Extractor:    ex,
		WordsPerPage: wordsPerPage,
		Logger:       logger,
		locks:        make(map[uuid.UUID]*bookLock),
	}
}

// ProcessBook runs the pipeline for one job. A non-nil return means the
// attempt failed and the queue should apply retry accounting; the book's
// status is already `failed` by then. No error is swallowed without a
// status write first.
func (p *Processor) ProcessBook(ctx context.Context, job entity.IngestionJob) error {
	lock := p.acquireLock(job.BookID)
	lock.Lock()
	defer func() {
		lock.Unlock()
		p.releaseLock(job.BookID, lock)
	}()

	start := time.Now()
	log := p.Logger.With("book_id", job.BookID, "mime_type", job.MIMEType)
	log.Info("processing started", "file_path", job.FilePath, "progress", 10)

	// Unconditional: a retry or reprocess overwrites a prior failed or
	// completed state.
	if err := p.Books.SetStatus(ctx, job.BookID, constants.StatusProcessing); err != nil {
		log.Error("failed to mark book processing", "error", err)
		return p.fail(ctx, log, job.BookID, common.WrapError(err, "mark processing"))
	}

	data, err := os.ReadFile(job.FilePath)
	if err != nil {
		log.Error("failed to read source file", "file_path", job.FilePath, "error", err)
		return p.fail(ctx, log, job.BookID, common.NewAppError("READ_FILE", "read source file", err))
	}

	text, err := p.Extractor.Extract(data, job.MIMEType)
	if err != nil {
		log.Error("extraction failed", "error", err)
		return p.fail(ctx, log, job.BookID, err)
	}
	log.Info("text extracted", "chars", len(text), "progress", 40)

	pages := chunker.Chunk(text, p.WordsPerPage)
	log.Info("pages chunked", "pages", len(pages), "words_per_page", p.WordsPerPage, "progress", 70)

	if err := p.Books.ReplacePages(ctx, job.BookID, pages); err != nil {
		log.Error("failed to persist pages", "error", err)
		return p.fail(ctx, log, job.BookID, common.WrapError(common.ErrStorage, err.Error()))
	}

	metrics.JobsProcessed.WithLabelValues("completed").Inc()
	metrics.PagesCreated.Add(float64(len(pages)))
	metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	log.Info("processing completed",
		"total_pages", len(pages), "duration_ms", time.Since(start).Milliseconds(), "progress", 100)
	return nil
}

// fail records the failed status before propagating the error to the queue.
// A status write failure is logged but never masks the original error.
func (p *Processor) fail(ctx context.Context, log *slog.Logger, bookID uuid.UUID, cause error) error {
	if err := p.Books.SetStatus(ctx, bookID, constants.StatusFailed); err != nil {
		log.Error("failed to mark book failed", "error", err)
	}
	metrics.JobsProcessed.WithLabelValues("failed").Inc()
	return cause
}

func (p *Processor) acquireLock(id uuid.UUID) *bookLock {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[id]
	if !ok {
		lock = &bookLock{}
		p.locks[id] = lock
	}
	lock.refs++
	return lock
}

func (p *Processor) releaseLock(id uuid.UUID, lock *bookLock) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(p.locks, id)
	}
}
