// Package books is the request-facing service over the catalog: submitting a
// book for ingestion, projecting its processing status, and serving pages.
package books

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/pagemill/pagemill/constants"
	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/entity"
	"github.com/pagemill/pagemill/internal/repository"
)

// Enqueuer is the producer-side queue surface the service needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job entity.IngestionJob) (entity.JobInfo, error)
}

// Service exposes the book-facing operations.
type Service struct {
	repo   repository.BookRepository
	queue  Enqueuer
	logger *slog.Logger
}

func NewService(repo repository.BookRepository, queue Enqueuer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, queue: queue, logger: logger}
}

// SubmitRequest carries everything needed to register a book and start
// ingestion. FilePath must point at an already-uploaded file.
type SubmitRequest struct {
	Title       string
	AuthorName  string
	Description string
	FilePath    string
	MIMEType    string
}

// Submit registers the book (status pending) and enqueues its ingestion job.
// The row is written before the enqueue so a delivered job always finds its
// book; an enqueue failure leaves the row pending for a later resubmit.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*entity.Book, entity.JobInfo, error) {
	if req.Title == "" || req.AuthorName == "" {
		return nil, entity.JobInfo{}, common.WrapError(common.ErrInvalidInput, "title and author_name are required")
	}
	format := constants.MapMIMEToFormat(req.MIMEType)
	if format == "" {
		return nil, entity.JobInfo{}, common.WrapError(common.ErrUnsupportedFormat, req.MIMEType)
	}
	info, err := os.Stat(req.FilePath)
	if err != nil {
		return nil, entity.JobInfo{}, common.WrapError(common.ErrInvalidInput, "file not found at file_path")
	}

	book := &entity.Book{
		Title:       req.Title,
		AuthorName:  req.AuthorName,
		Description: req.Description,
		FilePath:    req.FilePath,
		FileFormat:  format,
		FileSize:    int(info.Size()),
	}
	if err := s.repo.CreateBook(ctx, book); err != nil {
		return nil, entity.JobInfo{}, err
	}

	jobInfo, err := s.queue.Enqueue(ctx, entity.IngestionJob{
		BookID:   book.ID,
		FilePath: req.FilePath,
		MIMEType: req.MIMEType,
	})
	if err != nil {
		s.logger.Error("book created but enqueue failed", "book_id", book.ID, "error", err)
		return book, entity.JobInfo{}, err
	}
	return book, jobInfo, nil
}

// Resubmit re-enqueues ingestion for an existing book, e.g. after a failed
// run or to rebuild pages from the stored file.
func (s *Service) Resubmit(ctx context.Context, bookID uuid.UUID) (entity.JobInfo, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return entity.JobInfo{}, err
	}
	mime := constants.MapFormatToMIME(book.FileFormat)
	if mime == "" {
		return entity.JobInfo{}, common.WrapError(common.ErrUnsupportedFormat, book.FileFormat)
	}
	if _, err := os.Stat(book.FilePath); err != nil {
		return entity.JobInfo{}, common.WrapError(common.ErrInvalidInput, "stored file is missing")
	}
	return s.queue.Enqueue(ctx, entity.IngestionJob{
		BookID:   book.ID,
		FilePath: book.FilePath,
		MIMEType: mime,
	})
}

// Status returns the read-only processing projection for one book. The
// message is one of four fixed strings; internal error detail never leaks
// through this call.
func (s *Service) Status(ctx context.Context, bookID uuid.UUID) (*entity.BookStatus, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	return &entity.BookStatus{
		ID:         book.ID,
		Title:      book.Title,
		Status:     book.ProcessingStatus,
		TotalPages: book.TotalPages,
		Message:    book.ProcessingStatus.Message(),
	}, nil
}

// Page serves one page with navigation hints. Any book whose status is not
// completed refuses page reads with ErrStillProcessing; callers can combine
// it with Status to show the fixed per-status message.
func (s *Service) Page(ctx context.Context, bookID uuid.UUID, pageNumber int) (*entity.PageView, error) {
	book, err := s.repo.GetBook(ctx, bookID)
	if err != nil {
		return nil, err
	}
	if book.ProcessingStatus != constants.StatusCompleted {
		return nil, common.ErrStillProcessing
	}
	if pageNumber < 1 || pageNumber > book.TotalPages {
		return nil, common.ErrNotFound
	}

	page, err := s.repo.GetPage(ctx, bookID, pageNumber)
	if err != nil {
		return nil, err
	}
	return &entity.PageView{
		BookID:      bookID,
		PageNumber:  pageNumber,
		Content:     page.Content,
		TotalPages:  book.TotalPages,
		HasNext:     pageNumber < book.TotalPages,
		HasPrevious: pageNumber > 1,
	}, nil
}
