package repository

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pagemill/pagemill/constants"
	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/entity"
)

// BookRepository is the storage contract the pipeline and the read path
// depend on. ReplacePages is the only write that touches pages: it deletes
// the book's previous page set, bulk-inserts the new one, and marks the book
// completed with the authoritative page count, all inside one transaction so
// a reader never observes a zero-page completed book.
type BookRepository interface {
	CreateBook(ctx context.Context, book *entity.Book) error
	GetBook(ctx context.Context, id uuid.UUID) (*entity.Book, error)
	SetStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus) error
	ReplacePages(ctx context.Context, bookID uuid.UUID, contents []string) error
	GetPage(ctx context.Context, bookID uuid.UUID, pageNumber int) (*entity.Page, error)
	CountPages(ctx context.Context, bookID uuid.UUID) (int, error)
}

type postgresBookRepo struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewBookRepository returns the Postgres-backed store.
func NewBookRepository(pool *pgxpool.Pool, logger *slog.Logger) BookRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &postgresBookRepo{pool: pool, logger: logger}
}

func (r *postgresBookRepo) CreateBook(ctx context.Context, book *entity.Book) error {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	if book.ProcessingStatus == "" {
		book.ProcessingStatus = constants.StatusPending
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	_, err := r.pool.Exec(ctx,
		`INSERT INTO books
		   (id, title, author_name, description, file_path, file_format, file_size,
		    processing_status, total_pages, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		book.ID, book.Title, book.AuthorName, book.Description, book.FilePath,
		book.FileFormat, book.FileSize, string(book.ProcessingStatus),
		book.TotalPages, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create book", "book_id", book.ID, "error", err)
		return common.WrapError(err, "create book")
	}
	r.logger.Info("book created", "book_id", book.ID, "title", book.Title)
	return nil
}

func (r *postgresBookRepo) GetBook(ctx context.Context, id uuid.UUID) (*entity.Book, error) {
	var (
		b      entity.Book
		status string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, author_name, description, file_path, file_format,
		        file_size, processing_status, total_pages, created_at, updated_at
		   FROM books WHERE id = $1`, id).
		Scan(&b.ID, &b.Title, &b.AuthorName, &b.Description, &b.FilePath,
			&b.FileFormat, &b.FileSize, &status, &b.TotalPages, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get book", "book_id", id, "error", err)
		return nil, common.WrapError(err, "get book")
	}
	b.ProcessingStatus = constants.ProcessingStatus(status)
	return &b, nil
}

func (r *postgresBookRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE books SET processing_status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC())
	if err != nil {
		r.logger.Error("failed to set book status", "book_id", id, "status", status, "error", err)
		return common.WrapError(err, "set book status")
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}
	r.logger.Info("book status updated", "book_id", id, "status", status)
	return nil
}

func (r *postgresBookRepo) ReplacePages(ctx context.Context, bookID uuid.UUID, contents []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return common.WrapError(err, "begin replace pages")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM book_pages WHERE book_id = $1`, bookID); err != nil {
		r.logger.Error("failed to delete prior pages", "book_id", bookID, "error", err)
		return common.WrapError(err, "delete prior pages")
	}

	now := time.Now().UTC()
	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"book_pages"},
		[]string{"book_id", "page_number", "content", "created_at"},
		pgx.CopyFromSlice(len(contents), func(i int) ([]any, error) {
			return []any{bookID, i + 1, contents[i], now}, nil
		}),
	)
	if err != nil {
		r.logger.Error("failed to bulk-insert pages", "book_id", bookID, "pages", len(contents), "error", err)
		return common.WrapError(err, "insert pages")
	}

	tag, err := tx.Exec(ctx,
		`UPDATE books SET processing_status = $2, total_pages = $3, updated_at = $4 WHERE id = $1`,
		bookID, string(constants.StatusCompleted), len(contents), now)
	if err != nil {
		return common.WrapError(err, "mark book completed")
	}
	if tag.RowsAffected() == 0 {
		return common.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return common.WrapError(err, "commit replace pages")
	}
	r.logger.Info("pages replaced", "book_id", bookID, "total_pages", len(contents))
	return nil
}

func (r *postgresBookRepo) GetPage(ctx context.Context, bookID uuid.UUID, pageNumber int) (*entity.Page, error) {
	p := entity.Page{BookID: bookID, PageNumber: pageNumber}
	err := r.pool.QueryRow(ctx,
		`SELECT content FROM book_pages WHERE book_id = $1 AND page_number = $2`,
		bookID, pageNumber).Scan(&p.Content)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get page", "book_id", bookID, "page_number", pageNumber, "error", err)
		return nil, common.WrapError(err, "get page")
	}
	return &p, nil
}

func (r *postgresBookRepo) CountPages(ctx context.Context, bookID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM book_pages WHERE book_id = $1`, bookID).Scan(&n)
	if err != nil {
		return 0, common.WrapError(err, "count pages")
	}
	return n, nil
}
