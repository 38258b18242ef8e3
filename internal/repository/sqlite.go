package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pagemill/pagemill/constants"
	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/entity"
)

// sqliteSchema mirrors db/schema.sql for the embedded store. Applied on open
// so single-node deployments and tests need no migration step.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS books (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	author_name       TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	file_path         TEXT NOT NULL DEFAULT '',
	file_format       TEXT NOT NULL DEFAULT '',
	file_size         INTEGER NOT NULL DEFAULT 0,
	processing_status TEXT NOT NULL DEFAULT 'pending',
	total_pages       INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMP NOT NULL,
	updated_at        TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS book_pages (
	book_id     TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	page_number INTEGER NOT NULL,
	content     TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (book_id, page_number)
);
`

type sqliteBookRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenSQLite opens (or creates) the embedded store at path. Use ":memory:"
// for an ephemeral store in tests.
func OpenSQLite(path string, logger *slog.Logger) (BookRepository, *sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		logger.Error("failed to open sqlite store", "path", path, "error", err)
		return nil, nil, err
	}
	// The embedded store serializes writes; a single connection avoids
	// table-lock errors under concurrent workers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		logger.Error("failed to apply sqlite schema", "error", err)
		return nil, nil, err
	}
	logger.Info("sqlite store ready", "path", path)
	return &sqliteBookRepo{db: db, logger: logger}, db, nil
}

func (r *sqliteBookRepo) CreateBook(ctx context.Context, book *entity.Book) error {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	if book.ProcessingStatus == "" {
		book.ProcessingStatus = constants.StatusPending
	}
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books
		   (id, title, author_name, description, file_path, file_format, file_size,
		    processing_status, total_pages, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		book.ID.String(), book.Title, book.AuthorName, book.Description, book.FilePath,
		book.FileFormat, book.FileSize, string(book.ProcessingStatus),
		book.TotalPages, book.CreatedAt, book.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("failed to create book", "book_id", book.ID, "error", err)
		return common.WrapError(err, "create book")
	}
	return nil
}

func (r *sqliteBookRepo) GetBook(ctx context.Context, id uuid.UUID) (*entity.Book, error) {
	var (
		b      entity.Book
		rawID  string
		status string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, title, author_name, description, file_path, file_format,
		        file_size, processing_status, total_pages, created_at, updated_at
		   FROM books WHERE id = ?`, id.String()).
		Scan(&rawID, &b.Title, &b.AuthorName, &b.Description, &b.FilePath,
			&b.FileFormat, &b.FileSize, &status, &b.TotalPages, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		r.logger.Error("failed to get book", "book_id", id, "error", err)
		return nil, common.WrapError(err, "get book")
	}
	b.ID, err = uuid.Parse(rawID)
	if err != nil {
		return nil, common.WrapError(err, "parse stored book id")
	}
	b.ProcessingStatus = constants.ProcessingStatus(status)
	return &b, nil
}

func (r *sqliteBookRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE books SET processing_status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), id.String())
	if err != nil {
		r.logger.Error("failed to set book status", "book_id", id, "status", status, "error", err)
		return common.WrapError(err, "set book status")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *sqliteBookRepo) ReplacePages(ctx context.Context, bookID uuid.UUID, contents []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin replace pages")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM book_pages WHERE book_id = ?`, bookID.String()); err != nil {
		r.logger.Error("failed to delete prior pages", "book_id", bookID, "error", err)
		return common.WrapError(err, "delete prior pages")
	}

	now := time.Now().UTC()
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO book_pages (book_id, page_number, content, created_at) VALUES (?,?,?,?)`)
	if err != nil {
		return common.WrapError(err, "prepare page insert")
	}
	defer stmt.Close()

	for i, content := range contents {
		if _, err := stmt.ExecContext(ctx, bookID.String(), i+1, content, now); err != nil {
			r.logger.Error("failed to insert page", "book_id", bookID, "page_number", i+1, "error", err)
			return common.WrapError(err, "insert page")
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE books SET processing_status = ?, total_pages = ?, updated_at = ? WHERE id = ?`,
		string(constants.StatusCompleted), len(contents), now, bookID.String())
	if err != nil {
		return common.WrapError(err, "mark book completed")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit replace pages")
	}
	r.logger.Info("pages replaced", "book_id", bookID, "total_pages", len(contents))
	return nil
}

func (r *sqliteBookRepo) GetPage(ctx context.Context, bookID uuid.UUID, pageNumber int) (*entity.Page, error) {
	p := entity.Page{BookID: bookID, PageNumber: pageNumber}
	err := r.db.QueryRowContext(ctx,
		`SELECT content FROM book_pages WHERE book_id = ? AND page_number = ?`,
		bookID.String(), pageNumber).Scan(&p.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, common.WrapError(err, "get page")
	}
	return &p, nil
}

func (r *sqliteBookRepo) CountPages(ctx context.Context, bookID uuid.UUID) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM book_pages WHERE book_id = ?`, bookID.String()).Scan(&n)
	if err != nil {
		return 0, common.WrapError(err, "count pages")
	}
	return n, nil
}
