package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/pagemill/pagemill/constants"
)

// Book represents a catalog book for data transfer between layers. The
// pipeline only ever touches ProcessingStatus and TotalPages; the remaining
// fields belong to the catalog.
type Book struct {
	ID               uuid.UUID                  `json:"id"`
	Title            string                     `json:"title"`
	AuthorName       string                     `json:"author_name"`
	Description      string                     `json:"description,omitempty"`
	FilePath         string                     `json:"file_path,omitempty"`
	FileFormat       string                     `json:"file_format,omitempty"`
	FileSize         int                        `json:"file_size,omitempty"`
	ProcessingStatus constants.ProcessingStatus `json:"processing_status"`
	TotalPages       int                        `json:"total_pages"`
	CreatedAt        time.Time                  `json:"created_at"`
	UpdatedAt        time.Time                  `json:"updated_at"`
}

// Page is one bounded slice of a book's extracted text. Identity is
// (BookID, PageNumber); numbers are contiguous from 1.
type Page struct {
	BookID     uuid.UUID `json:"book_id"`
	PageNumber int       `json:"page_number"`
	Content    string    `json:"content"`
}

// BookStatus is the read-only status projection served to API consumers.
type BookStatus struct {
	ID         uuid.UUID                  `json:"id"`
	Title      string                     `json:"title"`
	Status     constants.ProcessingStatus `json:"status"`
	TotalPages int                        `json:"totalPages"`
	Message    string                     `json:"message"`
}

// PageView is one page plus navigation hints derived from total_pages.
type PageView struct {
	BookID      uuid.UUID `json:"book_id"`
	PageNumber  int       `json:"page_number"`
	Content     string    `json:"content"`
	TotalPages  int       `json:"total_pages"`
	HasNext     bool      `json:"hasNext"`
	HasPrevious bool      `json:"hasPrevious"`
}
