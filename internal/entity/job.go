package entity

import (
	"time"

	"github.com/google/uuid"
)

// IngestionJob is the unit of work handed to the queue: run the pipeline
// once for one book and one saved file. The caller must have durably saved
// the file at FilePath before submission.
type IngestionJob struct {
	BookID   uuid.UUID `json:"book_id"`
	FilePath string    `json:"file_path"`
	MIMEType string    `json:"mime_type"`
}

// JobInfo is the queue-side view of a submitted job, for observability.
type JobInfo struct {
	TaskID     string    `json:"task_id"`
	BookID     uuid.UUID `json:"book_id"`
	Queue      string    `json:"queue"`
	MaxRetry   int       `json:"max_retry"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
