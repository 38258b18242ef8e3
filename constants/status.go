package constants

// ProcessingStatus is the canonical pipeline status for rows in books.
type ProcessingStatus string

// Stable values (store these exact strings in DB).
const (
	StatusPending    ProcessingStatus = "pending"    // created, no job delivered yet
	StatusProcessing ProcessingStatus = "processing" // a worker owns the book right now
	StatusCompleted  ProcessingStatus = "completed"  // pages persisted, total_pages authoritative
	StatusFailed     ProcessingStatus = "failed"     // last attempt failed; re-ingestion allowed
)

// statusMessages are the fixed user-facing strings returned by the status
// projection. Raw error detail never crosses this boundary.
var statusMessages = map[ProcessingStatus]string{
	StatusPending:    "Queued for processing...",
	StatusProcessing: "Extracting text and creating pages...",
	StatusCompleted:  "Book is ready to read!",
	StatusFailed:     "Processing failed. Please contact support.",
}

// Message returns the user-facing message for a status. Every valid status
// maps to exactly one non-empty string.
func (s ProcessingStatus) Message() string {
	return statusMessages[s]
}

// Valid reports whether s is one of the four known statuses.
func (s ProcessingStatus) Valid() bool {
	_, ok := statusMessages[s]
	return ok
}

// All returns the known statuses in lifecycle order.
func All() []ProcessingStatus {
	return []ProcessingStatus{StatusPending, StatusProcessing, StatusCompleted, StatusFailed}
}
