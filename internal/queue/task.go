// Package queue is the durable work-distribution layer for ingestion jobs:
// at-least-once delivery over Redis, a capped retry budget with exponential
// backoff, and bounded retention of finished jobs for inspection.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/entity"
)

// TypeBookProcess is the task type for one pipeline run.
const TypeBookProcess = "book:process"

// QueueName is the asynq queue ingestion jobs are routed to.
const QueueName = "book-processing"

// jobSchema validates task payloads at both ends of the queue; a payload
// that does not carry all three fields is rejected before any work happens.
const jobSchema = `{
	"type": "object",
	"required": ["book_id", "file_path", "mime_type"],
	"properties": {
		"book_id":   {"type": "string", "minLength": 36, "maxLength": 36},
		"file_path": {"type": "string", "minLength": 1},
		"mime_type": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

var compiledJobSchema = jsonschema.MustCompileString("ingestion_job.schema.json", jobSchema)

// MarshalJob encodes a job as a task payload, validating it first.
func MarshalJob(job entity.IngestionJob) ([]byte, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, common.WrapError(err, "marshal ingestion job")
	}
	if err := validatePayload(payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// UnmarshalJob decodes and validates a task payload.
func UnmarshalJob(payload []byte) (entity.IngestionJob, error) {
	if err := validatePayload(payload); err != nil {
		return entity.IngestionJob{}, err
	}
	var job entity.IngestionJob
	if err := json.Unmarshal(payload, &job); err != nil {
		return entity.IngestionJob{}, common.WrapError(err, "unmarshal ingestion job")
	}
	return job, nil
}

func validatePayload(payload []byte) error {
	var doc any
	if err := json.Unmarshal(payload, &doc); err != nil {
		return fmt.Errorf("%w: payload is not JSON: %w", common.ErrInvalidInput, err)
	}
	if err := compiledJobSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %w", common.ErrInvalidInput, err)
	}
	return nil
}
