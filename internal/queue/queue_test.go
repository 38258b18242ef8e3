package queue

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/entity"
)

func TestJobPayloadRoundTrip(t *testing.T) {
	job := entity.IngestionJob{
		BookID:   uuid.New(),
		FilePath: "/var/uploads/book.epub",
		MIMEType: "application/epub+zip",
	}

	payload, err := MarshalJob(job)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got, err := UnmarshalJob(payload)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got != job {
		t.Errorf("round trip changed job: %+v vs %+v", got, job)
	}
}

func TestMarshalJobRejectsBlankFields(t *testing.T) {
	cases := []struct {
		name string
		job  entity.IngestionJob
	}{
		{"missing file path", entity.IngestionJob{BookID: uuid.New(), MIMEType: "text/plain"}},
		{"missing mime type", entity.IngestionJob{BookID: uuid.New(), FilePath: "/tmp/f"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := MarshalJob(tc.job); !errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestUnmarshalJobRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "garbage{{"},
		{"missing fields", `{"book_id":"0b280a62-0d14-4661-8149-6ad9a9b34e11"}`},
		{"extra fields", `{"book_id":"0b280a62-0d14-4661-8149-6ad9a9b34e11","file_path":"/f","mime_type":"text/plain","shell":"rm -rf"}`},
		{"short book id", `{"book_id":"abc","file_path":"/f","mime_type":"text/plain"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := UnmarshalJob([]byte(tc.payload)); !errors.Is(err, common.ErrInvalidInput) {
				t.Errorf("got %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestClientConfigAttemptCeiling(t *testing.T) {
	var cfg ClientConfig
	cfg.defaults()
	if cfg.MaxAttempts != 3 {
		t.Errorf("default MaxAttempts = %d, want 3", cfg.MaxAttempts)
	}
	if cfg.JobTimeout != 10*time.Minute {
		t.Errorf("default JobTimeout = %v, want 10m", cfg.JobTimeout)
	}
	if cfg.CompletedRetention != 24*time.Hour {
		t.Errorf("default CompletedRetention = %v, want 24h", cfg.CompletedRetention)
	}

	// The first delivery counts as attempt 1, so n attempts map to n-1
	// broker-side retries.
	cases := []struct {
		attempts  int
		wantRetry int
	}{
		{3, 2},
		{1, 0},
		{5, 4},
	}
	for _, tc := range cases {
		cfg := ClientConfig{MaxAttempts: tc.attempts}
		cfg.defaults()
		if got := cfg.maxRetry(); got != tc.wantRetry {
			t.Errorf("maxRetry(attempts=%d) = %d, want %d", tc.attempts, got, tc.wantRetry)
		}
	}
}

func TestRetryDelayDoubles(t *testing.T) {
	base := 2 * time.Second
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, w := range want {
		if got := RetryDelay(base, i+1); got != w {
			t.Errorf("RetryDelay(base, %d) = %v, want %v", i+1, got, w)
		}
	}
	// Attempt numbers below 1 clamp to the base delay.
	if got := RetryDelay(base, 0); got != base {
		t.Errorf("RetryDelay(base, 0) = %v, want %v", got, base)
	}
}
