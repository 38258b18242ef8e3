package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/pagemill/pagemill/constants"
	"github.com/pagemill/pagemill/internal/common"
	"github.com/pagemill/pagemill/internal/entity"
	"github.com/pagemill/pagemill/internal/extract"
)

// fakeRepo records status transitions and page replacements in memory.
type fakeRepo struct {
	mu       sync.Mutex
	statuses map[uuid.UUID][]constants.ProcessingStatus
	pages    map[uuid.UUID][]string

	setStatusErr    error
	replacePagesErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		statuses: make(map[uuid.UUID][]constants.ProcessingStatus),
		pages:    make(map[uuid.UUID][]string),
	}
}

func (f *fakeRepo) CreateBook(ctx context.Context, book *entity.Book) error { return nil }

func (f *fakeRepo) GetBook(ctx context.Context, id uuid.UUID) (*entity.Book, error) {
	return nil, common.ErrNotFound
}

func (f *fakeRepo) SetStatus(ctx context.Context, id uuid.UUID, status constants.ProcessingStatus) error {
	if f.setStatusErr != nil {
		return f.setStatusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[id] = append(f.statuses[id], status)
	return nil
}

func (f *fakeRepo) ReplacePages(ctx context.Context, bookID uuid.UUID, contents []string) error {
	if f.replacePagesErr != nil {
		return f.replacePagesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[bookID] = contents
	f.statuses[bookID] = append(f.statuses[bookID], constants.StatusCompleted)
	return nil
}

func (f *fakeRepo) GetPage(ctx context.Context, bookID uuid.UUID, pageNumber int) (*entity.Page, error) {
	return nil, common.ErrNotFound
}

func (f *fakeRepo) CountPages(ctx context.Context, bookID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pages[bookID]), nil
}

func (f *fakeRepo) history(id uuid.UUID) []constants.ProcessingStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statuses[id]
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.txt")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func longText(words int) string {
	return strings.Repeat("lorem ipsum dolor sit amet consectetur adipiscing elit sed do ", words/10+1)
}

func TestProcessBookCompletes(t *testing.T) {
	repo := newFakeRepo()
	proc := NewProcessor(repo, extract.NewRegistry(100), 500, discardLogger())

	bookID := uuid.New()
	job := entity.IngestionJob{
		BookID:   bookID,
		FilePath: writeTempFile(t, longText(1200)),
		MIMEType: constants.MIMEPlainText,
	}
	if err := proc.ProcessBook(context.Background(), job); err != nil {
		t.Fatalf("ProcessBook: %v", err)
	}

	history := repo.history(bookID)
	want := []constants.ProcessingStatus{constants.StatusProcessing, constants.StatusCompleted}
	if len(history) != len(want) {
		t.Fatalf("status history = %v, want %v", history, want)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Errorf("status[%d] = %q, want %q", i, history[i], want[i])
		}
	}
	if len(repo.pages[bookID]) == 0 {
		t.Error("no pages persisted")
	}
}

func TestProcessBookMarksProcessingEvenAfterPriorFailure(t *testing.T) {
	repo := newFakeRepo()
	proc := NewProcessor(repo, extract.NewRegistry(100), 500, discardLogger())

	bookID := uuid.New()
	repo.statuses[bookID] = []constants.ProcessingStatus{constants.StatusFailed}

	job := entity.IngestionJob{
		BookID:   bookID,
		FilePath: writeTempFile(t, longText(600)),
		MIMEType: constants.MIMEPlainText,
	}
	if err := proc.ProcessBook(context.Background(), job); err != nil {
		t.Fatalf("ProcessBook: %v", err)
	}

	history := repo.history(bookID)
	if history[1] != constants.StatusProcessing {
		t.Errorf("retry did not overwrite failed with processing: %v", history)
	}
	if history[len(history)-1] != constants.StatusCompleted {
		t.Errorf("retry did not complete: %v", history)
	}
}

func TestProcessBookFailsOnMissingFile(t *testing.T) {
	repo := newFakeRepo()
	proc := NewProcessor(repo, extract.NewRegistry(100), 500, discardLogger())

	bookID := uuid.New()
	job := entity.IngestionJob{
		BookID:   bookID,
		FilePath: filepath.Join(t.TempDir(), "does-not-exist.txt"),
		MIMEType: constants.MIMEPlainText,
	}
	err := proc.ProcessBook(context.Background(), job)
	if err == nil {
		t.Fatal("expected error for missing file")
	}

	history := repo.history(bookID)
	if history[len(history)-1] != constants.StatusFailed {
		t.Errorf("final status = %v, want failed", history)
	}
}

func TestProcessBookFailsOnUnsupportedFormat(t *testing.T) {
	repo := newFakeRepo()
	proc := NewProcessor(repo, extract.NewRegistry(100), 500, discardLogger())

	bookID := uuid.New()
	job := entity.IngestionJob{
		BookID:   bookID,
		FilePath: writeTempFile(t, longText(600)),
		MIMEType: "image/png",
	}
	err := proc.ProcessBook(context.Background(), job)
	if !errors.Is(err, common.ErrUnsupportedFormat) {
		t.Fatalf("got %v, want ErrUnsupportedFormat", err)
	}

	history := repo.history(bookID)
	if history[len(history)-1] != constants.StatusFailed {
		t.Errorf("final status = %v, want failed", history)
	}
}

func TestProcessBookFailsOnShortText(t *testing.T) {
	repo := newFakeRepo()
	proc := NewProcessor(repo, extract.NewRegistry(100), 500, discardLogger())

	bookID := uuid.New()
	job := entity.IngestionJob{
		BookID:   bookID,
		FilePath: writeTempFile(t, "too short"),
		MIMEType: constants.MIMEPlainText,
	}
	err := proc.ProcessBook(context.Background(), job)
	if !errors.Is(err, common.ErrEmptyOrTooShort) {
		t.Fatalf("got %v, want ErrEmptyOrTooShort", err)
	}
	if got := repo.history(bookID); got[len(got)-1] != constants.StatusFailed {
		t.Errorf("final status = %v, want failed", got)
	}
	if len(repo.pages[bookID]) != 0 {
		t.Error("pages persisted for failed job")
	}
}

func TestProcessBookFailsOnStorageError(t *testing.T) {
	repo := newFakeRepo()
	repo.replacePagesErr = errors.New("connection refused")
	proc := NewProcessor(repo, extract.NewRegistry(100), 500, discardLogger())

	bookID := uuid.New()
	job := entity.IngestionJob{
		BookID:   bookID,
		FilePath: writeTempFile(t, longText(600)),
		MIMEType: constants.MIMEPlainText,
	}
	err := proc.ProcessBook(context.Background(), job)
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("got %v, want ErrStorage", err)
	}
}

func TestProcessBookSerializesSameBook(t *testing.T) {
	repo := newFakeRepo()
	proc := NewProcessor(repo, extract.NewRegistry(100), 500, discardLogger())

	bookID := uuid.New()
	path := writeTempFile(t, longText(600))
	job := entity.IngestionJob{BookID: bookID, FilePath: path, MIMEType: constants.MIMEPlainText}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := proc.ProcessBook(context.Background(), job); err != nil {
				t.Errorf("ProcessBook: %v", err)
			}
		}()
	}
	wg.Wait()

	// Serialized runs always pair processing with a terminal write, so the
	// history ends completed and counts are balanced.
	history := repo.history(bookID)
	if history[len(history)-1] != constants.StatusCompleted {
		t.Errorf("final status = %v, want completed", history)
	}
	if len(history) != 16 {
		t.Errorf("status writes = %d, want 16", len(history))
	}
}

func TestBookLocksReleasedAfterProcessing(t *testing.T) {
	repo := newFakeRepo()
	proc := NewProcessor(repo, extract.NewRegistry(100), 500, discardLogger())

	path := writeTempFile(t, longText(600))
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		job := entity.IngestionJob{BookID: uuid.New(), FilePath: path, MIMEType: constants.MIMEPlainText}
		for j := 0; j < 3; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := proc.ProcessBook(context.Background(), job); err != nil {
					t.Errorf("ProcessBook: %v", err)
				}
			}()
		}
	}
	wg.Wait()

	proc.mu.Lock()
	defer proc.mu.Unlock()
	if n := len(proc.locks); n != 0 {
		t.Errorf("lock table holds %d entries after all jobs finished, want 0", n)
	}
}
