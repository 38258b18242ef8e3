package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/pagemill/pagemill/constants"
	"github.com/pagemill/pagemill/internal/common"
)

func TestExtractUnsupportedFormat(t *testing.T) {
	r := NewRegistry(100)
	for _, mime := range []string{"image/png", "application/json", "", "text/html"} {
		_, err := r.Extract([]byte("whatever"), mime)
		if !errors.Is(err, common.ErrUnsupportedFormat) {
			t.Errorf("mime %q: got %v, want ErrUnsupportedFormat", mime, err)
		}
	}
}

func TestExtractPlainText(t *testing.T) {
	body := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 5)
	r := NewRegistry(100)

	text, err := r.Extract([]byte(body), constants.MIMEPlainText)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != strings.TrimSpace(Normalize(body)) {
		t.Errorf("plain text not returned verbatim (normalized): %q", text)
	}
}

func TestExtractPlainTextInvalidUTF8(t *testing.T) {
	r := NewRegistry(10)
	_, err := r.Extract([]byte{0xff, 0xfe, 0x00, 0x41}, constants.MIMEPlainText)
	if !errors.Is(err, common.ErrCorruptInput) {
		t.Errorf("got %v, want ErrCorruptInput", err)
	}
}

func TestExtractTooShort(t *testing.T) {
	r := NewRegistry(100)
	_, err := r.Extract([]byte("barely anything here"), constants.MIMEPlainText)
	if !errors.Is(err, common.ErrEmptyOrTooShort) {
		t.Errorf("got %v, want ErrEmptyOrTooShort", err)
	}
}

func TestExtractCorruptPDF(t *testing.T) {
	r := NewRegistry(100)
	_, err := r.Extract([]byte("definitely not a pdf"), constants.MIMEPDF)
	if !errors.Is(err, common.ErrCorruptInput) {
		t.Errorf("got %v, want ErrCorruptInput", err)
	}
	// The decoder cause must survive wrapping for diagnostics.
	if err != nil && !strings.Contains(err.Error(), "pdf") {
		t.Errorf("cause missing from error: %v", err)
	}
}

func TestExtractCorruptEPUB(t *testing.T) {
	r := NewRegistry(100)
	_, err := r.Extract([]byte("not a zip archive at all"), constants.MIMEEPUB)
	if !errors.Is(err, common.ErrCorruptInput) {
		t.Errorf("got %v, want ErrCorruptInput", err)
	}
}

func TestExtractCorruptDOCX(t *testing.T) {
	r := NewRegistry(100)
	_, err := r.Extract([]byte{0x00, 0x01, 0x02}, constants.MIMEDOCX)
	if !errors.Is(err, common.ErrCorruptInput) {
		t.Errorf("got %v, want ErrCorruptInput", err)
	}
}

// fixedExtractor lets dispatch be tested without a real decoder.
type fixedExtractor struct {
	text string
	err  error
}

func (f *fixedExtractor) ExtractText([]byte) (string, error) { return f.text, f.err }

func TestExtractNormalizesStrategyOutput(t *testing.T) {
	raw := "First   paragraph\r\n\r\n\r\n\r\nSecond paragraph " + strings.Repeat("pad ", 40)
	r := NewRegistry(50)
	r.Register("application/x-test", &fixedExtractor{text: raw})

	text, err := r.Extract(nil, "application/x-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(text, "\r") || strings.Contains(text, "\n\n\n") || strings.Contains(text, "   ") {
		t.Errorf("output not normalized: %q", text)
	}
}

func TestExtractStrategyErrorIsCorruptInput(t *testing.T) {
	cause := errors.New("bad xref table")
	r := NewRegistry(10)
	r.Register("application/x-test", &fixedExtractor{err: cause})

	_, err := r.Extract(nil, "application/x-test")
	if !errors.Is(err, common.ErrCorruptInput) {
		t.Errorf("got %v, want ErrCorruptInput", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("underlying cause lost: %v", err)
	}
}
