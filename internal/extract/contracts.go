package extract

import (
	"fmt"
	"unicode/utf8"

	"github.com/pagemill/pagemill/constants"
	"github.com/pagemill/pagemill/internal/common"
)

// TextExtractor turns raw file bytes into a single text blob. Implementations
// are pure: no side effects, no I/O beyond the buffer argument.
type TextExtractor interface {
	ExtractText(data []byte) (string, error)
}

// Registry dispatches extraction by declared media type. Unknown types fail
// closed with ErrUnsupportedFormat; decode failures of a supported type are
// surfaced as ErrCorruptInput with the decoder cause attached.
type Registry struct {
	extractors    map[string]TextExtractor
	minTextLength int
}

// NewRegistry builds a registry with the four built-in strategies.
// minTextLength is the post-normalization floor below which extraction fails
// with ErrEmptyOrTooShort (guards against image-only PDFs and the like).
func NewRegistry(minTextLength int) *Registry {
	return &Registry{
		extractors: map[string]TextExtractor{
			constants.MIMEPDF:       &PDFExtractor{},
			constants.MIMEEPUB:      &EPUBExtractor{},
			constants.MIMEDOCX:      &DOCXExtractor{},
			constants.MIMEPlainText: &PlainTextExtractor{},
		},
		minTextLength: minTextLength,
	}
}

// Register adds or replaces the strategy for a media type.
func (r *Registry) Register(mimeType string, ex TextExtractor) {
	r.extractors[mimeType] = ex
}

// Extract dispatches on the declared media type, normalizes the result, and
// enforces the minimum-length guard.
func (r *Registry) Extract(data []byte, mimeType string) (string, error) {
	ex, ok := r.extractors[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: %s", common.ErrUnsupportedFormat, mimeType)
	}

	raw, err := ex.ExtractText(data)
	if err != nil {
		return "", common.CorruptInput(err)
	}

	text := Normalize(raw)
	if utf8.RuneCountInString(text) < r.minTextLength {
		return "", fmt.Errorf("%w: %d chars after normalization", common.ErrEmptyOrTooShort, utf8.RuneCountInString(text))
	}
	return text, nil
}
