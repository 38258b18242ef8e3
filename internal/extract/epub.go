package extract

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/simp-lee/epub"
)

// markupTag matches a single XHTML tag. Each tag is replaced with one space
// so that word characters on either side never fuse together.
var markupTag = regexp.MustCompile(`<[^>]*>`)

// EPUBExtractor visits the container's content documents in spine (reading)
// order, strips markup, and joins documents with a blank line.
type EPUBExtractor struct{}

func (e *EPUBExtractor) ExtractText(data []byte) (string, error) {
	book, err := epub.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open epub: %w", err)
	}
	defer book.Close()

	var text strings.Builder
	for i, ch := range book.Chapters() {
		raw, err := ch.RawContent()
		if err != nil {
			return "", fmt.Errorf("read spine item %d: %w", i, err)
		}
		chapterText := strings.TrimSpace(StripMarkup(string(raw)))
		if chapterText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(chapterText)
	}

	return text.String(), nil
}

// StripMarkup replaces every markup tag with a single space.
func StripMarkup(s string) string {
	return markupTag.ReplaceAllString(s, " ")
}
