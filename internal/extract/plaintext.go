package extract

import (
	"fmt"
	"unicode/utf8"
)

// PlainTextExtractor decodes the bytes as UTF-8 text verbatim.
type PlainTextExtractor struct{}

func (e *PlainTextExtractor) ExtractText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("not valid UTF-8 text")
	}
	return string(data), nil
}
