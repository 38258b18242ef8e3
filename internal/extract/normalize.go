package extract

import (
	"regexp"
	"strings"
)

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	// runs of 2+ whitespace characters that are not newlines
	multiSpace = regexp.MustCompile(`[^\S\n]{2,}`)
)

// Normalize canonicalizes extracted text before chunking: CRLF becomes LF,
// runs of 3+ newlines collapse to exactly 2 (one paragraph boundary), runs of
// 2+ non-newline whitespace collapse to a single space, and the result is
// trimmed. Applied to the output of every extraction strategy.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = multiNewline.ReplaceAllString(text, "\n\n")
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
