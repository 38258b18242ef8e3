// Package chunker turns a normalized text blob into an ordered sequence of
// page-sized chunks. Paragraph-aware: a page boundary may fall mid-sentence
// but never mid-paragraph.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultWordsPerPage is the target page budget when the caller passes no
// explicit value. A size-bounding heuristic, not a semantic one.
const DefaultWordsPerPage = 500

var paragraphBoundary = regexp.MustCompile(`\n\n+`)

// Chunk splits text on blank-line boundaries into paragraphs and greedily
// accumulates them into pages of at most wordsPerPage words. A paragraph
// whose own word count exceeds the budget becomes its own single page; it is
// never split. Deterministic and pure; empty input yields zero chunks.
func Chunk(text string, wordsPerPage int) []string {
	if wordsPerPage <= 0 {
		wordsPerPage = DefaultWordsPerPage
	}

	paragraphs := paragraphBoundary.Split(text, -1)

	var (
		chunks    []string
		current   strings.Builder
		wordCount int
	)

	for _, paragraph := range paragraphs {
		words := CountWords(paragraph)
		if words == 0 {
			continue
		}

		if wordCount+words > wordsPerPage && wordCount > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
			current.WriteString(paragraph)
			wordCount = words
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
		wordCount += words
	}

	if tail := strings.TrimSpace(current.String()); tail != "" {
		chunks = append(chunks, tail)
	}

	return chunks
}

// CountWords counts whitespace-delimited tokens, discarding empty ones.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
