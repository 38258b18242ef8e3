package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor pulls the text runs of every page in page order. Pure Go, no
// CGO. No layout reconstruction: runs come back in the decoder's native
// reading order, so columns and tables are not detected.
type PDFExtractor struct{}

func (e *PDFExtractor) ExtractText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("empty PDF content")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var text strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("decode page %d: %w", i, err)
		}
		pageText = strings.TrimSpace(pageText)
		if pageText == "" {
			continue
		}

		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(pageText)
	}

	return text.String(), nil
}
