package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// DOCXExtractor reads word/document.xml out of the OOXML archive and keeps
// the raw paragraph text, discarding all styling. No external dependency:
// the payload is just a zip of XML parts.
type DOCXExtractor struct{}

func (e *DOCXExtractor) ExtractText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", fmt.Errorf("word/document.xml missing from archive")
	}

	rc, err := doc.Open()
	if err != nil {
		return "", fmt.Errorf("open word/document.xml: %w", err)
	}
	defer rc.Close()

	return readDocumentXML(rc)
}

// readDocumentXML walks the token stream collecting the character data of
// w:t runs, emitting a paragraph boundary at the end of each w:p element.
func readDocumentXML(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var (
		text      strings.Builder
		paragraph strings.Builder
		inRun     bool
	)

	flush := func() {
		p := strings.TrimSpace(paragraph.String())
		paragraph.Reset()
		if p == "" {
			return
		}
		if text.Len() > 0 {
			text.WriteString("\n\n")
		}
		text.WriteString(p)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse word/document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inRun = true
			case "tab":
				paragraph.WriteByte(' ')
			case "br":
				paragraph.WriteByte(' ')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inRun = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inRun {
				paragraph.Write(t)
			}
		}
	}
	flush()

	return text.String(), nil
}
