package constants

// Declared media types with an extraction strategy. Dispatch is by these
// exact strings; anything else fails closed as unsupported.
const (
	MIMEPDF       = "application/pdf"
	MIMEEPUB      = "application/epub+zip"
	MIMEDOCX      = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MIMEPlainText = "text/plain"
)

// mimeToFormat maps declared media types to the short format labels stored
// in books.file_format.
var mimeToFormat = map[string]string{
	MIMEPDF:       "PDF",
	MIMEEPUB:      "EPUB",
	MIMEDOCX:      "DOCX",
	MIMEPlainText: "TXT",
}

// MapMIMEToFormat returns the short format label for a declared media type,
// or "" when the type has no extraction strategy.
func MapMIMEToFormat(mime string) string {
	return mimeToFormat[mime]
}

// MapFormatToMIME is the inverse lookup, used when re-enqueueing a stored
// book whose row only carries the short format label.
func MapFormatToMIME(format string) string {
	for mime, f := range mimeToFormat {
		if f == format {
			return mime
		}
	}
	return ""
}
