package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported document format. Extractor selection
// switches on this enum so adding a format is a compile-time concern, not
// a string lookup.
type Format int

const (
	FormatUnknown Format = iota
	FormatPDF
	FormatDOCX
	FormatEML
	FormatHTML
)

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatEML:
		return "eml"
	case FormatHTML:
		return "html"
	default:
		return "unknown"
	}
}

// ErrUnsupportedFormat is returned for extensions no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ExtractionError wraps a parse failure with the file it came from, so the
// caller can return a precise user-facing error.
type ExtractionError struct {
	Path string
	Err  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.Path, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// FormatForPath maps a file extension to its Format.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return FormatPDF
	case ".docx":
		return FormatDOCX
	case ".eml":
		return FormatEML
	case ".html", ".htm":
		return FormatHTML
	default:
		return FormatUnknown
	}
}

// Extract reads the file and returns its plain text, choosing the
// extractor from the file extension.
func Extract(path string) (string, error) {
	switch FormatForPath(path) {
	case FormatPDF:
		return extractPDF(path)
	case FormatDOCX:
		return extractDOCX(path)
	case FormatEML:
		return extractEML(path)
	case FormatHTML:
		return extractHTML(path)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}
