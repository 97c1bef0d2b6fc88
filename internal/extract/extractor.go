// Package extract turns raw document bytes into plain text.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ExtractionError reports that a document could not be turned into text. It is
// fatal to the job that owns the document.
type ExtractionError struct {
	Format string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("failed to extract document: %v", e.Err)
	}
	return fmt.Sprintf("failed to extract %s document: %v", strings.TrimPrefix(e.Format, "."), e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// ErrUnsupportedFormat is wrapped by ExtractionError when no extractor handles the format.
var ErrUnsupportedFormat = fmt.Errorf("unsupported document format")

// SupportedFormats lists the extensions ExtractBytes accepts.
var SupportedFormats = []string{".pdf", ".docx", ".doc", ".odt", ".rtf", ".xlsx", ".pptx", ".odp", ".ods", ".txt", ".md", ".rst"}

// Extractor extracts plain text from document bytes.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and extracts text using its extension.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", &ExtractionError{Format: filepath.Ext(path), Err: fmt.Errorf("read file: %w", err)}
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content. format is a file extension with or
// without the leading dot; when empty the format is sniffed from content.
// Failures are returned as *ExtractionError.
func (e *Extractor) ExtractBytes(content []byte, format string) (string, error) {
	format = NormalizeFormat(format)
	if format == "" {
		format = DetectFormat(content)
	}
	var (
		text string
		err  error
	)
	switch format {
	case ".pdf":
		text, err = extractPDF(content)
	case ".docx":
		text, err = extractDOCX(content)
	case ".odt", ".rtf":
		text, err = extractWithCat(content)
	case ".xlsx":
		text, err = extractExcel(content)
	case ".pptx":
		text, err = extractPPTX(content)
	case ".odp", ".ods":
		text, err = extractOpenDocument(content)
	case ".txt", ".md", ".rst":
		text, err = extractPlain(content)
	default:
		err = ErrUnsupportedFormat
	}
	if err != nil {
		return "", &ExtractionError{Format: format, Err: err}
	}
	return text, nil
}

// NormalizeFormat lowercases format, adds the leading dot and maps aliases
// (.doc is read as .docx, .markdown as .md, .text as .txt).
func NormalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return ""
	}
	if !strings.HasPrefix(format, ".") {
		format = "." + format
	}
	switch format {
	case ".doc":
		return ".docx"
	case ".markdown":
		return ".md"
	case ".text":
		return ".txt"
	}
	return format
}

// IsSupported reports whether format (an extension) can be extracted.
func IsSupported(format string) bool {
	format = NormalizeFormat(format)
	for _, f := range SupportedFormats {
		if f == format {
			return true
		}
	}
	return false
}

// DetectFormat sniffs content and returns the matching extension, or the
// detected extension as-is when no extractor handles it.
func DetectFormat(content []byte) string {
	mt := mimetype.Detect(content)
	if mt.Is("text/plain") {
		return ".txt"
	}
	return NormalizeFormat(mt.Extension())
}
