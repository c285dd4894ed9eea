// Package extract provides text extraction from various document formats.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Content is the text extracted from a document. Title is set only for
// formats that carry one (HTML).
type Content struct {
	Title string
	Text  string
}

// Extractor extracts plain text from document files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and returns its text content.
// Returns an error if the file cannot be read or its format cannot be decoded.
func (e *Extractor) Extract(path string) (*Content, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf"). Unknown extensions are read as plain text.
func (e *Extractor) ExtractBytes(content []byte, ext string) (*Content, error) {
	var (
		text string
		err  error
	)
	switch ext {
	case ".html", ".htm":
		return extractHTML(content)
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
	case ".ods":
		text, err = extractOpenDocument(content, "ODS")
	case ".odp":
		text, err = extractOpenDocument(content, "ODP")
	default:
		text, err = extractPlain(content)
	}
	if err != nil {
		return nil, err
	}
	return &Content{Text: text}, nil
}
