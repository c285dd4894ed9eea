package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
)

const openDocumentContentPath = "content.xml"

var (
	// textBlock matches a text:p or text:h element with its inner markup. Paragraphs and
	// headings do not nest, so the lazy match ends at the element's own closing tag.
	textBlock = regexp.MustCompile(`(?s)<text:(?:p|h)(?:\s[^>]*[^/])?>(.*?)</text:(?:p|h)>`)
	// anyTag matches one XML tag. Inline elements such as text:span and text:s become spaces.
	anyTag = regexp.MustCompile(`<[^>]*>`)
)

// extractOpenDocument returns the paragraphs and headings of an OpenDocument spreadsheet
// (.ods) or presentation (.odp) in document order. format names the file type in errors.
func extractOpenDocument(content []byte, format string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract %s: not a zip: %w", format, err)
	}
	body, err := readZipEntry(zr, openDocumentContentPath)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", format, err)
	}
	var parts []string
	for _, m := range textBlock.FindAllSubmatch(body, -1) {
		text := html.UnescapeString(anyTag.ReplaceAllString(string(m[1]), " "))
		if t := strings.Join(strings.Fields(text), " "); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " "), nil
}
