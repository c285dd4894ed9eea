package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

const (
	docxDefaultBodyPath = "word/document.xml"
	contentTypesPath    = "[Content_Types].xml"
)

var (
	// wtTag matches <w:t>text</w:t> with any attributes.
	wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)
	// overrideTag matches one Override element of [Content_Types].xml.
	overrideTag = regexp.MustCompile(`<Override[^>]*/?>`)
	partNameAttr = regexp.MustCompile(`PartName="([^"]+)"`)
)

const docxMainContentType = `ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"`

// extractDOCX returns the text of all <w:t> runs in the main document part.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	bodyPath := docxDefaultBodyPath
	if types, err := readZipEntry(zr, contentTypesPath); err == nil {
		if p := mainPartName(types); p != "" {
			bodyPath = p
		}
	}
	body, err := readZipEntry(zr, bodyPath)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	runs := wtTag.FindAllSubmatch(body, -1)
	parts := make([]string, 0, len(runs))
	for _, r := range runs {
		if s := strings.TrimSpace(html.UnescapeString(string(r[1]))); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " "), nil
}

// mainPartName returns the main document part declared in [Content_Types].xml, without
// the leading slash. The PartName and ContentType attributes may appear in either order.
func mainPartName(types []byte) string {
	for _, tag := range overrideTag.FindAll(types, -1) {
		if !bytes.Contains(tag, []byte(docxMainContentType)) {
			continue
		}
		if m := partNameAttr.FindSubmatch(tag); m != nil {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return ""
}

func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}
