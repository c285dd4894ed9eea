package e2e

import (
	"archive/zip"
	"bytes"
	"html"

	"github.com/xuri/excelize/v2"
)

// SupportedFileExtensions are the file types the file-based tests write. PDF, ODT and
// RTF extraction are covered by the extract package tests.
var SupportedFileExtensions = []string{".txt", ".md", ".rst", ".html", ".docx", ".xlsx", ".pptx", ".ods", ".odp"}

// WriteMinimalFile returns the bytes of a minimal file of type ext whose extracted
// text is text. title is used where the format carries one (HTML).
func WriteMinimalFile(ext, title, text string) ([]byte, error) {
	switch ext {
	case ".html":
		return minimalWikiPage(title, text), nil
	case ".docx":
		return minimalDocx(text)
	case ".xlsx":
		return minimalXlsx(text)
	case ".pptx":
		return zipFile("ppt/slides/slide1.xml", `<p:sld><p:cSld><p:spTree><p:sp><p:txBody><a:p><a:r><a:t>`+
			html.EscapeString(text)+`</a:t></a:r></a:p></p:txBody></p:sp></p:spTree></p:cSld></p:sld>`)
	case ".ods":
		return zipFile("content.xml", `<office:document-content><office:body><office:spreadsheet><table:table>`+
			`<table:table-row><table:table-cell><text:p>`+html.EscapeString(text)+`</text:p></table:table-cell></table:table-row>`+
			`</table:table></office:spreadsheet></office:body></office:document-content>`)
	case ".odp":
		return zipFile("content.xml", `<office:document-content><office:body><office:presentation><draw:page>`+
			`<draw:frame><draw:text-box><text:p>`+html.EscapeString(text)+`</text:p></draw:text-box></draw:frame>`+
			`</draw:page></office:presentation></office:body></office:document-content>`)
	default:
		return []byte(text), nil
	}
}

// minimalWikiPage mimics a MediaWiki article: navigation outside the content element
// must not be indexed.
func minimalWikiPage(title, text string) []byte {
	return []byte(`<!DOCTYPE html><html><head><title>` + html.EscapeString(title) + `</title></head><body>` +
		`<div id="mw-navigation">Main page Contents java java java</div>` +
		`<div id="mw-content-text"><p>` + html.EscapeString(text) + `</p></div>` +
		`<script>var java = 1;</script></body></html>`)
}

func minimalDocx(text string) ([]byte, error) {
	return zipFile("word/document.xml", `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>`+
		html.EscapeString(text)+`</w:t></w:r></w:p></w:body></w:document>`)
}

// zipFile returns a zip archive holding one entry.
func zipFile(name, body string) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, err := w.Create(name)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write([]byte(body)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func minimalXlsx(text string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetCellValue("Sheet1", "A1", text); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
