package e2e

import (
	"strings"
	"testing"

	"github.com/hyperjump/wikisearch/internal/extract"
)

func TestWriteMinimalFile_AllExtensionsExtractable(t *testing.T) {
	e := extract.NewExtractor()
	samples := []string{"java compiler runtime", "Don't e-mail THE Java8 <team> & it's fine."}
	for _, ext := range SupportedFileExtensions {
		ext := ext
		t.Run(ext, func(t *testing.T) {
			for _, sample := range samples {
				content, err := WriteMinimalFile(ext, "Java", sample)
				if err != nil {
					t.Fatalf("WriteMinimalFile: %v", err)
				}
				if len(content) == 0 {
					t.Fatal("empty content")
				}
				got, err := e.ExtractBytes(content, ext)
				if err != nil {
					t.Fatalf("ExtractBytes: %v", err)
				}
				if strings.TrimSpace(got.Text) != sample {
					t.Errorf("extracted text %q, want %q", got.Text, sample)
				}
			}
		})
	}
}
