package fileid

import (
	"strings"
	"testing"
)

func TestFileDocID(t *testing.T) {
	tests := []struct {
		name  string
		a, b  string
		equal bool
	}{
		{"same path", "/wiki/java.html", "/wiki/java.html", true},
		{"different paths", "/wiki/java.html", "/wiki/python.html", false},
		{"trailing slash", "/wiki/notes", "/wiki/notes/", true},
		{"dot segment", "/wiki/notes", "/wiki/./notes", true},
		{"parent segment", "/wiki/notes", "/wiki/drafts/../notes", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FileDocID(tt.a) == FileDocID(tt.b); got != tt.equal {
				t.Errorf("FileDocID(%q) == FileDocID(%q) is %v, want %v", tt.a, tt.b, got, tt.equal)
			}
		})
	}
}

func TestFileDocID_format(t *testing.T) {
	id := FileDocID("/wiki/java.html")
	if !strings.HasPrefix(id, prefix) {
		t.Errorf("ID %q lacks prefix %q", id, prefix)
	}
	// sha256 hex
	if len(id) != len(prefix)+64 {
		t.Errorf("len(%q) = %d, want %d", id, len(id), len(prefix)+64)
	}
}

func TestIsFileDocID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{FileDocID("/wiki/java.html"), true},
		{"https://en.wikipedia.org/wiki/Java", false},
		{"3f2a9c1e-0000-4000-8000-000000000000", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsFileDocID(tt.id); got != tt.want {
			t.Errorf("IsFileDocID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
