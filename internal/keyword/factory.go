package keyword

import "fmt"

// Supported term index backends.
const (
	BackendBleve  = "bleve"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// NewTermIndex creates a term index of the given backend at path.
// An empty backend selects Bleve. path is ignored for the memory backend.
func NewTermIndex(backend, path string) (TermIndex, error) {
	switch backend {
	case BackendBleve, "":
		return NewBleveIndex(path)
	case BackendSQLite:
		return NewSQLiteIndex(path)
	case BackendMemory:
		return NewMemoryIndex(), nil
	default:
		return nil, fmt.Errorf("unknown index backend: %q (supported: bleve, sqlite, memory)", backend)
	}
}
