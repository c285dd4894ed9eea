// Package fileid derives document IDs for local files. Pages fetched by URL are keyed
// by the URL itself; files are keyed by a hash of their path so the ID stays opaque
// and fixed-length.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

const prefix = "file:"

// FileDocID returns the document ID for absolutePath. The path is cleaned first,
// so "/a/b/" and "/a/./b" map to the same ID.
func FileDocID(absolutePath string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(absolutePath)))
	return prefix + hex.EncodeToString(hash[:])
}

// IsFileDocID reports whether id was produced by FileDocID. Such IDs are reserved for
// files indexed from disk.
func IsFileDocID(id string) bool {
	return strings.HasPrefix(id, prefix)
}
