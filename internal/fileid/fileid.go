// Package fileid derives stable document ids for corpus files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	prefix    = "file-"
	separator = "#"
)

// ForPath returns the id shared by every passage of the file at path. Paths
// are cleaned first, so equivalent spellings map to the same id.
func ForPath(path string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(path)))
	return prefix + hex.EncodeToString(sum[:16])
}

// Passage returns the id of the n-th passage of the file at path.
func Passage(path string, n int) string {
	return ForPath(path) + separator + strconv.Itoa(n)
}

// ParsePassage splits a passage id into its file id and passage number.
func ParsePassage(id string) (file string, n int, ok bool) {
	if !strings.HasPrefix(id, prefix) {
		return "", 0, false
	}
	i := strings.LastIndex(id, separator)
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return id[:i], n, true
}
