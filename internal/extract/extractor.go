// Package extract turns corpus files into plain text for indexing.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lu4p/cat"
)

// Func extracts plain text from the raw bytes of one file format.
type Func func(content []byte) (string, error)

// Extractor dispatches on the file extension. Unknown extensions are read
// as plain text.
type Extractor struct {
	byExt map[string]Func
}

// NewExtractor returns an extractor for the built-in formats.
func NewExtractor() *Extractor {
	e := &Extractor{byExt: make(map[string]Func)}
	for _, ext := range []string{".txt", ".md", ".rst"} {
		e.Register(ext, plainText)
	}
	e.Register(".pdf", pdfText)
	e.Register(".xlsx", excelText)
	e.Register(".docx", docx.extract)
	e.Register(".pptx", pptx.extract)
	e.Register(".odp", odf.extract)
	e.Register(".ods", odf.extract)
	// lu4p/cat sniffs the format from the content.
	e.Register(".odt", cat.FromBytes)
	e.Register(".rtf", cat.FromBytes)
	return e
}

// Register sets the extraction function for ext, with or without the dot.
func (e *Extractor) Register(ext string, fn Func) {
	e.byExt[normalizeExt(ext)] = fn
}

// Supports reports whether ext has a registered extraction function.
func (e *Extractor) Supports(ext string) bool {
	_, ok := e.byExt[normalizeExt(ext)]
	return ok
}

// Extensions returns the registered extensions, sorted.
func (e *Extractor) Extensions() []string {
	exts := make([]string, 0, len(e.byExt))
	for ext := range e.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract reads the file at path and returns its text.
func (e *Extractor) Extract(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(content, filepath.Ext(path))
}

// ExtractBytes extracts text from content of the given extension.
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	fn, ok := e.byExt[normalizeExt(ext)]
	if !ok {
		fn = plainText
	}
	text, err := fn(content)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", normalizeExt(ext), err)
	}
	return text, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
