// Package models defines the data structures shared by the search backend,
// the clustering pipeline and the wire codecs.
package models

import "time"

// Document is a stored corpus document. Source is the original JSON object
// returned as a hit's _source.
type Document struct {
	ID        string         `json:"_id" db:"id"`
	Source    map[string]any `json:"_source" db:"source"`
	File      *FileOrigin    `json:"-"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// FileOrigin records the corpus file a document was extracted from, so
// unchanged files can be skipped and removed files deleted.
type FileOrigin struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// DocumentInput is the input for creating or replacing a document.
type DocumentInput struct {
	ID     string         `json:"id,omitempty"`
	Source map[string]any `json:"source"`
}
