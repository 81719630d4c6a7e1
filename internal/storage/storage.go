// Package storage persists the _source objects of indexed documents.
package storage

import (
	"context"

	"github.com/hyperjump/matome/internal/models"
)

// Storage defines document persistence operations.
type Storage interface {
	// PutDocument inserts doc or replaces the stored document with the same id.
	PutDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, offset, limit int) ([]*models.Document, error)

	// GetSources returns the _source of every stored id; missing ids are absent
	// from the map.
	GetSources(ctx context.Context, ids []string) (map[string]map[string]any, error)

	// DocumentsByPath returns the documents extracted from the file at path.
	DocumentsByPath(ctx context.Context, path string) ([]*models.Document, error)

	CountDocuments(ctx context.Context) (int64, error)

	Close() error
}
