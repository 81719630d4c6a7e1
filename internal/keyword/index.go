// Package keyword is the full-text index answering the delegate search of
// clustering requests.
package keyword

import (
	"context"

	"github.com/hyperjump/matome/internal/models"
)

// Index stores documents for full-text search.
type Index interface {
	Index(ctx context.Context, doc *models.Document) error
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error)
	Delete(ctx context.Context, id string) error
	// DocCount returns the number of indexed documents.
	DocCount() (uint64, error)
	Close() error
}

// TermDictionary exposes the indexed terms and their document frequencies.
type TermDictionary interface {
	Terms() (map[string]int, error)
}
