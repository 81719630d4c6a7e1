// Package embedding turns document text into fixed-size term vectors for
// the vector-space clustering algorithms.
package embedding

import "context"

// Embedder maps text to a vector of Dimensions() components. Vectors of
// the same embedder are comparable by inner product.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}
