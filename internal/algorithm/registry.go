package algorithm

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/matome/internal/embedding"
	"github.com/hyperjump/matome/internal/models"
)

// Registry keeps algorithms in registration order. The first registered
// algorithm is the default.
type Registry struct {
	mu    sync.RWMutex
	order []string
	byID  map[string]Algorithm
}

// NewRegistry returns a registry holding algs.
func NewRegistry(algs ...Algorithm) *Registry {
	r := &Registry{}
	r.Replace(algs...)
	return r
}

// Default returns a registry with the built-in algorithms: stc, kmeans and
// byurl. kmeans embeds documents with embedder.
func Default(embedder embedding.Embedder) *Registry {
	return NewRegistry(NewSTC(), NewKMeans(embedder), NewByURL())
}

// Builtin returns the built-in algorithm registered as id.
func Builtin(id string, embedder embedding.Embedder) (Algorithm, error) {
	switch id {
	case "stc":
		return NewSTC(), nil
	case "kmeans":
		return NewKMeans(embedder), nil
	case "byurl":
		return NewByURL(), nil
	default:
		return nil, fmt.Errorf("unknown built-in algorithm %q", id)
	}
}

// WithDefaults returns alg with defaults overlaid on its own defaults.
func WithDefaults(alg Algorithm, defaults map[string]any) Algorithm {
	if len(defaults) == 0 {
		return alg
	}
	return &configured{Algorithm: alg, defaults: defaults}
}

type configured struct {
	Algorithm
	defaults map[string]any
}

func (c *configured) Defaults() map[string]any {
	merged := make(map[string]any)
	for k, v := range c.Algorithm.Defaults() {
		merged[k] = v
	}
	for k, v := range c.defaults {
		merged[k] = v
	}
	return merged
}

// Replace swaps the registered algorithms. Requests already running keep
// the algorithm they resolved.
func (r *Registry) Replace(algs ...Algorithm) {
	order := make([]string, 0, len(algs))
	byID := make(map[string]Algorithm, len(algs))
	for _, a := range algs {
		if _, dup := byID[a.ID()]; dup {
			continue
		}
		order = append(order, a.ID())
		byID[a.ID()] = a
	}
	r.mu.Lock()
	r.order, r.byID = order, byID
	r.mu.Unlock()
}

// List returns the algorithm ids in registration order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[id]
	return ok
}

// DefaultID returns the first registered id.
func (r *Registry) DefaultID() (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return "", false
	}
	return r.order[0], true
}

// Get returns the algorithm registered as id.
func (r *Registry) Get(id string) (Algorithm, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byID[id]
	return a, ok
}

// Cluster runs algorithm id with its defaults overlaid by attrs and numbers
// the resulting tree.
func (r *Registry) Cluster(ctx context.Context, docs []*models.ClusteringDocument, queryHint, id string, attrs map[string]any) ([]*models.Cluster, error) {
	alg, ok := r.Get(id)
	if !ok {
		return nil, &models.UnknownAlgorithmError{ID: id}
	}
	merged := make(map[string]any)
	for k, v := range alg.Defaults() {
		merged[k] = v
	}
	for k, v := range attrs {
		merged[k] = v
	}
	clusters, err := alg.Cluster(ctx, docs, queryHint, merged)
	if err != nil {
		return nil, err
	}
	assignIDs(clusters)
	return clusters, nil
}
