// Package algorithm holds the clustering algorithms and the registry the
// clustering engine selects them from.
package algorithm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/hyperjump/matome/internal/models"
)

// OtherTopicsLabel labels the group of documents no cluster claimed.
const OtherTopicsLabel = "Other Topics"

// Algorithm clusters documents. Implementations must not modify docs.
type Algorithm interface {
	ID() string
	// Defaults returns the attribute values used when a request omits them.
	Defaults() map[string]any
	Cluster(ctx context.Context, docs []*models.ClusteringDocument, queryHint string, attrs map[string]any) ([]*models.Cluster, error)
}

// Error is a failure inside an algorithm, typically a bad attribute.
type Error struct {
	Algorithm string
	Attribute string
	Err       error
}

func (e *Error) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("%s: attribute %s: %v", e.Algorithm, e.Attribute, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Algorithm, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// intAttr reads an integer attribute. JSON numbers arrive as float64 and
// GET parameters as strings; both are accepted.
func intAttr(alg string, attrs map[string]any, key string, def int) (int, error) {
	v, ok := attrs[key]
	if !ok || v == nil {
		return def, nil
	}
	var n int
	switch x := v.(type) {
	case int:
		n = x
	case int32:
		n = int(x)
	case int64:
		n = int(x)
	case float64:
		if x != float64(int(x)) {
			return 0, &Error{Algorithm: alg, Attribute: key, Err: fmt.Errorf("expected an integer, got %v", x)}
		}
		n = int(x)
	case float32:
		n = int(x)
	case string:
		parsed, err := strconv.Atoi(x)
		if err != nil {
			return 0, &Error{Algorithm: alg, Attribute: key, Err: fmt.Errorf("expected an integer, got %q", x)}
		}
		n = parsed
	default:
		return 0, &Error{Algorithm: alg, Attribute: key, Err: fmt.Errorf("expected an integer, got %T", v)}
	}
	return n, nil
}

// positiveIntAttr is intAttr rejecting values below one.
func positiveIntAttr(alg string, attrs map[string]any, key string, def int) (int, error) {
	n, err := intAttr(alg, attrs, key, def)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, &Error{Algorithm: alg, Attribute: key, Err: fmt.Errorf("must be positive, got %d", n)}
	}
	return n, nil
}

// seedsAttr returns the seed tree stored under models.AttrClusters.
func seedsAttr(attrs map[string]any) []*models.ClusterSeed {
	seeds, _ := attrs[models.AttrClusters].([]*models.ClusterSeed)
	return seeds
}

// otherTopics returns the catch-all cluster for docs not in assigned, or
// nil when every document was assigned.
func otherTopics(docs []*models.ClusteringDocument, assigned map[*models.ClusteringDocument]bool) *models.Cluster {
	var rest []*models.ClusteringDocument
	for _, d := range docs {
		if !assigned[d] {
			rest = append(rest, d)
		}
	}
	if len(rest) == 0 {
		return nil
	}
	return &models.Cluster{
		Label:       OtherTopicsLabel,
		Phrases:     []string{OtherTopicsLabel},
		OtherTopics: true,
		Documents:   rest,
	}
}

func markAssigned(assigned map[*models.ClusteringDocument]bool, clusters []*models.Cluster) {
	for _, c := range clusters {
		for _, d := range c.Documents {
			assigned[d] = true
		}
		markAssigned(assigned, c.Subclusters)
	}
}

// assignIDs numbers the tree in depth-first pre-order starting at zero.
func assignIDs(clusters []*models.Cluster) {
	next := 0
	var walk func([]*models.Cluster)
	walk = func(cs []*models.Cluster) {
		for _, c := range cs {
			c.ID = next
			next++
			walk(c.Subclusters)
		}
	}
	walk(clusters)
}
