package clustering

import "github.com/hyperjump/matome/internal/models"

// ParseClusters converts a JSON-decoded seed tree into seeds. Nodes that are
// not objects yield an empty seed; a missing or non-string label yields a
// nil label. Children are read from "subclusters", or from "clusters" when
// "subclusters" is absent. Depth is not limited here.
func ParseClusters(nodes []any) []*models.ClusterSeed {
	seeds := make([]*models.ClusterSeed, 0, len(nodes))
	for _, node := range nodes {
		seeds = append(seeds, parseSeed(node))
	}
	return seeds
}

func parseSeed(node any) *models.ClusterSeed {
	seed := &models.ClusterSeed{}
	m, ok := node.(map[string]any)
	if !ok {
		return seed
	}
	if label, ok := m["label"].(string); ok {
		seed.Label = &label
	}
	children, ok := m["subclusters"]
	if !ok {
		children = m["clusters"]
	}
	if list, ok := children.([]any); ok {
		seed.Subclusters = ParseClusters(list)
	}
	return seed
}

// applySeeds returns a copy of attrs with the reserved "clusters" value
// replaced by its parsed seed tree. A value that is not a list becomes an
// empty tree. attrs itself is not modified.
func applySeeds(attrs map[string]any) map[string]any {
	if len(attrs) == 0 {
		return attrs
	}
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	if v, ok := attrs[models.AttrClusters]; ok {
		switch tree := v.(type) {
		case []*models.ClusterSeed:
		case []any:
			out[models.AttrClusters] = ParseClusters(tree)
		default:
			out[models.AttrClusters] = []*models.ClusterSeed{}
		}
	}
	return out
}
