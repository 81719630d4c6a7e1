package clustering

import "github.com/hyperjump/matome/internal/models"

// Adapt converts an algorithm's cluster tree into response groups. Document
// lists, phrase lists and subgroup lists are never nil; a leaf has an empty
// subgroup list.
func Adapt(clusters []*models.Cluster) []*models.DocumentGroup {
	groups := make([]*models.DocumentGroup, 0, len(clusters))
	for _, c := range clusters {
		g := &models.DocumentGroup{
			ID:          c.ID,
			Label:       c.Label,
			Phrases:     append([]string{}, c.Phrases...),
			Score:       c.Score,
			OtherTopics: c.OtherTopics,
			Documents:   make([]string, 0, len(c.Documents)),
			Subgroups:   Adapt(c.Subclusters),
		}
		for _, d := range c.Documents {
			g.Documents = append(g.Documents, d.ID)
		}
		groups = append(groups, g)
	}
	return groups
}

// TrimHits returns result with at most maxHits hits. Totals, shard
// statistics, aggregations and suggestions are kept. When nothing needs to
// be removed the same pointer is returned; otherwise result is left intact
// and a shallow copy is returned.
func TrimHits(result *models.SearchResult, maxHits int) *models.SearchResult {
	if result == nil || maxHits >= len(result.Hits.Hits) {
		return result
	}
	if maxHits < 0 {
		maxHits = 0
	}
	trimmed := *result
	trimmed.Hits.Hits = result.Hits.Hits[:maxHits:maxHits]
	return &trimmed
}
