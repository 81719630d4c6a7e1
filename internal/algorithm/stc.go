package algorithm

import (
	"context"
	"sort"
	"strings"

	"github.com/hyperjump/matome/internal/embedding"
	"github.com/hyperjump/matome/internal/models"
)

// STC groups documents sharing frequent one and two word phrases. Base
// clusters whose document sets overlap by more than half are merged.
// Seed trees passed under the "clusters" attribute become the first
// clusters of the result.
type STC struct{}

// NewSTC returns the shared-term clustering algorithm.
func NewSTC() *STC { return &STC{} }

// ID returns "stc".
func (s *STC) ID() string { return "stc" }

// Defaults returns max_clusters=15 and min_cluster_size=2.
func (s *STC) Defaults() map[string]any {
	return map[string]any{"max_clusters": 15, "min_cluster_size": 2}
}

type baseCluster struct {
	phrases []string
	docs    map[int]bool
	score   float64
}

// Cluster implements Algorithm.
func (s *STC) Cluster(ctx context.Context, docs []*models.ClusteringDocument, queryHint string, attrs map[string]any) ([]*models.Cluster, error) {
	maxClusters, err := positiveIntAttr(s.ID(), attrs, "max_clusters", 15)
	if err != nil {
		return nil, err
	}
	minSize, err := positiveIntAttr(s.ID(), attrs, "min_cluster_size", 2)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	hint := toSet(embedding.Terms(queryHint))
	docTerms := make([]map[string]bool, len(docs))
	df := map[string]map[int]bool{}
	for i, d := range docs {
		docTerms[i] = toSet(embedding.Terms(d.Text()))
		for p := range phrases(d.Text(), hint) {
			if df[p] == nil {
				df[p] = map[int]bool{}
			}
			df[p][i] = true
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var clusters []*models.Cluster
	if seeds := seedsAttr(attrs); len(seeds) > 0 {
		all := make([]int, len(docs))
		for i := range all {
			all[i] = i
		}
		clusters = append(clusters, seedClusters(seeds, all, docs, docTerms)...)
	}

	candidates := make([]*baseCluster, 0, len(df))
	for p, set := range df {
		if len(set) < minSize {
			continue
		}
		words := float64(strings.Count(p, " ") + 1)
		candidates = append(candidates, &baseCluster{
			phrases: []string{p},
			docs:    set,
			score:   float64(len(set)) * (1 + 0.5*(words-1)),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].phrases[0] < candidates[j].phrases[0]
	})

	var merged []*baseCluster
	for _, c := range candidates {
		if target := findOverlapping(merged, c); target != nil {
			target.phrases = append(target.phrases, c.phrases...)
			for d := range c.docs {
				target.docs[d] = true
			}
			target.score += c.score
			continue
		}
		if len(merged) >= maxClusters {
			continue
		}
		copied := make(map[int]bool, len(c.docs))
		for d := range c.docs {
			copied[d] = true
		}
		merged = append(merged, &baseCluster{phrases: c.phrases, docs: copied, score: c.score})
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if len(merged[i].docs) != len(merged[j].docs) {
			return len(merged[i].docs) > len(merged[j].docs)
		}
		return merged[i].score > merged[j].score
	})
	for _, m := range merged {
		members := sortedDocs(m.docs, docs)
		labels := make([]string, len(m.phrases))
		for i, p := range m.phrases {
			labels[i] = capitalize(p)
		}
		clusters = append(clusters, &models.Cluster{
			Label:     labels[0],
			Phrases:   labels,
			Score:     float64(len(members)) / float64(len(docs)),
			Documents: members,
		})
	}

	assigned := map[*models.ClusteringDocument]bool{}
	markAssigned(assigned, clusters)
	if other := otherTopics(docs, assigned); other != nil {
		clusters = append(clusters, other)
	}
	return clusters, nil
}

// findOverlapping returns the first cluster sharing more than half of the
// documents of both itself and c.
func findOverlapping(clusters []*baseCluster, c *baseCluster) *baseCluster {
	for _, m := range clusters {
		common := 0
		for d := range c.docs {
			if m.docs[d] {
				common++
			}
		}
		if 2*common > len(c.docs) && 2*common > len(m.docs) {
			return m
		}
	}
	return nil
}

func sortedDocs(set map[int]bool, docs []*models.ClusteringDocument) []*models.ClusteringDocument {
	idx := make([]int, 0, len(set))
	for i := range set {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	out := make([]*models.ClusteringDocument, len(idx))
	for i, j := range idx {
		out[i] = docs[j]
	}
	return out
}

// seedClusters builds clusters for a seed tree. A seed claims the documents
// among candidates containing every word of its label; its subclusters are
// drawn from those. Seeds without a label pass their candidates on to their
// children. Seeds matching nothing are dropped.
func seedClusters(seeds []*models.ClusterSeed, candidates []int, docs []*models.ClusteringDocument, docTerms []map[string]bool) []*models.Cluster {
	var out []*models.Cluster
	for _, seed := range seeds {
		if seed == nil {
			continue
		}
		if seed.Label == nil {
			out = append(out, seedClusters(seed.Subclusters, candidates, docs, docTerms)...)
			continue
		}
		words := embedding.Terms(*seed.Label)
		var members []int
		for _, i := range candidates {
			if containsAll(docTerms[i], words) {
				members = append(members, i)
			}
		}
		if len(members) == 0 {
			continue
		}
		c := &models.Cluster{
			Label:       *seed.Label,
			Phrases:     []string{*seed.Label},
			Score:       float64(len(members)) / float64(len(docs)),
			Documents:   make([]*models.ClusteringDocument, len(members)),
			Subclusters: seedClusters(seed.Subclusters, members, docs, docTerms),
		}
		for k, i := range members {
			c.Documents[k] = docs[i]
		}
		out = append(out, c)
	}
	return out
}
