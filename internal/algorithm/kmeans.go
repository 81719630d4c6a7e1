package algorithm

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/hyperjump/matome/internal/embedding"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/vector"
)

// KMeans runs spherical k-means over document term vectors. Centroids are
// seeded farthest-first from the first document, so results are
// deterministic.
type KMeans struct {
	embedder embedding.Embedder
}

// NewKMeans returns a k-means algorithm embedding documents with e.
func NewKMeans(e embedding.Embedder) *KMeans {
	if e == nil {
		e = embedding.NewHashEmbedder(0)
	}
	return &KMeans{embedder: e}
}

// ID returns "kmeans".
func (k *KMeans) ID() string { return "kmeans" }

// Defaults returns k=5, max_iterations=15 and label_terms=3.
func (k *KMeans) Defaults() map[string]any {
	return map[string]any{"k": 5, "max_iterations": 15, "label_terms": 3}
}

// Cluster implements Algorithm.
func (k *KMeans) Cluster(ctx context.Context, docs []*models.ClusteringDocument, queryHint string, attrs map[string]any) ([]*models.Cluster, error) {
	clusterCount, err := positiveIntAttr(k.ID(), attrs, "k", 5)
	if err != nil {
		return nil, err
	}
	maxIterations, err := positiveIntAttr(k.ID(), attrs, "max_iterations", 15)
	if err != nil {
		return nil, err
	}
	labelTerms, err := positiveIntAttr(k.ID(), attrs, "label_terms", 3)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text()
	}
	vecs, err := k.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, &Error{Algorithm: k.ID(), Err: fmt.Errorf("embed documents: %w", err)}
	}

	var active []int
	for i, v := range vecs {
		if vector.L2Norm(v) > 0 {
			active = append(active, i)
		}
	}
	if clusterCount > len(active) {
		clusterCount = len(active)
	}

	var clusters []*models.Cluster
	if clusterCount > 0 {
		centroids := seedCentroids(vecs, active, clusterCount)
		assignment := make(map[int]int, len(active))
		for iter := 0; iter < maxIterations; iter++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			changed := false
			for _, i := range active {
				c, _ := vector.Nearest(vecs[i], centroids)
				if prev, ok := assignment[i]; !ok || prev != c {
					assignment[i] = c
					changed = true
				}
			}
			if !changed {
				break
			}
			for c := range centroids {
				var members [][]float32
				for _, i := range active {
					if assignment[i] == c {
						members = append(members, vecs[i])
					}
				}
				if len(members) > 0 {
					centroids[c] = vector.Centroid(members, k.embedder.Dimensions())
				}
			}
		}
		clusters = buildKMeansClusters(docs, vecs, active, assignment, centroids, queryHint, labelTerms)
	}

	assigned := map[*models.ClusteringDocument]bool{}
	markAssigned(assigned, clusters)
	if other := otherTopics(docs, assigned); other != nil {
		clusters = append(clusters, other)
	}
	return clusters, nil
}

// seedCentroids picks the first active vector, then repeatedly the vector
// least similar to every centroid chosen so far.
func seedCentroids(vecs [][]float32, active []int, k int) [][]float32 {
	chosen := map[int]bool{active[0]: true}
	centroids := [][]float32{append([]float32(nil), vecs[active[0]]...)}
	for len(centroids) < k {
		best, bestSim := -1, math.Inf(1)
		for _, i := range active {
			if chosen[i] {
				continue
			}
			_, sim := vector.Nearest(vecs[i], centroids)
			if sim < bestSim {
				best, bestSim = i, sim
			}
		}
		if best < 0 {
			break
		}
		chosen[best] = true
		centroids = append(centroids, append([]float32(nil), vecs[best]...))
	}
	return centroids
}

func buildKMeansClusters(docs []*models.ClusteringDocument, vecs [][]float32, active []int, assignment map[int]int, centroids [][]float32, queryHint string, labelTerms int) []*models.Cluster {
	hint := toSet(embedding.Terms(queryHint))
	docFreq := map[string]int{}
	docTerms := make([]map[string]int, len(docs))
	for _, i := range active {
		tf := map[string]int{}
		for _, t := range embedding.Terms(docs[i].Text()) {
			if labelWord(t) && !hint[t] {
				tf[t]++
			}
		}
		for t := range tf {
			docFreq[t]++
		}
		docTerms[i] = tf
	}

	var clusters []*models.Cluster
	for c, centroid := range centroids {
		var members []int
		for _, i := range active {
			if assignment[i] == c {
				members = append(members, i)
			}
		}
		if len(members) == 0 {
			continue
		}

		weights := map[string]float64{}
		var cohesion float64
		for _, i := range members {
			for t, n := range docTerms[i] {
				weights[t] += float64(n) * math.Log(1+float64(len(active))/float64(docFreq[t]))
			}
			cohesion += vector.InnerProduct(vecs[i], centroid)
		}
		terms := make([]string, 0, len(weights))
		for t := range weights {
			terms = append(terms, t)
		}
		sort.Slice(terms, func(a, b int) bool {
			if weights[terms[a]] != weights[terms[b]] {
				return weights[terms[a]] > weights[terms[b]]
			}
			return terms[a] < terms[b]
		})
		if len(terms) > labelTerms {
			terms = terms[:labelTerms]
		}
		label := capitalize(strings.Join(terms, ", "))
		if label == "" {
			label = fmt.Sprintf("Cluster %d", c+1)
		}

		cluster := &models.Cluster{
			Label:     label,
			Phrases:   terms,
			Score:     cohesion / float64(len(members)),
			Documents: make([]*models.ClusteringDocument, len(members)),
		}
		for j, i := range members {
			cluster.Documents[j] = docs[i]
		}
		clusters = append(clusters, cluster)
	}
	sort.SliceStable(clusters, func(a, b int) bool {
		return len(clusters[a].Documents) > len(clusters[b].Documents)
	})
	return clusters
}
