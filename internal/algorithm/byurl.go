package algorithm

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/hyperjump/matome/internal/models"
)

// ByURL groups documents by the host of their URL, with subclusters per
// first path segment.
type ByURL struct{}

// NewByURL returns the URL grouping algorithm.
func NewByURL() *ByURL { return &ByURL{} }

// ID returns "byurl".
func (b *ByURL) ID() string { return "byurl" }

// Defaults returns min_cluster_size=2.
func (b *ByURL) Defaults() map[string]any {
	return map[string]any{"min_cluster_size": 2}
}

// Cluster implements Algorithm.
func (b *ByURL) Cluster(ctx context.Context, docs []*models.ClusteringDocument, _ string, attrs map[string]any) ([]*models.Cluster, error) {
	minSize, err := positiveIntAttr(b.ID(), attrs, "min_cluster_size", 2)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	type member struct {
		doc     *models.ClusteringDocument
		segment string
	}
	hosts := map[string][]member{}
	for _, d := range docs {
		host, segment, ok := splitURL(d.URL)
		if !ok {
			continue
		}
		hosts[host] = append(hosts[host], member{doc: d, segment: segment})
	}

	var clusters []*models.Cluster
	for host, members := range hosts {
		if len(members) < minSize {
			continue
		}
		c := &models.Cluster{
			Label:   host,
			Phrases: []string{host},
			Score:   float64(len(members)) / float64(len(docs)),
		}
		segments := map[string][]*models.ClusteringDocument{}
		for _, m := range members {
			c.Documents = append(c.Documents, m.doc)
			if m.segment != "" {
				segments[m.segment] = append(segments[m.segment], m.doc)
			}
		}
		if len(segments) > 1 {
			for segment, segDocs := range segments {
				if len(segDocs) < minSize {
					continue
				}
				label := host + "/" + segment
				c.Subclusters = append(c.Subclusters, &models.Cluster{
					Label:     label,
					Phrases:   []string{label},
					Score:     float64(len(segDocs)) / float64(len(docs)),
					Documents: segDocs,
				})
			}
			sortBySize(c.Subclusters)
		}
		clusters = append(clusters, c)
	}
	sortBySize(clusters)

	assigned := map[*models.ClusteringDocument]bool{}
	markAssigned(assigned, clusters)
	if other := otherTopics(docs, assigned); other != nil {
		clusters = append(clusters, other)
	}
	return clusters, nil
}

// splitURL returns the host without "www." and the first path segment.
// Scheme-less URLs such as "example.com/a" are accepted.
func splitURL(raw string) (host, segment string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		u, err = url.Parse("http://" + raw)
		if err != nil || u.Host == "" {
			return "", "", false
		}
	}
	host = strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	path := strings.Trim(u.Path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		path = path[:i]
	}
	return host, path, host != ""
}

func sortBySize(clusters []*models.Cluster) {
	sort.Slice(clusters, func(i, j int) bool {
		if len(clusters[i].Documents) != len(clusters[j].Documents) {
			return len(clusters[i].Documents) > len(clusters[j].Documents)
		}
		return clusters[i].Label < clusters[j].Label
	})
}
