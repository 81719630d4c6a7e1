// Package cli formats clustering responses for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/pkg/utils"
)

// OutputFormat is the format of command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is the response body as served over HTTP.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat accepts "text" and "json".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputText, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

const maxTitleLen = 80

// WriteClusters writes resp to w. Text output lists the cluster tree with
// the titles of the hits each cluster holds; titleField names the stored or
// source field holding a hit's title.
func WriteClusters(w io.Writer, resp *models.ClusteringResponse, format OutputFormat, titleField string) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	hits := map[string]*models.Hit{}
	var total uint64
	if resp.Search != nil {
		total = resp.Search.Hits.Total
		for _, h := range resp.Search.Hits.Hits {
			hits[h.ID] = h
		}
	}
	fmt.Fprintf(w, "Found %d hits in %sms, clustered by %s in %sms\n",
		total, resp.Info[models.InfoSearchMillis], resp.Info[models.InfoAlgorithm], resp.Info[models.InfoClusteringMillis])
	if len(resp.Groups) == 0 {
		fmt.Fprintln(w, "No clusters.")
		return nil
	}
	fmt.Fprintln(w)
	for _, g := range resp.Groups {
		writeGroup(w, g, hits, titleField, 0)
	}
	return nil
}

func writeGroup(w io.Writer, g *models.DocumentGroup, hits map[string]*models.Hit, titleField string, depth int) {
	indent := strings.Repeat("  ", depth)
	fmt.Fprintf(w, "%s%s (%s, score %.4f)\n", indent, g.Label, plural(len(g.Documents), "document"), g.Score)
	for _, id := range g.Documents {
		if title := HitTitle(hits[id], titleField); title != "" {
			fmt.Fprintf(w, "%s  - %s [%s]\n", indent, utils.Truncate(title, maxTitleLen), id)
		} else {
			fmt.Fprintf(w, "%s  - %s\n", indent, id)
		}
	}
	for _, sub := range g.Subgroups {
		writeGroup(w, sub, hits, titleField, depth+1)
	}
}

// HitTitle returns the first value of field from the hit's stored fields or
// its source, or "" when the hit is nil or has none.
func HitTitle(hit *models.Hit, field string) string {
	if hit == nil || field == "" {
		return ""
	}
	if values := hit.Fields[field]; len(values) > 0 {
		return fmt.Sprint(values[0])
	}
	switch v := hit.Source[field].(type) {
	case nil:
		return ""
	case string:
		return v
	case []any:
		if len(v) > 0 {
			return fmt.Sprint(v[0])
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
