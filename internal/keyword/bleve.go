package keyword

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	blevequery "github.com/blevesearch/bleve/v2/search/query"
	"github.com/hyperjump/matome/internal/models"
)

// BleveIndex implements Index using Bleve. Document sources are mapped
// dynamically: every field is indexed and stored under its dotted path.
type BleveIndex struct {
	index bleve.Index
	name  string
}

// NewBleveIndex creates or opens a Bleve index at path. name is reported as
// the _index of every hit.
// If you change the index mapping in code, remove the index directory to force a full re-index.
func NewBleveIndex(path, name string) (*BleveIndex, error) {
	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index, name: name}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	im := bleve.NewIndexMapping()
	// Standard analyzer: lowercase and tokenize, no stemming, so field values
	// come back to the clustering algorithms as written.
	im.DefaultAnalyzer = standard.Name
	im.StoreDynamic = true
	im.IndexDynamic = true

	index, err := bleve.New(path, im)
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index, name: name}, nil
}

// Name returns the index name reported in hits.
func (b *BleveIndex) Name() string { return b.name }

// Index indexes the document's source under its id.
func (b *BleveIndex) Index(ctx context.Context, doc *models.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return b.index.Index(doc.ID, doc.Source)
}

// Search runs req as a query-string query, or match-all when the query is
// blank. Requested stored fields, highlight fragments and terms facets are
// copied into the result. Sources are not stored in the index.
func (b *BleveIndex) Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error) {
	var q blevequery.Query = bleve.NewMatchAllQuery()
	if strings.TrimSpace(req.Query) != "" {
		q = bleve.NewQueryStringQuery(req.Query)
	}
	search := bleve.NewSearchRequestOptions(q, req.Size, req.From, req.Explain)
	search.Fields = req.Fields
	if req.Highlight != nil && len(req.Highlight.Fields) > 0 {
		search.Highlight = bleve.NewHighlight()
		for _, f := range req.Highlight.Fields {
			search.Highlight.AddField(f)
		}
	}
	for name, agg := range req.Aggs {
		size := agg.Size
		if size == 0 {
			size = 10
		}
		search.AddFacet(name, bleve.NewFacetRequest(agg.Field, size))
	}

	res, err := b.index.SearchInContext(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}

	out := &models.SearchResult{
		Took: res.Took.Milliseconds(),
		Hits: models.Hits{
			Total:    res.Total,
			MaxScore: res.MaxScore,
			Hits:     make([]*models.Hit, 0, len(res.Hits)),
		},
	}
	if res.Status != nil {
		out.Shards = models.ShardStats{
			Total:      res.Status.Total,
			Successful: res.Status.Successful,
			Failed:     res.Status.Failed,
		}
		for index, e := range res.Status.Errors {
			out.Shards.Failures = append(out.Shards.Failures, models.ShardFailure{Index: index, Reason: e.Error()})
		}
		sort.Slice(out.Shards.Failures, func(i, j int) bool {
			return out.Shards.Failures[i].Index < out.Shards.Failures[j].Index
		})
	}

	for _, h := range res.Hits {
		hit := &models.Hit{Index: b.name, ID: h.ID, Score: h.Score}
		if len(h.Fields) > 0 {
			hit.Fields = make(map[string][]any, len(h.Fields))
			for k, v := range h.Fields {
				hit.Fields[k] = fieldValues(v)
			}
		}
		if len(h.Fragments) > 0 {
			hit.Highlight = make(map[string][]string, len(h.Fragments))
			for k, v := range h.Fragments {
				hit.Highlight[k] = v
			}
		}
		out.Hits.Hits = append(out.Hits.Hits, hit)
	}

	if len(res.Facets) > 0 {
		out.Aggregations = make(map[string]*models.Aggregation, len(res.Facets))
		for name, fr := range res.Facets {
			agg, err := aggregation(fr)
			if err != nil {
				return nil, fmt.Errorf("facet %s: %w", name, err)
			}
			out.Aggregations[name] = agg
		}
	}
	return out, nil
}

// fieldValues normalizes a stored field to a list; Bleve returns a bare
// value for single-valued fields.
func fieldValues(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

// aggregation converts a terms facet. The term list type changed between
// Bleve releases while its JSON form did not, so the facet is read through
// JSON.
func aggregation(fr any) (*models.Aggregation, error) {
	data, err := json.Marshal(fr)
	if err != nil {
		return nil, err
	}
	var facet struct {
		Field   string `json:"field"`
		Total   int    `json:"total"`
		Missing int    `json:"missing"`
		Other   int    `json:"other"`
		Terms   []struct {
			Term  string `json:"term"`
			Count int    `json:"count"`
		} `json:"terms"`
	}
	if err := json.Unmarshal(data, &facet); err != nil {
		return nil, err
	}
	agg := &models.Aggregation{
		Field:   facet.Field,
		Total:   facet.Total,
		Missing: facet.Missing,
		Other:   facet.Other,
		Buckets: make([]models.Bucket, 0, len(facet.Terms)),
	}
	for _, t := range facet.Terms {
		agg.Buckets = append(agg.Buckets, models.Bucket{Key: t.Term, DocCount: t.Count})
	}
	return agg, nil
}

// Delete removes a document from the index.
func (b *BleveIndex) Delete(ctx context.Context, id string) error {
	return b.index.Delete(id)
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}

// DocCount returns the total number of documents in the index.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Terms returns every word-like term of the indexed text fields with its
// document frequency, summed over fields.
func (b *BleveIndex) Terms() (map[string]int, error) {
	fields, err := b.index.Fields()
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	terms := make(map[string]int)
	for _, field := range fields {
		if strings.HasPrefix(field, "_") {
			continue
		}
		dict, err := b.index.FieldDict(field)
		if err != nil {
			continue
		}
		for {
			entry, err := dict.Next()
			if err != nil || entry == nil {
				break
			}
			if isWord(entry.Term) {
				terms[entry.Term] += int(entry.Count)
			}
		}
		_ = dict.Close()
	}
	return terms, nil
}

// isWord filters out the encoded terms of numeric and date fields.
func isWord(term string) bool {
	if term == "" {
		return false
	}
	for _, r := range term {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
