package keyword

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/matome/internal/models"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bleve")
	idx, err := NewBleveIndex(path, "docs")
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func indexDocs(t *testing.T, idx *BleveIndex, docs ...*models.Document) {
	t.Helper()
	for _, d := range docs {
		if err := idx.Index(context.Background(), d); err != nil {
			t.Fatalf("Index(%s): %v", d.ID, err)
		}
	}
}

func sampleDocs() []*models.Document {
	return []*models.Document{
		{ID: "1", Source: map[string]any{"title": "Go concurrency patterns", "body": "goroutines and channels", "tag": "golang"}},
		{ID: "2", Source: map[string]any{"title": "Rust ownership", "body": "borrow checker explained", "tag": "rust"}},
		{ID: "3", Source: map[string]any{"title": "Go modules", "body": "dependency management with modules", "tag": "golang"}},
	}
}

func TestBleveIndex_Search(t *testing.T) {
	idx := newTestIndex(t)
	indexDocs(t, idx, sampleDocs()...)

	res, err := idx.Search(context.Background(), &models.SearchRequest{Query: "title:go", Size: 10, Fields: []string{"title"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Hits.Total != 2 || len(res.Hits.Hits) != 2 {
		t.Fatalf("expected 2 hits, got total=%d len=%d", res.Hits.Total, len(res.Hits.Hits))
	}
	for _, h := range res.Hits.Hits {
		if h.Index != "docs" {
			t.Errorf("hit index = %q, want docs", h.Index)
		}
		if h.ID != "1" && h.ID != "3" {
			t.Errorf("unexpected hit %s", h.ID)
		}
		if len(h.Fields["title"]) != 1 {
			t.Errorf("hit %s title field = %v", h.ID, h.Fields["title"])
		}
		if h.Source != nil {
			t.Errorf("index must not return sources")
		}
	}
	if res.Hits.MaxScore <= 0 {
		t.Errorf("max score = %v", res.Hits.MaxScore)
	}
}

func TestBleveIndex_MatchAllAndPaging(t *testing.T) {
	idx := newTestIndex(t)
	indexDocs(t, idx, sampleDocs()...)

	res, err := idx.Search(context.Background(), &models.SearchRequest{Query: "  ", Size: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Hits.Total != 3 {
		t.Errorf("total = %d, want 3", res.Hits.Total)
	}
	if len(res.Hits.Hits) != 2 {
		t.Errorf("page = %d hits, want 2", len(res.Hits.Hits))
	}

	res, err = idx.Search(context.Background(), &models.SearchRequest{Size: 10, From: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits.Hits) != 1 {
		t.Errorf("from=2 returned %d hits, want 1", len(res.Hits.Hits))
	}
}

func TestBleveIndex_HighlightAndFacets(t *testing.T) {
	idx := newTestIndex(t)
	indexDocs(t, idx, sampleDocs()...)

	res, err := idx.Search(context.Background(), &models.SearchRequest{
		Query:     "body:modules",
		Size:      10,
		Highlight: &models.HighlightRequest{Fields: []string{"body"}},
		Aggs:      map[string]models.FacetRequest{"tags": {Field: "tag"}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Hits.Hits) != 1 || res.Hits.Hits[0].ID != "3" {
		t.Fatalf("expected hit 3, got %+v", res.Hits.Hits)
	}
	if len(res.Hits.Hits[0].Highlight["body"]) == 0 {
		t.Errorf("expected body fragments, got %v", res.Hits.Hits[0].Highlight)
	}
	agg := res.Aggregations["tags"]
	if agg == nil {
		t.Fatal("missing tags aggregation")
	}
	if agg.Field != "tag" || len(agg.Buckets) != 1 || agg.Buckets[0].Key != "golang" || agg.Buckets[0].DocCount != 1 {
		t.Errorf("aggregation = %+v", agg)
	}
}

func TestBleveIndex_DeleteAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.bleve")
	idx, err := NewBleveIndex(path, "docs")
	if err != nil {
		t.Fatalf("failed to create index: %v", err)
	}
	indexDocs(t, idx, sampleDocs()...)

	if err := idx.Delete(context.Background(), "2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	count, err := idx.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if count != 2 {
		t.Errorf("DocCount = %d, want 2", count)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewBleveIndex(path, "docs")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	count, err = reopened.DocCount()
	if err != nil {
		t.Fatalf("DocCount: %v", err)
	}
	if count != 2 {
		t.Errorf("reopened DocCount = %d, want 2", count)
	}
}

func TestBleveIndex_CanceledContext(t *testing.T) {
	idx := newTestIndex(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := idx.Index(ctx, sampleDocs()[0]); err == nil {
		t.Error("expected error indexing with canceled context")
	}
}

func TestBleveIndex_Terms(t *testing.T) {
	idx := newTestIndex(t)
	indexDocs(t, idx, sampleDocs()...)
	indexDocs(t, idx, &models.Document{ID: "4", Source: map[string]any{"title": "Go", "year": 2024}})

	terms, err := idx.Terms()
	if err != nil {
		t.Fatalf("Terms: %v", err)
	}
	if terms["go"] < 3 {
		t.Errorf("terms[go] = %d, want at least 3", terms["go"])
	}
	if terms["modules"] == 0 || terms["ownership"] == 0 {
		t.Errorf("missing expected terms: %v", terms)
	}
	for term := range terms {
		if !isWord(term) {
			t.Errorf("non-word term %q returned", term)
		}
	}
}

func TestIsWord(t *testing.T) {
	tests := []struct {
		term string
		want bool
	}{
		{"go", true},
		{"café", true},
		{"", false},
		{"2024", false},
		{"go1", false},
		{"\x00\x01", false},
	}
	for _, tt := range tests {
		if got := isWord(tt.term); got != tt.want {
			t.Errorf("isWord(%q) = %v, want %v", tt.term, got, tt.want)
		}
	}
}

func TestFieldValues(t *testing.T) {
	if got := fieldValues("x"); len(got) != 1 || got[0] != "x" {
		t.Errorf("fieldValues(scalar) = %v", got)
	}
	list := []any{"a", "b"}
	if got := fieldValues(list); len(got) != 2 {
		t.Errorf("fieldValues(list) = %v", got)
	}
}
