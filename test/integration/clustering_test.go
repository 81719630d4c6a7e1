// Package integration runs clustering requests against real storage and indices.
package integration

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/hyperjump/matome/internal/algorithm"
	"github.com/hyperjump/matome/internal/clustering"
	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/embedding"
	"github.com/hyperjump/matome/internal/extract"
	"github.com/hyperjump/matome/internal/indexer"
	"github.com/hyperjump/matome/internal/keyword"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/search"
	"github.com/hyperjump/matome/internal/storage"
)

type stack struct {
	indexer *indexer.Indexer
	engine  *clustering.Engine
}

func newStack(t *testing.T) *stack {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Storage: config.StorageConfig{
			DatabasePath:   filepath.Join(dir, "db.sqlite"),
			BleveIndexPath: filepath.Join(dir, "bleve"),
			IndexName:      "docs",
		},
		Search: config.SearchConfig{DefaultSize: 100, MaxSize: 1000, ChunkSize: 64, ChunkOverlap: 8},
	}

	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	kwIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath, cfg.Storage.IndexName)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = kwIndex.Close() })

	registry := algorithm.Default(embedding.NewHashEmbedder(64))
	return &stack{
		indexer: indexer.NewIndexer(store, kwIndex, extract.NewExtractor(), &cfg.Search),
		engine:  clustering.NewEngine(search.NewEngine(kwIndex, store, &cfg.Search), registry),
	}
}

func groupDocs(groups []*models.DocumentGroup, into map[string]bool) {
	for _, g := range groups {
		for _, id := range g.Documents {
			into[id] = true
		}
		groupDocs(g.Subgroups, into)
	}
}

func TestIntegration_ClusterByURL(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	docs := []struct{ id, title, url string }{
		{"d1", "Clustering search results", "http://www.a.com/news/1"},
		{"d2", "Clustering with suffix trees", "http://a.com/news/2"},
		{"d3", "Clustering in practice", "http://b.com/blog"},
		{"d4", "Unrelated cooking notes", "http://a.com/food"},
	}
	for _, d := range docs {
		if _, err := s.indexer.IndexDocument(ctx, &models.DocumentInput{
			ID:     d.id,
			Source: map[string]any{"title": d.title, "url": d.url},
		}); err != nil {
			t.Fatal(err)
		}
	}

	req := models.NewClusteringRequest(&models.SearchRequest{Query: "title:clustering"}).SetQueryHint("clustering")
	req.Algorithm = "byurl"
	req.AddSourceFieldMapping("title", models.FieldTitle).AddSourceFieldMapping("url", models.FieldURL)

	resp, err := s.engine.Execute(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Search.Hits.Total != 3 {
		t.Fatalf("total hits = %d, want 3", resp.Search.Hits.Total)
	}
	if len(resp.Groups) != 2 {
		t.Fatalf("groups = %+v, want a.com and Other Topics", resp.Groups)
	}
	first := append([]string(nil), resp.Groups[0].Documents...)
	sort.Strings(first)
	if resp.Groups[0].Label != "a.com" || len(first) != 2 || first[0] != "d1" || first[1] != "d2" {
		t.Errorf("first group = %+v", resp.Groups[0])
	}
	if !resp.Groups[1].OtherTopics || len(resp.Groups[1].Documents) != 1 || resp.Groups[1].Documents[0] != "d3" {
		t.Errorf("other topics = %+v", resp.Groups[1])
	}
	if resp.Info[models.InfoAlgorithm] != "byurl" || resp.Info[models.InfoIncludeHits] != "true" {
		t.Errorf("info = %v", resp.Info)
	}
}

func TestIntegration_ClusterIndexedFiles(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	corpus := t.TempDir()
	files := map[string]string{
		"solar_panels.txt":  "solar energy panels convert sunlight into electricity",
		"solar_storage.txt": "solar energy storage keeps electricity for the night",
		"wind.md":           "wind turbines produce electricity on windy hills",
		"notes.log":         "solar energy log file that is never indexed",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(corpus, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	n, err := s.indexer.IndexDirectory(ctx, corpus, []string{".txt", ".md"})
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("indexed %d files, want 3", n)
	}

	for _, alg := range []string{"stc", "kmeans"} {
		t.Run(alg, func(t *testing.T) {
			req := models.NewClusteringRequest(&models.SearchRequest{Query: "electricity"}).SetQueryHint("electricity").SetMaxHits(1)
			req.Algorithm = alg
			req.AddSourceFieldMapping("title", models.FieldTitle).AddSourceFieldMapping("content", models.FieldContent)

			resp, err := s.engine.Execute(ctx, req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.Search.Hits.Total != 3 || len(resp.Search.Hits.Hits) != 1 {
				t.Fatalf("hits = %d returned of %d, want 1 of 3", len(resp.Search.Hits.Hits), resp.Search.Hits.Total)
			}
			clustered := map[string]bool{}
			groupDocs(resp.Groups, clustered)
			if len(clustered) != 3 {
				t.Errorf("clustered %d documents, want every hit in a group: %+v", len(clustered), resp.Groups)
			}
			if resp.Info[models.InfoMaxHits] != "1" {
				t.Errorf("max hits info = %q", resp.Info[models.InfoMaxHits])
			}
		})
	}
}
