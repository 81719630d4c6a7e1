package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/matome/internal/models"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	doc := &models.Document{
		ID:     "doc1",
		Source: map[string]any{"title": "Title", "meta": map[string]any{"lang": "en"}, "tags": []any{"a", "b"}},
	}
	if err := store.PutDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	if doc.CreatedAt.IsZero() || doc.UpdatedAt.IsZero() {
		t.Error("timestamps should be set")
	}

	got, err := store.GetDocument(ctx, "doc1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Source["title"] != "Title" {
		t.Errorf("got %+v", got.Source)
	}
	if meta, ok := got.Source["meta"].(map[string]any); !ok || meta["lang"] != "en" {
		t.Errorf("nested source lost: %+v", got.Source)
	}
	if got.File != nil {
		t.Errorf("unexpected file origin %+v", got.File)
	}

	created := doc.CreatedAt
	doc.Source = map[string]any{"title": "Updated"}
	if err := store.PutDocument(ctx, doc); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetDocument(ctx, "doc1")
	if got.Source["title"] != "Updated" {
		t.Errorf("expected Updated, got %v", got.Source["title"])
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("created_at changed on replace: %v -> %v", created, got.CreatedAt)
	}

	list, err := store.ListDocuments(ctx, 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 doc, got %d", len(list))
	}

	if err := store.DeleteDocument(ctx, "doc1"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetDocument(ctx, "doc1"); !errors.Is(err, models.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound after delete, got %v", err)
	}
	if err := store.DeleteDocument(ctx, "doc1"); !errors.Is(err, models.ErrDocumentNotFound) {
		t.Errorf("expected ErrDocumentNotFound deleting twice, got %v", err)
	}
}

func TestSQLiteStorage_PutRequiresID(t *testing.T) {
	store := newTestStorage(t)
	if err := store.PutDocument(context.Background(), &models.Document{}); err == nil {
		t.Error("expected error for empty id")
	}
}

func TestSQLiteStorage_GetSources(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	// More ids than one batch holds.
	ids := make([]string, 0, maxBatchIDs+10)
	for i := 0; i < maxBatchIDs+5; i++ {
		id := fmt.Sprintf("d%04d", i)
		if err := store.PutDocument(ctx, &models.Document{ID: id, Source: map[string]any{"n": float64(i)}}); err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}
	ids = append(ids, "missing")

	sources, err := store.GetSources(ctx, ids)
	if err != nil {
		t.Fatal(err)
	}
	if len(sources) != maxBatchIDs+5 {
		t.Fatalf("got %d sources, want %d", len(sources), maxBatchIDs+5)
	}
	if _, ok := sources["missing"]; ok {
		t.Error("missing id should be absent")
	}
	if sources["d0503"]["n"] != float64(503) {
		t.Errorf("d0503 source = %v", sources["d0503"])
	}

	empty, err := store.GetSources(ctx, nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GetSources(nil) = %v, %v", empty, err)
	}
}

func TestSQLiteStorage_FileOrigin(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 123, time.UTC)

	for i := 0; i < 2; i++ {
		doc := &models.Document{
			ID:     fmt.Sprintf("file#%d", i),
			Source: map[string]any{"passage": float64(i)},
			File:   &models.FileOrigin{Path: "/corpus/a.txt", ModTime: mtime, Size: 42},
		}
		if err := store.PutDocument(ctx, doc); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.PutDocument(ctx, &models.Document{ID: "other", Source: map[string]any{}}); err != nil {
		t.Fatal(err)
	}

	docs, err := store.DocumentsByPath(ctx, "/corpus/a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].ID != "file#0" || docs[1].ID != "file#1" {
		t.Fatalf("DocumentsByPath = %+v", docs)
	}
	origin := docs[0].File
	if origin == nil || origin.Size != 42 || !origin.ModTime.Equal(mtime) {
		t.Errorf("file origin = %+v", origin)
	}

	none, err := store.DocumentsByPath(ctx, "/corpus/b.txt")
	if err != nil || len(none) != 0 {
		t.Errorf("unknown path returned %v, %v", none, err)
	}

	count, err := store.CountDocuments(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("CountDocuments = %d, want 3", count)
	}
}

func TestSQLiteStorage_ListPaging(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := store.PutDocument(ctx, &models.Document{ID: id, Source: map[string]any{}}); err != nil {
			t.Fatal(err)
		}
	}
	page, err := store.ListDocuments(ctx, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(page) != 1 {
		t.Errorf("page size = %d, want 1", len(page))
	}
	rest, err := store.ListDocuments(ctx, 3, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 0 {
		t.Errorf("offset past end returned %d docs", len(rest))
	}
}
