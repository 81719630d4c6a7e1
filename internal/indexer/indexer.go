// Package indexer loads documents and corpus files into the store and the
// search index.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/extract"
	"github.com/hyperjump/matome/internal/fileid"
	"github.com/hyperjump/matome/internal/keyword"
	"github.com/hyperjump/matome/internal/metrics"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/storage"
	"go.uber.org/zap"
)

// Invalidator is notified whenever the indexed terms change.
type Invalidator interface {
	Invalidate()
}

// Indexer writes documents to storage and the keyword index.
type Indexer struct {
	store     storage.Storage
	index     keyword.Index
	extractor *extract.Extractor
	chunker   *Chunker
	logger    *zap.Logger
	listeners []Invalidator
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithLogger sets the indexer logger.
func WithLogger(l *zap.Logger) Option {
	return func(idx *Indexer) {
		if l != nil {
			idx.logger = l
		}
	}
}

// WithInvalidator registers a cache to drop after every change, such as the
// spell checker dictionary.
func WithInvalidator(inv Invalidator) Option {
	return func(idx *Indexer) { idx.listeners = append(idx.listeners, inv) }
}

// NewIndexer returns an indexer. A nil extractor reads every file as plain text.
func NewIndexer(store storage.Storage, index keyword.Index, extractor *extract.Extractor, cfg *config.SearchConfig, opts ...Option) *Indexer {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	idx := &Indexer{
		store:     store,
		index:     index,
		extractor: extractor,
		chunker:   NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// IndexDocument stores and indexes input, replacing any document with the
// same id. A missing id is generated. It returns the document id.
func (idx *Indexer) IndexDocument(ctx context.Context, input *models.DocumentInput) (string, error) {
	if input.Source == nil {
		return "", &models.ValidationError{Errors: []string{"source is missing"}}
	}
	id := input.ID
	if id == "" {
		id = uuid.NewString()
	}
	if err := idx.put(ctx, &models.Document{ID: id, Source: input.Source}); err != nil {
		return "", err
	}
	idx.changed()
	return id, nil
}

func (idx *Indexer) put(ctx context.Context, doc *models.Document) error {
	if err := idx.store.PutDocument(ctx, doc); err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
	}
	if err := idx.index.Index(ctx, doc); err != nil {
		return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
	}
	metrics.IndexedDocumentsTotal.WithLabelValues("index").Inc()
	return nil
}

// IndexFile extracts the file at path and indexes it as one document per
// passage. Files already indexed with the same size and modification time
// are skipped. It returns the number of passages written.
func (idx *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return 0, err
	}
	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("not a regular file: %s", abs)
	}

	existing, err := idx.store.DocumentsByPath(ctx, abs)
	if err != nil {
		return 0, fmt.Errorf("failed to look up %s: %w", abs, err)
	}
	if unchanged(existing, info) {
		// The store outlives a rebuilt index, so make sure the passages are searchable.
		for _, doc := range existing {
			if err := idx.index.Index(ctx, doc); err != nil {
				return 0, fmt.Errorf("failed to index document %s: %w", doc.ID, err)
			}
		}
		idx.logger.Debug("skipping unchanged file", zap.String("path", abs))
		return 0, nil
	}

	text, err := idx.extractor.Extract(abs)
	if err != nil {
		return 0, err
	}
	if err := idx.removeAll(ctx, existing); err != nil {
		return 0, err
	}

	origin := &models.FileOrigin{Path: abs, ModTime: info.ModTime(), Size: info.Size()}
	title := strings.ReplaceAll(strings.TrimSuffix(filepath.Base(abs), filepath.Ext(abs)), "_", " ")
	passages := idx.chunker.Chunk(text)
	for n, passage := range passages {
		doc := &models.Document{
			ID: fileid.Passage(abs, n),
			Source: map[string]any{
				"title":   title,
				"content": passage,
				"url":     "file://" + filepath.ToSlash(abs),
				"path":    abs,
				"passage": n,
			},
			File: origin,
		}
		if err := idx.put(ctx, doc); err != nil {
			return n, err
		}
	}
	idx.changed()
	idx.logger.Debug("indexed file", zap.String("path", abs), zap.Int("passages", len(passages)))
	return len(passages), nil
}

func unchanged(docs []*models.Document, info fs.FileInfo) bool {
	if len(docs) == 0 {
		return false
	}
	for _, doc := range docs {
		if doc.File == nil || doc.File.Size != info.Size() || !doc.File.ModTime.Equal(info.ModTime()) {
			return false
		}
	}
	return true
}

// IndexDirectory indexes every file below dir whose extension is in exts,
// or that the extractor supports when exts is empty. Files that fail are
// logged and skipped. It returns the number of files indexed.
func (idx *Indexer) IndexDirectory(ctx context.Context, dir string, exts []string) (int, error) {
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower("."+strings.TrimPrefix(ext, "."))] = true
	}
	var indexed int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if len(allowed) > 0 && !allowed[ext] || len(allowed) == 0 && !idx.extractor.Supports(ext) {
			return nil
		}
		if _, err := idx.IndexFile(ctx, path); err != nil {
			idx.logger.Warn("failed to index file", zap.String("path", path), zap.Error(err))
			return nil
		}
		indexed++
		return nil
	})
	return indexed, err
}

// DeleteDocument removes a document from the index and the store.
func (idx *Indexer) DeleteDocument(ctx context.Context, id string) error {
	doc, err := idx.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if err := idx.removeAll(ctx, []*models.Document{doc}); err != nil {
		return err
	}
	idx.changed()
	return nil
}

// DeletePath removes every passage extracted from the file at path. It
// returns the number of documents removed.
func (idx *Indexer) DeletePath(ctx context.Context, path string) (int, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, err
	}
	docs, err := idx.store.DocumentsByPath(ctx, abs)
	if err != nil {
		return 0, fmt.Errorf("failed to look up %s: %w", abs, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := idx.removeAll(ctx, docs); err != nil {
		return 0, err
	}
	idx.changed()
	idx.logger.Debug("removed file", zap.String("path", abs), zap.Int("passages", len(docs)))
	return len(docs), nil
}

func (idx *Indexer) removeAll(ctx context.Context, docs []*models.Document) error {
	for _, doc := range docs {
		if err := idx.index.Delete(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to unindex document %s: %w", doc.ID, err)
		}
		if err := idx.store.DeleteDocument(ctx, doc.ID); err != nil && !errors.Is(err, models.ErrDocumentNotFound) {
			return fmt.Errorf("failed to delete document %s: %w", doc.ID, err)
		}
		metrics.IndexedDocumentsTotal.WithLabelValues("delete").Inc()
	}
	return nil
}

func (idx *Indexer) changed() {
	for _, l := range idx.listeners {
		l.Invalidate()
	}
}
