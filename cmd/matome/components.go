package main

import (
	"fmt"

	"github.com/hyperjump/matome/internal/algorithm"
	"github.com/hyperjump/matome/internal/assembler"
	"github.com/hyperjump/matome/internal/clustering"
	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/embedding"
	"github.com/hyperjump/matome/internal/extract"
	"github.com/hyperjump/matome/internal/indexer"
	"github.com/hyperjump/matome/internal/keyword"
	"github.com/hyperjump/matome/internal/search"
	"github.com/hyperjump/matome/internal/storage"
	"go.uber.org/zap"
)

// Components holds the wired services of a local index.
type Components struct {
	Storage *storage.SQLiteStorage
	Index   *keyword.BleveIndex
	Indexer *indexer.Indexer
	Engine  *clustering.Engine
}

// Close releases the index and the database.
func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

func initializeComponents(cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	c := &Components{Storage: store}
	c.Index, err = keyword.NewBleveIndex(cfg.Storage.BleveIndexPath, cfg.Storage.IndexName)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to open index: %w", err)
	}

	registry, err := buildRegistry(&cfg.Clustering)
	if err != nil {
		c.Close()
		return nil, err
	}

	var idxOpts []indexer.Option
	searchOpts := []search.Option{search.WithLogger(logger)}
	if cfg.Search.SpellCheck {
		speller := keyword.NewSpellChecker(c.Index, keyword.WithMaxDistance(cfg.Search.SpellMaxDistance))
		searchOpts = append(searchOpts, search.WithSpellChecker(speller))
		idxOpts = append(idxOpts, indexer.WithInvalidator(speller))
	}
	idxOpts = append(idxOpts, indexer.WithLogger(logger))

	c.Indexer = indexer.NewIndexer(store, c.Index, extract.NewExtractor(), &cfg.Search, idxOpts...)
	searcher := search.NewEngine(c.Index, store, &cfg.Search, searchOpts...)
	c.Engine = clustering.NewEngine(searcher, registry,
		clustering.WithLogger(logger),
		clustering.WithAssembler(assembler.New(logger, nil, assembler.WithStripMarkup())),
	)
	return c, nil
}

// buildRegistry registers the configured algorithms in order, with their
// defaults taken from the config.
func buildRegistry(cfg *config.ClusteringConfig) (*algorithm.Registry, error) {
	embedder := embedding.WithCache(embedding.NewHashEmbedder(cfg.EmbeddingDimensions), cfg.EmbeddingCacheSize)
	defaults := map[string]map[string]any{
		"stc": {
			"max_clusters":     cfg.STC.MaxClusters,
			"min_cluster_size": cfg.STC.MinClusterSize,
		},
		"kmeans": {
			"k":              cfg.KMeans.K,
			"max_iterations": cfg.KMeans.MaxIterations,
		},
	}
	algs := make([]algorithm.Algorithm, 0, len(cfg.Algorithms))
	for _, id := range cfg.Algorithms {
		alg, err := algorithm.Builtin(id, embedder)
		if err != nil {
			return nil, err
		}
		algs = append(algs, algorithm.WithDefaults(alg, defaults[id]))
	}
	return algorithm.NewRegistry(algs...), nil
}
