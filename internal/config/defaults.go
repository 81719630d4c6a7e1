package config

// DefaultAlgorithms is the algorithm order used when none is configured.
var DefaultAlgorithms = []string{"stc", "kmeans", "byurl"}

// DefaultExtensions are the corpus file types indexed when none are configured.
var DefaultExtensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".pptx", ".odp", ".ods", ".odt", ".rtf"}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 9200
	}
	if cfg.Server.ReadTimeoutSec <= 0 {
		cfg.Server.ReadTimeoutSec = 30
	}
	if cfg.Server.WriteTimeoutSec <= 0 {
		cfg.Server.WriteTimeoutSec = 60
	}
	if cfg.Server.ShutdownTimeoutSec <= 0 {
		cfg.Server.ShutdownTimeoutSec = 10
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/matome/data/db/documents.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/matome/data/indices/bleve"
	}
	if cfg.Storage.IndexName == "" {
		cfg.Storage.IndexName = "documents"
	}
	if len(cfg.Clustering.Algorithms) == 0 {
		cfg.Clustering.Algorithms = append([]string(nil), DefaultAlgorithms...)
	}
	if cfg.Clustering.EmbeddingDimensions <= 0 {
		cfg.Clustering.EmbeddingDimensions = 1024
	}
	if cfg.Clustering.EmbeddingCacheSize <= 0 {
		cfg.Clustering.EmbeddingCacheSize = 10000
	}
	if cfg.Clustering.STC.MaxClusters <= 0 {
		cfg.Clustering.STC.MaxClusters = 15
	}
	if cfg.Clustering.STC.MinClusterSize <= 0 {
		cfg.Clustering.STC.MinClusterSize = 2
	}
	if cfg.Clustering.KMeans.K <= 0 {
		cfg.Clustering.KMeans.K = 5
	}
	if cfg.Clustering.KMeans.MaxIterations <= 0 {
		cfg.Clustering.KMeans.MaxIterations = 15
	}
	if cfg.Search.DefaultSize <= 0 {
		cfg.Search.DefaultSize = 100
	}
	if cfg.Search.MaxSize <= 0 {
		cfg.Search.MaxSize = 1000
	}
	if cfg.Search.SpellMaxDistance <= 0 {
		cfg.Search.SpellMaxDistance = 2
	}
	if cfg.Search.ChunkSize <= 0 {
		cfg.Search.ChunkSize = 512
	}
	if cfg.Search.ChunkOverlap <= 0 {
		cfg.Search.ChunkOverlap = 50
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if len(cfg.Watch.Directories) > 0 && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
