// Package config provides configuration loading and structs for the matome server.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Clustering ClusteringConfig `yaml:"clustering"`
	Search     SearchConfig     `yaml:"search"`
	Watch      WatchConfig      `yaml:"watch"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	ReadTimeoutSec     int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec    int    `yaml:"write_timeout_sec"`
	ShutdownTimeoutSec int    `yaml:"shutdown_timeout_sec"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig holds paths for the document database and the full-text index.
// IndexName is the index name hits report and REST paths must use.
type StorageConfig struct {
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
	IndexName      string `yaml:"index_name"`
}

// ClusteringConfig selects the available algorithms and their defaults.
// The first entry of Algorithms is the default algorithm.
type ClusteringConfig struct {
	Algorithms          []string     `yaml:"algorithms"`
	EmbeddingDimensions int          `yaml:"embedding_dimensions"`
	EmbeddingCacheSize  int          `yaml:"embedding_cache_size"`
	STC                 STCConfig    `yaml:"stc"`
	KMeans              KMeansConfig `yaml:"kmeans"`
}

// STCConfig holds shared-term clustering defaults.
type STCConfig struct {
	MaxClusters    int `yaml:"max_clusters"`
	MinClusterSize int `yaml:"min_cluster_size"`
}

// KMeansConfig holds k-means defaults.
type KMeansConfig struct {
	K             int `yaml:"k"`
	MaxIterations int `yaml:"max_iterations"`
}

// SearchConfig holds delegate search and chunking settings.
type SearchConfig struct {
	DefaultSize           int  `yaml:"default_size"`
	MaxSize               int  `yaml:"max_size"`
	HighlightFragmentSize int  `yaml:"highlight_fragment_size"`
	SpellCheck            bool `yaml:"spell_check"`
	SpellMaxDistance      int  `yaml:"spell_max_distance"`
	ChunkSize             int  `yaml:"chunk_size"`
	ChunkOverlap          int  `yaml:"chunk_overlap"`
}

// WatchConfig holds corpus directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: by debug flag)
}

// Load reads and parses the config file at path, substitutes environment
// variables, applies defaults, expands paths and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Storage.BleveIndexPath = expandPath(cfg.Storage.BleveIndexPath, configDir)
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Storage.IndexName == "" || strings.HasPrefix(c.Storage.IndexName, "_") {
		errs = append(errs, fmt.Errorf("storage.index_name must be non-empty and not start with '_', got %q", c.Storage.IndexName))
	}
	seen := make(map[string]bool, len(c.Clustering.Algorithms))
	for _, id := range c.Clustering.Algorithms {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, errors.New("clustering.algorithms must not contain empty ids"))
			continue
		}
		if seen[id] {
			errs = append(errs, fmt.Errorf("clustering.algorithms lists %q twice", id))
		}
		seen[id] = true
	}
	if c.Search.DefaultSize > c.Search.MaxSize {
		errs = append(errs, fmt.Errorf("search.default_size (%d) exceeds search.max_size (%d)", c.Search.DefaultSize, c.Search.MaxSize))
	}
	if c.Search.ChunkOverlap >= c.Search.ChunkSize {
		errs = append(errs, fmt.Errorf("search.chunk_overlap (%d) must be smaller than search.chunk_size (%d)", c.Search.ChunkOverlap, c.Search.ChunkSize))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}
	return errors.Join(errs...)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		name, def, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(name)
		if val == "" && hasDefault {
			val = def
		}
		return []byte(val)
	})
}
