// Package main is the matome CLI entry point.
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/matome/internal/cli"
	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/logger"
	"github.com/hyperjump/matome/internal/metrics"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/server"
	"github.com/hyperjump/matome/internal/watcher"
	"github.com/hyperjump/matome/internal/wire"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/matome/config.yaml"

// loadConfig loads config from path. For the default path a config.yaml in
// the working directory takes precedence, so running from a project
// directory picks up its config. It returns the path actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, err := os.Getwd(); err == nil {
			local := filepath.Join(cwd, "config.yaml")
			if _, err := os.Stat(local); err == nil {
				path = local
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}
	var err error
	switch command, args := os.Args[1], os.Args[2:]; command {
	case "server":
		err = runServer(args)
	case "cluster":
		err = runCluster(args, os.Stdout)
	case "index":
		err = runIndex(args, os.Stdin, os.Stdout)
	case "delete":
		err = runDelete(args, os.Stdout)
	case "algorithms":
		err = runAlgorithms(args, os.Stdout)
	case "init-config":
		err = runInitConfig(args, os.Stdout)
	case "version", "--version", "-v":
		fmt.Printf("matome version %s\n", version)
	case "help", "--help", "-h":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `matome clusters search results into labeled topic groups.

Usage:
  matome server [-config path] [-debug]      start the HTTP server and directory watcher
  matome cluster [flags] <query>            cluster the hits of a query on a running server
  matome index [-config path] <path|->      index a file, a directory, or JSON documents from stdin
  matome delete [-config path] [-path] <id|path>
                                            delete a document, or every passage of a file
  matome algorithms [-config path]          list the configured clustering algorithms
  matome init-config [-force] <path>        write a config file with default values
  matome version                            print the version
`)
}

func runServer(args []string) error {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(args)

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	debugMode := cfg.Debug || *debug
	log, err := logger.NewLogger(debugMode, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	log.Info("config loaded", zap.String("config_path", resolved), zap.Bool("debug", debugMode))

	metrics.Register()
	components, err := initializeComponents(cfg, log)
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(cfg.Watch.Directories) > 0 {
		startWatcher(ctx, cfg, components, log)
	}

	srv := server.NewServer(components.Engine, components.Indexer, components.Storage, cfg, log)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

// startWatcher indexes the watched directories and keeps them in sync
// until ctx is done.
func startWatcher(ctx context.Context, cfg *config.Config, c *Components, log *zap.Logger) {
	idx := c.Indexer
	w := watcher.New(cfg.Watch.Directories, cfg.Watch.Extensions, cfg.Watch.RecursiveOrDefault(),
		func(path string) {
			if _, err := idx.IndexFile(ctx, path); err != nil {
				log.Warn("failed to index file", zap.String("path", path), zap.Error(err))
			}
		},
		func(path string) {
			if _, err := idx.DeletePath(ctx, path); err != nil {
				log.Warn("failed to remove file", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(log),
	)
	go func() {
		if err := w.Run(ctx); err != nil {
			log.Error("watcher stopped", zap.Error(err))
		}
	}()
	go func() {
		for _, dir := range cfg.Watch.Directories {
			n, err := idx.IndexDirectory(ctx, dir, cfg.Watch.Extensions)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("initial sync failed", zap.String("dir", dir), zap.Error(err))
				continue
			}
			log.Info("initial sync done", zap.String("dir", dir), zap.Int("files", n))
		}
	}()
}

// clusterFlags are the options of the cluster command.
type clusterFlags struct {
	server    string
	index     string
	algorithm string
	hint      string
	size      int
	maxHits   int
	title     string
	content   string
	url       string
	output    string
	binary    bool
}

func parseClusterFlags(args []string) (*clusterFlags, string, error) {
	f := &clusterFlags{}
	fs := flag.NewFlagSet("cluster", flag.ContinueOnError)
	fs.StringVar(&f.server, "server", "http://localhost:9200", "server URL")
	fs.StringVar(&f.index, "index", "", "index name (default: the server's index)")
	fs.StringVar(&f.algorithm, "algorithm", "", "clustering algorithm (default: the server's first)")
	fs.StringVar(&f.hint, "hint", "", "query hint (default: the query)")
	fs.IntVar(&f.size, "size", 100, "number of hits to cluster")
	fs.IntVar(&f.maxHits, "max-hits", -1, "number of hits to return with the clusters (-1 = all)")
	fs.StringVar(&f.title, "title", "source.title", "comma-separated field specs mapped to the title")
	fs.StringVar(&f.content, "content", "source.content", "comma-separated field specs mapped to the content")
	fs.StringVar(&f.url, "url", "source.url", "comma-separated field specs mapped to the URL")
	fs.StringVar(&f.output, "output", "text", "output format: text or json")
	fs.BoolVar(&f.binary, "binary", false, "use the binary wire format")
	if err := fs.Parse(reorderArgs(args)); err != nil {
		return nil, "", err
	}
	return f, strings.TrimSpace(strings.Join(fs.Args(), " ")), nil
}

// reorderArgs moves flags that follow the query to the front, since flag
// parsing stops at the first positional argument.
func reorderArgs(args []string) []string {
	for i, a := range args {
		if strings.HasPrefix(a, "-") {
			if i == 0 {
				return args
			}
			return append(append([]string{}, args[i:]...), args[:i]...)
		}
	}
	return args
}

// buildClusteringRequest turns the cluster command flags into a request.
func buildClusteringRequest(f *clusterFlags, query string) (*models.ClusteringRequest, error) {
	req := models.NewClusteringRequest(&models.SearchRequest{Index: f.index, Query: query, Size: f.size})
	hint := f.hint
	if hint == "" {
		hint = query
	}
	req.SetQueryHint(hint)
	req.Algorithm = f.algorithm
	if f.maxHits >= 0 {
		req.SetMaxHits(f.maxHits)
	}
	mappings := []struct {
		lf    models.LogicalField
		specs string
	}{
		{models.FieldTitle, f.title},
		{models.FieldContent, f.content},
		{models.FieldURL, f.url},
	}
	for _, m := range mappings {
		lf := m.lf
		for _, spec := range strings.Split(m.specs, ",") {
			if spec = strings.TrimSpace(spec); spec == "" {
				continue
			}
			if err := req.AddFieldMappingSpec(spec, lf); err != nil {
				return nil, err
			}
			if strings.HasPrefix(spec, models.FromHighlight.Prefix()) {
				if req.Search.Highlight == nil {
					req.Search.Highlight = &models.HighlightRequest{}
				}
				req.Search.Highlight.Fields = append(req.Search.Highlight.Fields, strings.TrimPrefix(spec, models.FromHighlight.Prefix()))
			}
		}
	}
	return req, nil
}

func runCluster(args []string, stdout io.Writer) error {
	f, query, err := parseClusterFlags(args)
	if err != nil {
		return err
	}
	format, err := cli.ParseOutputFormat(f.output)
	if err != nil {
		return err
	}
	req, err := buildClusteringRequest(f, query)
	if err != nil {
		return err
	}
	resp, err := clusterViaHTTP(http.DefaultClient, f.server, req, f.binary)
	if err != nil {
		return err
	}
	titleField := strings.TrimPrefix(strings.TrimPrefix(strings.Split(f.title, ",")[0], "source."), "field.")
	return cli.WriteClusters(stdout, resp, format, titleField)
}

// clusterViaHTTP posts req to the server's _search_with_clusters endpoint.
func clusterViaHTTP(client *http.Client, serverURL string, req *models.ClusteringRequest, binary bool) (*models.ClusteringResponse, error) {
	var body bytes.Buffer
	contentType := "application/json"
	if binary {
		contentType = wire.ContentType
		if err := wire.EncodeRequest(&body, req); err != nil {
			return nil, err
		}
	} else if err := json.NewEncoder(&body).Encode(req); err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequest(http.MethodPost, strings.TrimRight(serverURL, "/")+"/_search_with_clusters", &body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", contentType)
	res, err := client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var e struct {
			Error struct {
				Reason string `json:"reason"`
			} `json:"error"`
		}
		data, _ := io.ReadAll(res.Body)
		if json.Unmarshal(data, &e) == nil && e.Error.Reason != "" {
			return nil, fmt.Errorf("server returned %d: %s", res.StatusCode, e.Error.Reason)
		}
		return nil, fmt.Errorf("server returned %d: %s", res.StatusCode, strings.TrimSpace(string(data)))
	}
	if binary {
		return wire.DecodeResponse(res.Body)
	}
	var resp models.ClusteringResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("invalid response: %w", err)
	}
	return &resp, nil
}

func runIndex(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: matome index [-config path] <path|->")
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer c.Close()
	ctx := context.Background()

	target := fs.Arg(0)
	if target == "-" {
		n, err := indexStream(ctx, c, stdin)
		fmt.Fprintf(stdout, "Indexed %d documents\n", n)
		return err
	}
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if info.IsDir() {
		n, err := c.Indexer.IndexDirectory(ctx, target, cfg.Watch.Extensions)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Indexed %d files from %s\n", n, target)
		return nil
	}
	n, err := c.Indexer.IndexFile(ctx, target)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Indexed %s (%d passages)\n", target, n)
	return nil
}

// indexStream indexes one JSON document per line: either {"id", "source"}
// or a bare source object.
func indexStream(ctx context.Context, c *Components, r io.Reader) (int, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16<<20)
	var n, line int
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 {
			continue
		}
		input, err := parseDocumentLine(text)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		if _, err := c.Indexer.IndexDocument(ctx, input); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
	return n, scanner.Err()
}

func parseDocumentLine(line []byte) (*models.DocumentInput, error) {
	var input models.DocumentInput
	if err := json.Unmarshal(line, &input); err != nil {
		return nil, err
	}
	if input.Source != nil {
		return &input, nil
	}
	var source map[string]any
	if err := json.Unmarshal(line, &source); err != nil {
		return nil, err
	}
	id, _ := source["id"].(string)
	return &models.DocumentInput{ID: id, Source: source}, nil
}

func runDelete(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	byPath := fs.Bool("path", false, "treat the argument as a file path and delete all its passages")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: matome delete [-config path] [-path] <id|path>")
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	c, err := initializeComponents(cfg, zap.NewNop())
	if err != nil {
		return err
	}
	defer c.Close()

	if *byPath {
		n, err := c.Indexer.DeletePath(context.Background(), fs.Arg(0))
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Deleted %d passages of %s\n", n, fs.Arg(0))
		return nil
	}
	if err := c.Indexer.DeleteDocument(context.Background(), fs.Arg(0)); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Deleted %s\n", fs.Arg(0))
	return nil
}

func runAlgorithms(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("algorithms", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(args)

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	registry, err := buildRegistry(&cfg.Clustering)
	if err != nil {
		return err
	}
	for i, id := range registry.List() {
		if i == 0 {
			fmt.Fprintf(stdout, "%s (default)\n", id)
		} else {
			fmt.Fprintln(stdout, id)
		}
	}
	return nil
}

func runInitConfig(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	force := fs.Bool("force", false, "overwrite an existing file")
	_ = fs.Parse(args)
	path := defaultConfigPath
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}
	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists; use -force to overwrite", path)
	}
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	if err := config.Save(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %s\n", path)
	return nil
}
