package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/wire"
)

func TestReorderArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected []string
	}{
		{
			name:     "flags after query are moved first",
			args:     []string{"data mining", "-algorithm", "stc"},
			expected: []string{"-algorithm", "stc", "data mining"},
		},
		{
			name:     "flags first returns unchanged",
			args:     []string{"-algorithm", "stc", "data mining"},
			expected: []string{"-algorithm", "stc", "data mining"},
		},
		{
			name:     "query only returns unchanged",
			args:     []string{"data mining"},
			expected: []string{"data mining"},
		},
		{
			name:     "empty args returns unchanged",
			args:     []string{},
			expected: []string{},
		},
		{
			name:     "multiple positionals then flags",
			args:     []string{"data", "mining", "-max-hits", "5"},
			expected: []string{"-max-hits", "5", "data", "mining"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reorderArgs(tt.args)
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("reorderArgs() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit.yaml")
	if err := os.WriteFile(explicit, []byte("server:\n  port: 9300\n"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, path, err := loadConfig(explicit)
	if err != nil {
		t.Fatal(err)
	}
	if path != explicit || cfg.Server.Port != 9300 {
		t.Errorf("loadConfig(explicit) = port %d from %s", cfg.Server.Port, path)
	}

	t.Run("working directory config wins over the default path", func(t *testing.T) {
		wd := t.TempDir()
		local := filepath.Join(wd, "config.yaml")
		if err := os.WriteFile(local, []byte("server:\n  port: 9400\n"), 0600); err != nil {
			t.Fatal(err)
		}
		prevWD, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		if err := os.Chdir(wd); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { os.Chdir(prevWD) })
		cfg, path, err := loadConfig(defaultConfigPath)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Server.Port != 9400 || filepath.Base(path) != "config.yaml" {
			t.Errorf("loadConfig(default) = port %d from %s", cfg.Server.Port, path)
		}
	})

	if _, _, err := loadConfig(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected an error for a missing config")
	}
}

func TestBuildRegistry(t *testing.T) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Clustering.Algorithms = []string{"byurl", "stc"}
	cfg.Clustering.STC.MaxClusters = 7

	registry, err := buildRegistry(&cfg.Clustering)
	if err != nil {
		t.Fatal(err)
	}
	if got := registry.List(); !reflect.DeepEqual(got, []string{"byurl", "stc"}) {
		t.Errorf("List() = %v", got)
	}
	stc, ok := registry.Get("stc")
	if !ok {
		t.Fatal("stc not registered")
	}
	if got := stc.Defaults()["max_clusters"]; got != 7 {
		t.Errorf("stc max_clusters default = %v, want 7", got)
	}

	cfg.Clustering.Algorithms = []string{"lingo"}
	if _, err := buildRegistry(&cfg.Clustering); err == nil {
		t.Error("expected an error for an unknown algorithm")
	}
}

func TestBuildClusteringRequest(t *testing.T) {
	f, query, err := parseClusterFlags([]string{"data", "mining", "-title", "source.title,highlight.title", "-max-hits", "3"})
	if err != nil {
		t.Fatal(err)
	}
	if query != "data mining" {
		t.Fatalf("query = %q", query)
	}
	req, err := buildClusteringRequest(f, query)
	if err != nil {
		t.Fatal(err)
	}
	if req.Hint() != "data mining" || req.MaxHits != 3 || req.Search.Size != 100 {
		t.Errorf("request = hint %q, max hits %d, size %d", req.Hint(), req.MaxHits, req.Search.Size)
	}
	var specs []string
	for _, s := range req.FieldMapping {
		specs = append(specs, s.String())
	}
	want := []string{"source.title", "highlight.title", "source.content", "source.url"}
	if !reflect.DeepEqual(specs, want) {
		t.Errorf("field mapping = %v, want %v", specs, want)
	}
	if req.Search.Highlight == nil || !reflect.DeepEqual(req.Search.Highlight.Fields, []string{"title"}) {
		t.Errorf("highlight = %+v", req.Search.Highlight)
	}

	f.title = "nowhere.title"
	if _, err := buildClusteringRequest(f, query); err == nil {
		t.Error("expected an error for an invalid field spec")
	}
}

func TestClusterViaHTTP(t *testing.T) {
	resp := &models.ClusteringResponse{
		Search: &models.SearchResult{Took: 2, Hits: models.Hits{Total: 1, Hits: []*models.Hit{{Index: "docs", ID: "d1"}}}},
		Groups: []*models.DocumentGroup{{ID: 0, Label: "Mining", Phrases: []string{"Mining"}, Score: 1, Documents: []string{"d1"}}},
		Info:   map[string]string{models.InfoAlgorithm: "stc"},
	}
	var gotType string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/_search_with_clusters" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		if gotType == wire.ContentType {
			w.Header().Set("Content-Type", wire.ContentType)
			_ = wire.EncodeResponse(w, resp)
			return
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	req := models.NewClusteringRequest(&models.SearchRequest{Query: "mining"}).SetQueryHint("mining")
	req.AddSourceFieldMapping("title", models.FieldTitle)

	for _, binary := range []bool{false, true} {
		got, err := clusterViaHTTP(srv.Client(), srv.URL+"/", req, binary)
		if err != nil {
			t.Fatalf("binary=%v: %v", binary, err)
		}
		if len(got.Groups) != 1 || got.Groups[0].Label != "Mining" || got.Info[models.InfoAlgorithm] != "stc" {
			t.Errorf("binary=%v: response = %+v", binary, got)
		}
		if binary {
			if gotType != wire.ContentType {
				t.Errorf("content type = %q", gotType)
			}
			decoded, err := wire.DecodeRequest(bytes.NewReader(gotBody))
			if err != nil || decoded.Hint() != "mining" {
				t.Errorf("binary request = %+v, %v", decoded, err)
			}
		} else if !strings.Contains(string(gotBody), `"query_hint":"mining"`) {
			t.Errorf("json request = %s", gotBody)
		}
	}
}

func TestClusterViaHTTP_ErrorReason(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"type":"parse_exception","reason":"bad json"},"status":400}`)
	}))
	defer srv.Close()

	req := models.NewClusteringRequest(&models.SearchRequest{}).SetQueryHint("")
	_, err := clusterViaHTTP(srv.Client(), srv.URL, req, false)
	if err == nil || !strings.Contains(err.Error(), "400: bad json") {
		t.Errorf("err = %v", err)
	}
}

func TestParseDocumentLine(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		wantID string
		title  any
	}{
		{"envelope", `{"id":"a","source":{"title":"A"}}`, "a", "A"},
		{"bare source", `{"id":"b","title":"B"}`, "b", "B"},
		{"bare source without id", `{"title":"C"}`, "", "C"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseDocumentLine([]byte(tt.line))
			if err != nil {
				t.Fatal(err)
			}
			if input.ID != tt.wantID || input.Source["title"] != tt.title {
				t.Errorf("parseDocumentLine() = %+v", input)
			}
		})
	}
	if _, err := parseDocumentLine([]byte(`[1,2]`)); err == nil {
		t.Error("expected an error for a non-object line")
	}
}

func TestRunInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")
	var out bytes.Buffer
	if err := runInitConfig([]string{path}, &out); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.Server.Port != 9200 || !reflect.DeepEqual(cfg.Clustering.Algorithms, config.DefaultAlgorithms) {
		t.Errorf("config = %+v", cfg)
	}
	if err := runInitConfig([]string{path}, &out); err == nil {
		t.Error("expected an error when the file exists")
	}
	if err := runInitConfig([]string{"-force", path}, &out); err != nil {
		t.Errorf("-force: %v", err)
	}
}
