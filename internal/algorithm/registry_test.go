package algorithm

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/hyperjump/matome/internal/models"
)

type recordingAlgorithm struct {
	id       string
	defaults map[string]any
	attrs    map[string]any
	result   []*models.Cluster
}

func (r *recordingAlgorithm) ID() string               { return r.id }
func (r *recordingAlgorithm) Defaults() map[string]any { return r.defaults }
func (r *recordingAlgorithm) Cluster(_ context.Context, _ []*models.ClusteringDocument, _ string, attrs map[string]any) ([]*models.Cluster, error) {
	r.attrs = attrs
	return r.result, nil
}

func TestDefaultRegistry(t *testing.T) {
	r := Default(nil)
	want := []string{"stc", "kmeans", "byurl"}
	if got := r.List(); !reflect.DeepEqual(got, want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	if id, ok := r.DefaultID(); !ok || id != "stc" {
		t.Errorf("DefaultID() = %q, %v", id, ok)
	}
	if !r.Has("byurl") || r.Has("lingo") {
		t.Error("Has reports wrong membership")
	}
}

func TestRegistryEmpty(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.DefaultID(); ok {
		t.Error("empty registry should have no default")
	}
	if len(r.List()) != 0 {
		t.Errorf("List() = %v", r.List())
	}
}

func TestRegistryReplaceSkipsDuplicates(t *testing.T) {
	r := NewRegistry(&recordingAlgorithm{id: "a"}, &recordingAlgorithm{id: "b"}, &recordingAlgorithm{id: "a"})
	if got := r.List(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("List() = %v", got)
	}
	r.Replace(&recordingAlgorithm{id: "c"})
	if got := r.List(); !reflect.DeepEqual(got, []string{"c"}) {
		t.Fatalf("List() after Replace = %v", got)
	}
}

func TestRegistryClusterUnknown(t *testing.T) {
	r := NewRegistry(&recordingAlgorithm{id: "a"})
	_, err := r.Cluster(context.Background(), nil, "", "nope", nil)
	var unknown *models.UnknownAlgorithmError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownAlgorithmError, got %v", err)
	}
	if unknown.ID != "nope" {
		t.Errorf("ID = %q", unknown.ID)
	}
	if !errors.Is(err, models.ErrUnknownAlgorithm) {
		t.Error("expected errors.Is ErrUnknownAlgorithm")
	}
}

func TestRegistryClusterMergesDefaultsAndNumbers(t *testing.T) {
	alg := &recordingAlgorithm{
		id:       "rec",
		defaults: map[string]any{"k": 5, "depth": 2},
		result: []*models.Cluster{
			{Label: "a", Subclusters: []*models.Cluster{{Label: "a1"}, {Label: "a2"}}},
			{Label: "b"},
		},
	}
	r := NewRegistry(alg)

	clusters, err := r.Cluster(context.Background(), nil, "", "rec", map[string]any{"k": 3})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if want := map[string]any{"k": 3, "depth": 2}; !reflect.DeepEqual(alg.attrs, want) {
		t.Errorf("attrs = %v, want %v", alg.attrs, want)
	}
	if alg.defaults["k"] != 5 {
		t.Error("defaults were modified")
	}

	ids := map[string]int{}
	var walk func([]*models.Cluster)
	walk = func(cs []*models.Cluster) {
		for _, c := range cs {
			ids[c.Label] = c.ID
			walk(c.Subclusters)
		}
	}
	walk(clusters)
	want := map[string]int{"a": 0, "a1": 1, "a2": 2, "b": 3}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}
}

func TestIntAttr(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int
		wantErr bool
	}{
		{"missing", nil, 7, false},
		{"int", 3, 3, false},
		{"int64", int64(4), 4, false},
		{"json number", float64(5), 5, false},
		{"fraction", 1.5, 0, true},
		{"string", "6", 6, false},
		{"bad string", "six", 0, true},
		{"bool", true, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attrs := map[string]any{}
			if tt.value != nil {
				attrs["n"] = tt.value
			}
			got, err := intAttr("alg", attrs, "n", 7)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuiltin(t *testing.T) {
	for _, id := range []string{"stc", "kmeans", "byurl"} {
		alg, err := Builtin(id, nil)
		if err != nil {
			t.Fatalf("Builtin(%q): %v", id, err)
		}
		if alg.ID() != id {
			t.Errorf("Builtin(%q).ID() = %q", id, alg.ID())
		}
	}
	if _, err := Builtin("lingo", nil); err == nil {
		t.Error("expected error for unknown built-in")
	}
}

func TestWithDefaults(t *testing.T) {
	base := &recordingAlgorithm{id: "a", defaults: map[string]any{"k": 5, "keep": true}}
	if WithDefaults(base, nil) != Algorithm(base) {
		t.Error("no defaults should return the algorithm itself")
	}

	alg := WithDefaults(base, map[string]any{"k": 3})
	if alg.ID() != "a" {
		t.Errorf("ID() = %q", alg.ID())
	}
	got := alg.Defaults()
	if got["k"] != 3 || got["keep"] != true {
		t.Errorf("Defaults() = %v", got)
	}
	if base.defaults["k"] != 5 {
		t.Error("wrapped defaults modified")
	}

	r := NewRegistry(alg)
	if _, err := r.Cluster(context.Background(), nil, "", "a", map[string]any{"k": 7}); err != nil {
		t.Fatal(err)
	}
	if base.attrs["k"] != 7 {
		t.Errorf("request attributes must win, got %v", base.attrs)
	}
}
