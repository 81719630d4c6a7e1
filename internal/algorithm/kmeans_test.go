package algorithm

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/hyperjump/matome/internal/embedding"
	"github.com/hyperjump/matome/internal/models"
)

func kmeansDocs() []*models.ClusteringDocument {
	return []*models.ClusteringDocument{
		doc("a1", "solar panel energy", ""),
		doc("b1", "football match goal", ""),
		doc("a2", "solar energy storage", ""),
		doc("b2", "football goal keeper", ""),
		doc("empty", "", "..."),
	}
}

func TestKMeansCluster(t *testing.T) {
	k := NewKMeans(embedding.NewHashEmbedder(1024))
	clusters, err := k.Cluster(context.Background(), kmeansDocs(), "", map[string]any{"k": 2, "max_iterations": 10, "label_terms": 3})
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(clusters) != 3 {
		t.Fatalf("expected 2 clusters plus other topics, got %d", len(clusters))
	}

	if got := docIDs(clusters[0]); !reflect.DeepEqual(got, []string{"a1", "a2"}) {
		t.Errorf("first cluster = %v", got)
	}
	if got := docIDs(clusters[1]); !reflect.DeepEqual(got, []string{"b1", "b2"}) {
		t.Errorf("second cluster = %v", got)
	}
	if !strings.Contains(strings.ToLower(clusters[0].Label), "solar") {
		t.Errorf("first label = %q", clusters[0].Label)
	}
	if len(clusters[0].Phrases) != 3 {
		t.Errorf("phrases = %v", clusters[0].Phrases)
	}
	if clusters[0].Score <= 0 {
		t.Errorf("score = %v", clusters[0].Score)
	}

	other := clusters[2]
	if !other.OtherTopics || !reflect.DeepEqual(docIDs(other), []string{"empty"}) {
		t.Errorf("other topics = %+v", other)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	k := NewKMeans(nil)
	first, err := k.Cluster(context.Background(), kmeansDocs(), "", k.Defaults())
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	second, err := k.Cluster(context.Background(), kmeansDocs(), "", k.Defaults())
	if err != nil {
		t.Fatalf("Cluster: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("runs differ: %d vs %d clusters", len(first), len(second))
	}
	for i := range first {
		if first[i].Label != second[i].Label || !reflect.DeepEqual(docIDs(first[i]), docIDs(second[i])) {
			t.Errorf("cluster %d differs: %q vs %q", i, first[i].Label, second[i].Label)
		}
	}
}

func TestKMeansBadK(t *testing.T) {
	k := NewKMeans(nil)
	_, err := k.Cluster(context.Background(), kmeansDocs(), "", map[string]any{"k": 0})
	var algErr *Error
	if !errors.As(err, &algErr) || algErr.Attribute != "k" {
		t.Fatalf("expected attribute error for k, got %v", err)
	}
}

func TestKMeansCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewKMeans(nil).Cluster(ctx, kmeansDocs(), "", nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
