package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Clustering pipeline metrics.
var (
	ClusteringRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clustering_requests_total",
			Help:      "Clustering requests by algorithm and outcome",
		},
		[]string{"algorithm", "status"},
	)

	ClusteringPhaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clustering_phase_duration_seconds",
			Help:      "Duration of the search and clustering phases",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"phase", "algorithm"},
	)

	DocumentsAssembledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_assembled_total",
			Help:      "Documents assembled from search hits for clustering",
		},
	)

	ClustersProducedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clusters_produced_total",
			Help:      "Top-level clusters produced by algorithm",
		},
		[]string{"algorithm"},
	)

	IndexedDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "indexed_documents_total",
			Help:      "Corpus documents indexed or deleted",
		},
		[]string{"operation"},
	)
)

// Request outcomes used as the status label.
const (
	StatusOK               = "ok"
	StatusInvalid          = "invalid"
	StatusSearchFailed     = "search_failed"
	StatusUnknownAlgorithm = "unknown_algorithm"
	StatusClusteringFailed = "clustering_failed"
)

// Phases used as the phase label.
const (
	PhaseSearch     = "search"
	PhaseClustering = "clustering"
)

var registerOnce sync.Once

// Register registers every collector with the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			ClusteringRequestsTotal,
			ClusteringPhaseDuration,
			DocumentsAssembledTotal,
			ClustersProducedTotal,
			IndexedDocumentsTotal,
		)
	})
}

// ObservePhase records the duration of one pipeline phase.
func ObservePhase(phase, algorithm string, d time.Duration) {
	ClusteringPhaseDuration.WithLabelValues(phase, algorithm).Observe(d.Seconds())
}
