// Package clustering runs a search, clusters its hits and composes the
// combined response.
package clustering

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/hyperjump/matome/internal/algorithm"
	"github.com/hyperjump/matome/internal/assembler"
	"github.com/hyperjump/matome/internal/logger"
	"github.com/hyperjump/matome/internal/metrics"
	"github.com/hyperjump/matome/internal/models"
	"go.uber.org/zap"
)

// Searcher executes the delegate search of a clustering request.
type Searcher interface {
	Search(ctx context.Context, req *models.SearchRequest) (*models.SearchResult, error)
}

// State is a step of request execution.
type State int

const (
	StateValidated State = iota
	StateSearching
	StateDocumentsAssembled
	StateClustering
	StateAdapting
	StateCompleted
	StateFailed
)

var stateNames = [...]string{
	StateValidated:          "validated",
	StateSearching:          "searching",
	StateDocumentsAssembled: "documents_assembled",
	StateClustering:         "clustering",
	StateAdapting:           "adapting",
	StateCompleted:          "completed",
	StateFailed:             "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
	return stateNames[s]
}

// Engine executes clustering requests. It holds no per-request state and is
// safe for concurrent use.
type Engine struct {
	searcher  Searcher
	registry  *algorithm.Registry
	assembler *assembler.Assembler
	logger    *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger used when the request context carries none.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithAssembler replaces the default document assembler.
func WithAssembler(a *assembler.Assembler) EngineOption {
	return func(e *Engine) { e.assembler = a }
}

// NewEngine returns an engine searching with searcher and clustering with
// the algorithms in registry.
func NewEngine(searcher Searcher, registry *algorithm.Registry, opts ...EngineOption) *Engine {
	e := &Engine{searcher: searcher, registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.assembler == nil {
		e.assembler = assembler.New(e.logger, nil)
	}
	return e
}

// Algorithms returns the ids of the available algorithms in registry order.
func (e *Engine) Algorithms() []string {
	return e.registry.List()
}

// Execute runs req: validate, search, assemble documents, cluster, adapt.
// Validation problems are returned as *models.ValidationError and search
// errors unchanged. An unknown algorithm is detected after the search and
// reported as *models.UnknownAlgorithmError. Algorithm failures are logged
// and returned as *models.ClusteringError.
func (e *Engine) Execute(ctx context.Context, req *models.ClusteringRequest) (*models.ClusteringResponse, error) {
	log := logger.FromContext(ctx, e.logger)
	trace := func(s State) {
		log.Debug("clustering request state", zap.Stringer("state", s))
	}
	fail := func(algorithmID, status string) {
		trace(StateFailed)
		metrics.ClusteringRequestsTotal.WithLabelValues(algorithmID, status).Inc()
	}

	if err := req.Validate(); err != nil {
		fail(req.Algorithm, metrics.StatusInvalid)
		return nil, err
	}
	trace(StateValidated)

	trace(StateSearching)
	searchStart := time.Now()
	result, err := e.searcher.Search(ctx, req.Search)
	searchTime := time.Since(searchStart)
	algorithmID := req.Algorithm
	if algorithmID == "" {
		algorithmID, _ = e.registry.DefaultID()
	}
	metrics.ObservePhase(metrics.PhaseSearch, algorithmID, searchTime)
	if err != nil {
		fail(req.Algorithm, metrics.StatusSearchFailed)
		return nil, err
	}
	if result == nil {
		result = &models.SearchResult{}
	}

	if !e.registry.Has(algorithmID) {
		fail(algorithmID, metrics.StatusUnknownAlgorithm)
		return nil, &models.UnknownAlgorithmError{ID: algorithmID}
	}

	docs := e.assembler.Assemble(result.Hits.Hits, req.FieldMapping)
	metrics.DocumentsAssembledTotal.Add(float64(len(docs)))
	trace(StateDocumentsAssembled)

	trace(StateClustering)
	clusterStart := time.Now()
	clusters, err := e.registry.Cluster(ctx, docs, req.Hint(), algorithmID, applySeeds(req.Attributes))
	clusteringTime := time.Since(clusterStart)
	if err != nil {
		var unknown *models.UnknownAlgorithmError
		if errors.As(err, &unknown) {
			fail(algorithmID, metrics.StatusUnknownAlgorithm)
			return nil, err
		}
		log.Error("Could not process clustering request.",
			zap.String("algorithm", algorithmID),
			zap.Int("documents", len(docs)),
			zap.Error(err))
		fail(algorithmID, metrics.StatusClusteringFailed)
		return nil, models.NewClusteringError(err)
	}
	metrics.ObservePhase(metrics.PhaseClustering, algorithmID, clusteringTime)
	metrics.ClustersProducedTotal.WithLabelValues(algorithmID).Add(float64(len(clusters)))

	trace(StateAdapting)
	groups := Adapt(clusters)
	totalTime := time.Since(searchStart)

	maxHits := ""
	if req.MaxHits != models.Unlimited {
		maxHits = strconv.Itoa(req.MaxHits)
	}
	info := map[string]string{
		models.InfoAlgorithm:        algorithmID,
		models.InfoSearchMillis:     strconv.FormatInt(searchTime.Milliseconds(), 10),
		models.InfoClusteringMillis: strconv.FormatInt(clusteringTime.Milliseconds(), 10),
		models.InfoTotalMillis:      strconv.FormatInt(totalTime.Milliseconds(), 10),
		models.InfoIncludeHits:      strconv.FormatBool(req.IncludeHits()),
		models.InfoMaxHits:          maxHits,
	}

	trace(StateCompleted)
	metrics.ClusteringRequestsTotal.WithLabelValues(algorithmID, metrics.StatusOK).Inc()
	return &models.ClusteringResponse{
		Search: TrimHits(result, req.MaxHits),
		Groups: groups,
		Info:   info,
	}, nil
}
