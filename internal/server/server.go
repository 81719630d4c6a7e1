// Package server exposes clustering, document and status endpoints over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hyperjump/matome/internal/clustering"
	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/indexer"
	"github.com/hyperjump/matome/internal/logger"
	"github.com/hyperjump/matome/internal/metrics"
	"github.com/hyperjump/matome/internal/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Server is the HTTP server of the clustering service.
type Server struct {
	engine        *clustering.Engine
	indexer       *indexer.Indexer
	storage       storage.Storage
	config        *config.Config
	logger        *zap.Logger
	errorHandlers []errorHandler
	server        *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(
	engine *clustering.Engine,
	idx *indexer.Indexer,
	store storage.Storage,
	cfg *config.Config,
	log *zap.Logger,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		engine:  engine,
		indexer: idx,
		storage: store,
		config:  cfg,
		logger:  log,
	}
	s.errorHandlers = defaultErrorHandlers()
	return s
}

// Router returns the HTTP handler serving every endpoint.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())

	for _, pattern := range []string{
		"/_search_with_clusters",
		"/{index}/_search_with_clusters",
		"/{index}/{type}/_search_with_clusters",
	} {
		r.Get(pattern, s.handleCluster)
		r.Post(pattern, s.handleCluster)
	}
	r.Get("/_algorithms", s.handleAlgorithms)

	r.Route("/api/v1/documents", func(r chi.Router) {
		r.Get("/", s.handleListDocuments)
		r.Post("/", s.handleIndexDocument)
		r.Get("/{id}", s.handleGetDocument)
		r.Put("/{id}", s.handlePutDocument)
		r.Delete("/{id}", s.handleDeleteDocument)
	})
	r.Get("/api/v1/status", s.handleStatus)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// requestLogger stores a logger tagged with the request id in the request
// context.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := s.logger.With(zap.String("request_id", middleware.GetReqID(r.Context())))
		next.ServeHTTP(w, r.WithContext(logger.ContextWithLogger(r.Context(), l)))
	})
}

// Start starts the HTTP server and blocks until it stops. A server stopped
// by Stop returns nil.
func (s *Server) Start() error {
	sc := s.config.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  time.Duration(sc.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(sc.WriteTimeoutSec) * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", sc.Addr()))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
