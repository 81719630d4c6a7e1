package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/matome/internal/logger"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/storage"
	"go.uber.org/zap"
)

const defaultListLimit = 20

func (s *Server) handleIndexDocument(w http.ResponseWriter, r *http.Request) {
	var input models.DocumentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.handleError(w, r, badRequest("invalid request body: %v", err))
		return
	}
	s.indexDocument(w, r, &input, http.StatusCreated)
}

// handlePutDocument replaces the document {id}; the body is its source.
func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	var source map[string]any
	if err := json.NewDecoder(r.Body).Decode(&source); err != nil {
		s.handleError(w, r, badRequest("invalid request body: %v", err))
		return
	}
	s.indexDocument(w, r, &models.DocumentInput{ID: chi.URLParam(r, "id"), Source: source}, http.StatusOK)
}

func (s *Server) indexDocument(w http.ResponseWriter, r *http.Request, input *models.DocumentInput, status int) {
	logger.FromContext(r.Context(), s.logger).Debug("index document request", zap.String("id", input.ID))
	id, err := s.indexer.IndexDocument(r.Context(), input)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, status, map[string]string{"id": id, "status": "indexed"})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.storage.GetDocument(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	logger.FromContext(r.Context(), s.logger).Debug("delete document request", zap.String("id", id))
	if err := s.indexer.DeleteDocument(r.Context(), id); err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, err := intParam(q, "offset")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	docs, err := s.storage.ListDocuments(r.Context(), max(offset, 0), limit)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	total, err := s.storage.CountDocuments(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	if docs == nil {
		docs = []*models.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs, "total": total})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.storage.CountDocuments(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	sc := s.config.Storage
	resp := map[string]any{
		"index":      sc.IndexName,
		"documents":  count,
		"algorithms": s.engine.Algorithms(),
		"config": map[string]any{
			"database_path":    sc.DatabasePath,
			"bleve_index_path": sc.BleveIndexPath,
			"chunk_size":       s.config.Search.ChunkSize,
			"chunk_overlap":    s.config.Search.ChunkOverlap,
			"spell_check":      s.config.Search.SpellCheck,
			"watch":            s.config.Watch.Directories,
		},
	}
	if bytes, err := storage.DiskUsageBytes(sc.DatabasePath, sc.BleveIndexPath); err == nil {
		resp["disk_usage_bytes"] = bytes
	} else {
		logger.FromContext(r.Context(), s.logger).Warn("disk usage unavailable", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, resp)
}
