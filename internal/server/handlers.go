package server

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/matome/internal/logger"
	"github.com/hyperjump/matome/internal/models"
	"github.com/hyperjump/matome/internal/wire"
	"go.uber.org/zap"
)

const maxBodyBytes = 16 << 20

// handleCluster serves _search_with_clusters. POST reads a JSON or binary
// request body; GET is bound from URL parameters and must not carry a body.
func (s *Server) handleCluster(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.logger)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.handleError(w, r, badRequest("failed to read request body: %v", err))
		return
	}
	hasBody := len(bytes.TrimSpace(body)) > 0
	if r.Method == http.MethodPost && !hasBody {
		s.handleError(w, r, badRequest("Request body was expected for a POST request."))
		return
	}
	if r.Method == http.MethodGet && hasBody {
		s.handleError(w, r, badRequest("Request body was unexpected for a GET request."))
		return
	}

	var req *models.ClusteringRequest
	switch {
	case r.Method == http.MethodGet:
		req = models.NewClusteringRequest(&models.SearchRequest{})
		err = bindQuery(req, r.URL.Query())
	case isBinary(r.Header.Get("Content-Type")):
		req, err = wire.DecodeRequest(bytes.NewReader(body))
		if err != nil {
			err = badRequest("%v", err)
		}
	default:
		req = models.NewClusteringRequest(&models.SearchRequest{})
		var warnings []string
		warnings, err = req.ParseSource(body)
		for _, msg := range warnings {
			log.Warn(msg)
		}
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	if req.Search != nil {
		index := chi.URLParam(r, "index")
		if index == "" {
			index = req.Search.Index
		}
		if err := s.checkIndex(index); err != nil {
			s.handleError(w, r, err)
			return
		}
		req.Search.Index = s.config.Storage.IndexName
	}

	resp, err := s.engine.Execute(r.Context(), req)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	status := http.StatusOK
	if resp.Search != nil && resp.Search.AllShardsFailed() {
		status = http.StatusInternalServerError
	}
	if isBinary(r.Header.Get("Accept")) {
		w.Header().Set("Content-Type", wire.ContentType)
		w.WriteHeader(status)
		if err := wire.EncodeResponse(w, resp); err != nil {
			log.Error("failed to write response", zap.Error(err))
		}
		return
	}
	writeJSON(w, status, resp)
}

func isBinary(mediaType string) bool {
	return strings.HasPrefix(strings.TrimSpace(mediaType), wire.ContentType)
}

// checkIndex accepts an empty name, the configured index, _all and *, or a
// comma-separated list of those.
func (s *Server) checkIndex(names string) error {
	if names == "" {
		return nil
	}
	for _, name := range strings.Split(names, ",") {
		switch strings.TrimSpace(name) {
		case s.config.Storage.IndexName, "_all", "*":
		default:
			return &indexError{name: name}
		}
	}
	return nil
}

type indexError struct{ name string }

func (e *indexError) Error() string { return "no such index [" + e.name + "]" }

func (e *indexError) Unwrap() error { return errIndexNotFound }

// bindQuery fills req from GET parameters. The query hint falls back to q.
func bindQuery(req *models.ClusteringRequest, q url.Values) error {
	search := req.Search
	search.Query = q.Get("q")
	var err error
	if search.Size, err = intParam(q, "size"); err != nil {
		return err
	}
	if search.From, err = intParam(q, "from"); err != nil {
		return err
	}
	search.Fields = listParam(q, "fields")
	if fields := listParam(q, "highlight"); len(fields) > 0 {
		search.Highlight = &models.HighlightRequest{Fields: fields}
	}
	if q.Has("_source") {
		enabled := !strings.EqualFold(q.Get("_source"), "false")
		search.Source = &enabled
	}

	switch {
	case q.Has("query_hint"):
		req.SetQueryHint(q.Get("query_hint"))
	case q.Has("q"):
		req.SetQueryHint(q.Get("q"))
	}
	req.Algorithm = q.Get("algorithm")
	if q.Has("include_hits") {
		req.SetIncludeHits(strings.EqualFold(q.Get("include_hits"), "true"))
	}
	if q.Has("max_hits") {
		if err := req.SetMaxHitsString(q.Get("max_hits")); err != nil {
			return badRequest("failed to parse [max_hits]: %v", err)
		}
	}
	for _, lf := range models.LogicalFields {
		for _, spec := range listParam(q, "field_mapping_"+strings.ToLower(lf.String())) {
			if err := req.AddFieldMappingSpec(spec, lf); err != nil {
				return err
			}
		}
	}
	return nil
}

func intParam(q url.Values, name string) (int, error) {
	v := q.Get(name)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, badRequest("failed to parse [%s]: %q is not a number", name, v)
	}
	return n, nil
}

func listParam(q url.Values, name string) []string {
	var out []string
	for _, part := range strings.Split(q.Get(name), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s *Server) handleAlgorithms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"algorithms": s.engine.Algorithms()})
}
