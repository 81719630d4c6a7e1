package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hyperjump/matome/internal/logger"
	"github.com/hyperjump/matome/internal/models"
	"go.uber.org/zap"
)

var (
	errBadRequest    = errors.New("bad request")
	errIndexNotFound = errors.New("no such index")
)

// requestError is a client mistake reported verbatim.
type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }

func (e *requestError) Unwrap() error { return errBadRequest }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

type errorDetail struct {
	Type   string   `json:"type"`
	Reason string   `json:"reason"`
	Errors []string `json:"errors,omitempty"`
}

type errorBody struct {
	Error  errorDetail `json:"error"`
	Status int         `json:"status"`
}

// errorHandler writes the response for err and reports whether it did.
type errorHandler func(w http.ResponseWriter, err error) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		validationHandler,
		sentinelHandler(models.ErrInvalidFieldSpec, http.StatusBadRequest, "illegal_argument_exception"),
		sentinelHandler(models.ErrMalformedRequest, http.StatusBadRequest, "parse_exception"),
		sentinelHandler(errBadRequest, http.StatusBadRequest, "illegal_argument_exception"),
		sentinelHandler(models.ErrUnknownAlgorithm, http.StatusBadRequest, "illegal_argument_exception"),
		sentinelHandler(errIndexNotFound, http.StatusNotFound, "index_not_found_exception"),
		sentinelHandler(models.ErrDocumentNotFound, http.StatusNotFound, "resource_not_found_exception"),
		sentinelHandler(models.ErrClustering, http.StatusInternalServerError, "clustering_exception"),
	}
}

func validationHandler(w http.ResponseWriter, err error) bool {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	writeError(w, http.StatusBadRequest, errorDetail{
		Type:   "action_request_validation_exception",
		Reason: verr.Error(),
		Errors: verr.Errors,
	})
	return true
}

func sentinelHandler(sentinel error, status int, typ string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, errorDetail{Type: typ, Reason: err.Error()})
		return true
	}
}

// handleError maps err to a response. Errors no handler claims are search
// failures reported with their message.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context(), s.logger)
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Debug("request failed", zap.Error(err))
			return
		}
	}
	log.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, errorDetail{Type: "search_phase_execution_exception", Reason: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail errorDetail) {
	writeJSON(w, status, errorBody{Error: detail, Status: status})
}
