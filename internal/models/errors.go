package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation signals a malformed clustering request.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidFieldSpec signals a field mapping without a known source prefix.
	ErrInvalidFieldSpec = errors.New("invalid field mapping specification")
	// ErrUnknownAlgorithm signals an algorithm id missing from the registry.
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	// ErrClustering signals a failure inside a clustering algorithm.
	ErrClustering = errors.New("clustering failed")
	// ErrDocumentNotFound signals a missing corpus document.
	ErrDocumentNotFound = errors.New("document not found")
)

// ValidationError collects every problem found in a request.
type ValidationError struct {
	Errors []string
}

// Add appends a validation message.
func (e *ValidationError) Add(msg string) {
	e.Errors = append(e.Errors, msg)
}

// Err returns e when it holds at least one message, nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("Validation Failed: ")
	for i, msg := range e.Errors {
		fmt.Fprintf(&b, "%d: %s;", i+1, msg)
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InvalidFieldSpecError reports a field mapping spec with no recognized prefix.
type InvalidFieldSpecError struct {
	Spec string
}

func (e *InvalidFieldSpecError) Error() string {
	return "field mapping specification must contain a valid source prefix for the field source: " + e.Spec
}

func (e *InvalidFieldSpecError) Unwrap() error { return ErrInvalidFieldSpec }

// UnknownAlgorithmError reports an algorithm id the registry does not know.
type UnknownAlgorithmError struct {
	ID string
}

func (e *UnknownAlgorithmError) Error() string {
	return "No such algorithm: " + e.ID
}

func (e *UnknownAlgorithmError) Unwrap() error { return ErrUnknownAlgorithm }

// ClusteringError carries only the message of the algorithm failure. The
// original error is logged, not wrapped.
type ClusteringError struct {
	Message string
}

// NewClusteringError builds the sanitized error for cause.
func NewClusteringError(cause error) *ClusteringError {
	return &ClusteringError{Message: "Search results clustering error: " + cause.Error()}
}

func (e *ClusteringError) Error() string { return e.Message }

func (e *ClusteringError) Unwrap() error { return ErrClustering }
