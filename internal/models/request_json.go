package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedRequest signals a request body that could not be decoded.
var ErrMalformedRequest = errors.New("malformed request")

// SourceParseError wraps a failure to decode a request body.
type SourceParseError struct {
	Source string
	Err    error
}

func (e *SourceParseError) Error() string {
	return fmt.Sprintf("failed to parse source [%s]: %v", e.Source, e.Err)
}

func (e *SourceParseError) Unwrap() []error { return []error{ErrMalformedRequest, e.Err} }

// Request body keys.
const (
	keyQueryHint     = "query_hint"
	keyFieldMapping  = "field_mapping"
	keyAlgorithm     = "algorithm"
	keyAttributes    = "attributes"
	keySearchRequest = "search_request"
	keyIncludeHits   = "include_hits"
	keyMaxHits       = "max_hits"
)

// ParseSource fills r from a JSON request body. Keys absent from the body
// leave r untouched. The returned warnings name deprecated keys that were used.
func (r *ClusteringRequest) ParseSource(body []byte) (warnings []string, err error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}
	if err := r.parseSource(body, &warnings); err != nil {
		return warnings, &SourceParseError{Source: compactSource(body), Err: err}
	}
	return warnings, nil
}

func (r *ClusteringRequest) parseSource(body []byte, warnings *[]string) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return err
	}

	if v, ok := raw[keyQueryHint]; ok && !isNull(v) {
		var hint string
		if err := json.Unmarshal(v, &hint); err != nil {
			return fmt.Errorf("%s: %w", keyQueryHint, err)
		}
		r.SetQueryHint(hint)
	}

	if v, ok := raw[keyFieldMapping]; ok && !isNull(v) {
		var mapping map[string][]string
		if err := json.Unmarshal(v, &mapping); err != nil {
			return fmt.Errorf("%s: %w", keyFieldMapping, err)
		}
		specs, err := ParseFieldSpecs(mapping)
		if err != nil {
			return err
		}
		r.FieldMapping = append(r.FieldMapping, specs...)
	}

	if v, ok := raw[keyAlgorithm]; ok && !isNull(v) {
		if err := json.Unmarshal(v, &r.Algorithm); err != nil {
			return fmt.Errorf("%s: %w", keyAlgorithm, err)
		}
	}

	if v, ok := raw[keyAttributes]; ok && !isNull(v) {
		var attrs map[string]any
		if err := json.Unmarshal(v, &attrs); err != nil {
			return fmt.Errorf("%s: %w", keyAttributes, err)
		}
		r.Attributes = attrs
	}

	if v, ok := raw[keySearchRequest]; ok {
		if r.Search == nil {
			r.Search = &SearchRequest{}
		}
		if !isNull(v) {
			if err := json.Unmarshal(v, r.Search); err != nil {
				return fmt.Errorf("%s: %w", keySearchRequest, err)
			}
		}
	}

	if v, ok := raw[keyIncludeHits]; ok && !isNull(v) {
		*warnings = append(*warnings, "Request used deprecated 'include_hits' parameter.")
		r.SetIncludeHits(strings.EqualFold(scalarString(v), "true"))
	}

	if v, ok := raw[keyMaxHits]; ok && !isNull(v) {
		if err := r.SetMaxHitsString(scalarString(v)); err != nil {
			return fmt.Errorf("%s: %w", keyMaxHits, err)
		}
	}
	return nil
}

// MarshalJSON writes r in the same shape ParseSource reads.
func (r *ClusteringRequest) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if r.QueryHint != nil {
		out[keyQueryHint] = *r.QueryHint
	}
	if r.Algorithm != "" {
		out[keyAlgorithm] = r.Algorithm
	}
	if r.MaxHits != Unlimited {
		out[keyMaxHits] = r.MaxHits
	}
	if len(r.FieldMapping) > 0 {
		mapping := map[string][]string{}
		for _, spec := range r.FieldMapping {
			key := strings.ToLower(spec.LogicalField.String())
			mapping[key] = append(mapping[key], spec.String())
		}
		out[keyFieldMapping] = mapping
	}
	if r.Attributes != nil {
		out[keyAttributes] = r.Attributes
	}
	if r.Search != nil {
		out[keySearchRequest] = r.Search
	}
	return json.Marshal(out)
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}

// scalarString renders a JSON string, number or bool without quotes.
func scalarString(v json.RawMessage) string {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(v))
}

func compactSource(body []byte) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		return "_na_"
	}
	return buf.String()
}
