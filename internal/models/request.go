package models

import (
	"math"
	"strconv"
	"strings"
)

// Unlimited is the MaxHits value meaning "return every hit".
const Unlimited = math.MaxInt32

// AttrClusters is the reserved attribute carrying a seed cluster tree.
const AttrClusters = "clusters"

// ClusteringRequest asks for a search whose hits are then clustered.
// QueryHint may be empty but must be set; MaxHits defaults to Unlimited.
type ClusteringRequest struct {
	Search       *SearchRequest
	QueryHint    *string
	Algorithm    string
	MaxHits      int
	FieldMapping []FieldMappingSpec
	Attributes   map[string]any
}

// NewClusteringRequest returns a request for search with no hit limit.
func NewClusteringRequest(search *SearchRequest) *ClusteringRequest {
	return &ClusteringRequest{Search: search, MaxHits: Unlimited}
}

// SetQueryHint sets the terms the clustering algorithm should treat as the query.
func (r *ClusteringRequest) SetQueryHint(hint string) *ClusteringRequest {
	r.QueryHint = &hint
	return r
}

// SetMaxHits sets the hit limit. A negative value is stored as zero.
func (r *ClusteringRequest) SetMaxHits(n int) *ClusteringRequest {
	if n < 0 {
		n = 0
	}
	r.MaxHits = n
	return r
}

// SetMaxHitsString parses n; an empty string means Unlimited.
func (r *ClusteringRequest) SetMaxHitsString(n string) error {
	n = strings.TrimSpace(n)
	if n == "" {
		r.MaxHits = Unlimited
		return nil
	}
	v, err := strconv.Atoi(n)
	if err != nil {
		return err
	}
	r.SetMaxHits(v)
	return nil
}

// SetIncludeHits is the deprecated switch superseded by SetMaxHits.
func (r *ClusteringRequest) SetIncludeHits(include bool) *ClusteringRequest {
	if include {
		r.MaxHits = Unlimited
	} else {
		r.MaxHits = 0
	}
	return r
}

// IncludeHits reports whether any hit is returned with the clusters.
func (r *ClusteringRequest) IncludeHits() bool {
	return r.MaxHits > 0
}

// AddFieldMapping maps a stored field to lf.
func (r *ClusteringRequest) AddFieldMapping(field string, lf LogicalField) *ClusteringRequest {
	r.FieldMapping = append(r.FieldMapping, FieldMappingSpec{Source: FromField, Field: field, LogicalField: lf})
	return r
}

// AddSourceFieldMapping maps a dotted _source path to lf.
func (r *ClusteringRequest) AddSourceFieldMapping(path string, lf LogicalField) *ClusteringRequest {
	r.FieldMapping = append(r.FieldMapping, FieldMappingSpec{Source: FromSource, Field: path, LogicalField: lf})
	return r
}

// AddHighlightedFieldMapping maps the highlighted fragments of field to lf.
func (r *ClusteringRequest) AddHighlightedFieldMapping(field string, lf LogicalField) *ClusteringRequest {
	r.FieldMapping = append(r.FieldMapping, FieldMappingSpec{Source: FromHighlight, Field: field, LogicalField: lf})
	return r
}

// AddFieldMappingSpec parses spec and maps it to lf.
func (r *ClusteringRequest) AddFieldMappingSpec(spec string, lf LogicalField) error {
	parsed, err := ParseSpec(spec, lf)
	if err != nil {
		return err
	}
	r.FieldMapping = append(r.FieldMapping, parsed)
	return nil
}

// Validate returns a *ValidationError listing every problem, or nil.
func (r *ClusteringRequest) Validate() error {
	v := &ValidationError{}
	if r.Search == nil {
		v.Add("No delegate search request")
	}
	if r.QueryHint == nil {
		v.Add("query hint may be empty but must not be null.")
	}
	if len(r.FieldMapping) == 0 {
		v.Add("At least one field should be mapped to a logical document field.")
	}
	if r.Search != nil {
		for _, msg := range r.Search.Validate() {
			v.Add(msg)
		}
	}
	return v.Err()
}

// Hint returns the query hint or "" when unset.
func (r *ClusteringRequest) Hint() string {
	if r.QueryHint == nil {
		return ""
	}
	return *r.QueryHint
}
