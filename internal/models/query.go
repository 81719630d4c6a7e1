package models

import (
	"fmt"
	"sort"
)

// SearchRequest is the search delegated to the backend before clustering.
// Query uses the query string syntax; an empty query matches all documents.
type SearchRequest struct {
	Index     string                  `json:"index,omitempty"`
	Query     string                  `json:"query"`
	From      int                     `json:"from,omitempty"`
	Size      int                     `json:"size,omitempty"`
	Fields    []string                `json:"fields,omitempty"`
	Highlight *HighlightRequest       `json:"highlight,omitempty"`
	Source    *bool                   `json:"_source,omitempty"`
	Aggs      map[string]FacetRequest `json:"aggs,omitempty"`
	Suggest   bool                    `json:"suggest,omitempty"`
	Explain   bool                    `json:"explain,omitempty"`
}

// HighlightRequest lists the fields to return highlighted fragments for.
type HighlightRequest struct {
	Fields       []string `json:"fields"`
	FragmentSize int      `json:"fragment_size,omitempty"`
}

// FacetRequest is a terms aggregation over one field.
type FacetRequest struct {
	Field string `json:"field"`
	Size  int    `json:"size,omitempty"`
}

// WantsSource reports whether hits should carry their _source object.
func (r *SearchRequest) WantsSource() bool {
	return r.Source == nil || *r.Source
}

// Validate returns the problems found in r. It does not modify r.
func (r *SearchRequest) Validate() []string {
	var errs []string
	if r.From < 0 {
		errs = append(errs, fmt.Sprintf("[from] parameter cannot be negative, found [%d]", r.From))
	}
	if r.Size < 0 {
		errs = append(errs, fmt.Sprintf("[size] parameter cannot be negative, found [%d]", r.Size))
	}
	names := make([]string, 0, len(r.Aggs))
	for name := range r.Aggs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		agg := r.Aggs[name]
		if agg.Field == "" {
			errs = append(errs, fmt.Sprintf("aggregation [%s] must name a field", name))
		}
		if agg.Size < 0 {
			errs = append(errs, fmt.Sprintf("aggregation [%s] size cannot be negative", name))
		}
	}
	if r.Highlight != nil && r.Highlight.FragmentSize < 0 {
		errs = append(errs, "highlight fragment_size cannot be negative")
	}
	return errs
}
