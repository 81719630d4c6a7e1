package search

import (
	"github.com/hyperjump/matome/internal/config"
	"github.com/hyperjump/matome/internal/models"
)

// ProcessQuery returns a copy of req with the configured defaults applied:
// a zero size becomes the default size, sizes are capped at the maximum and
// a missing fragment size takes the configured one. req is not modified.
func ProcessQuery(req *models.SearchRequest, cfg *config.SearchConfig) *models.SearchRequest {
	out := *req
	if out.Size == 0 {
		out.Size = cfg.DefaultSize
	}
	if cfg.MaxSize > 0 && out.Size > cfg.MaxSize {
		out.Size = cfg.MaxSize
	}
	if out.Highlight != nil {
		h := *out.Highlight
		if h.FragmentSize == 0 {
			h.FragmentSize = cfg.HighlightFragmentSize
		}
		out.Highlight = &h
	}
	return &out
}
