package models

// Hit is one search result. Fields holds stored field values, Highlight the
// highlighted fragments per field and Source the original document (nil when
// not requested or not stored).
type Hit struct {
	Index     string              `json:"_index,omitempty"`
	ID        string              `json:"_id"`
	Score     float64             `json:"_score"`
	Fields    map[string][]any    `json:"fields,omitempty"`
	Highlight map[string][]string `json:"highlight,omitempty"`
	Source    map[string]any      `json:"_source,omitempty"`
}

// Hits is the hit envelope of a search result. Total counts every match,
// not only the returned page.
type Hits struct {
	Total    uint64  `json:"total"`
	MaxScore float64 `json:"max_score"`
	Hits     []*Hit  `json:"hits"`
}

// ShardStats describes how many index partitions answered.
type ShardStats struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Failures   []ShardFailure `json:"failures,omitempty"`
}

// ShardFailure is the reason one partition failed.
type ShardFailure struct {
	Index  string `json:"index,omitempty"`
	Reason string `json:"reason"`
}

// Aggregation is the result of a terms facet.
type Aggregation struct {
	Field   string   `json:"field"`
	Total   int      `json:"total"`
	Missing int      `json:"missing"`
	Other   int      `json:"other"`
	Buckets []Bucket `json:"buckets"`
}

// Bucket is one term of a terms facet.
type Bucket struct {
	Key      string `json:"key"`
	DocCount int    `json:"doc_count"`
}

// Suggestion is a "did you mean" correction for a query.
type Suggestion struct {
	Text       string   `json:"text"`
	Corrected  string   `json:"corrected"`
	Misspelled []string `json:"misspelled,omitempty"`
}

// SearchResult is the backend's answer to a SearchRequest.
type SearchResult struct {
	ScrollID        string                  `json:"_scroll_id,omitempty"`
	Took            int64                   `json:"took"`
	TimedOut        bool                    `json:"timed_out"`
	TerminatedEarly *bool                   `json:"terminated_early,omitempty"`
	Shards          ShardStats              `json:"_shards"`
	Hits            Hits                    `json:"hits"`
	Aggregations    map[string]*Aggregation `json:"aggregations,omitempty"`
	Suggest         []Suggestion            `json:"suggest,omitempty"`
}

// AllShardsFailed reports whether no partition answered.
func (r *SearchResult) AllShardsFailed() bool {
	return r.Shards.Total > 0 && r.Shards.Successful == 0
}
