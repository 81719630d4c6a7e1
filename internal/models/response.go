package models

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Info keys of a clustering response.
const (
	InfoAlgorithm        = "algorithm"
	InfoSearchMillis     = "search-millis"
	InfoClusteringMillis = "clustering-millis"
	InfoTotalMillis      = "total-millis"
	InfoIncludeHits      = "include-hits"
	InfoMaxHits          = "max-hits"
)

// InfoKeys lists the info keys in response order.
var InfoKeys = []string{
	InfoAlgorithm,
	InfoSearchMillis,
	InfoClusteringMillis,
	InfoTotalMillis,
	InfoIncludeHits,
	InfoMaxHits,
}

// ClusteringResponse combines the (possibly trimmed) search result with the
// cluster tree and timing diagnostics.
type ClusteringResponse struct {
	Search *SearchResult
	Groups []*DocumentGroup
	Info   map[string]string
}

// MarshalJSON writes the search result fields at the top level followed by
// "clusters" and "info". Info keys keep InfoKeys order; unknown keys follow.
func (r *ClusteringResponse) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if r.Search != nil {
		search, err := json.Marshal(r.Search)
		if err != nil {
			return nil, err
		}
		// Splice the search object's members into ours.
		inner := bytes.TrimSpace(search)
		inner = inner[1 : len(inner)-1]
		if len(inner) > 0 {
			buf.Write(inner)
			buf.WriteByte(',')
		}
	}

	groups := r.Groups
	if groups == nil {
		groups = []*DocumentGroup{}
	}
	buf.WriteString(`"clusters":`)
	data, err := json.Marshal(groups)
	if err != nil {
		return nil, err
	}
	buf.Write(data)

	buf.WriteString(`,"info":{`)
	first := true
	writeInfo := func(k, v string) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, _ := json.Marshal(k)
		vb, _ := json.Marshal(v)
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	seen := make(map[string]bool, len(InfoKeys))
	for _, k := range InfoKeys {
		if v, ok := r.Info[k]; ok {
			writeInfo(k, v)
			seen[k] = true
		}
	}
	for _, k := range sortedKeys(r.Info) {
		if !seen[k] {
			writeInfo(k, r.Info[k])
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the form MarshalJSON writes.
func (r *ClusteringResponse) UnmarshalJSON(data []byte) error {
	var envelope struct {
		Clusters []*DocumentGroup  `json:"clusters"`
		Info     map[string]string `json:"info"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	var search SearchResult
	if err := json.Unmarshal(data, &search); err != nil {
		return err
	}
	r.Search = &search
	r.Groups = envelope.Clusters
	r.Info = envelope.Info
	return nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
