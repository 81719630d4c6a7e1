package wire

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/hyperjump/matome/internal/models"
)

// EncodeRequest writes req to w.
func EncodeRequest(w io.Writer, req *models.ClusteringRequest) error {
	out := NewWriter(w)
	var search []byte
	if req.Search != nil {
		var err error
		if search, err = json.Marshal(req.Search); err != nil {
			return fmt.Errorf("encode search request: %w", err)
		}
	}
	out.WriteBytes(search)
	out.WriteOptionalString(req.QueryHint)
	var algorithm *string
	if req.Algorithm != "" {
		algorithm = &req.Algorithm
	}
	out.WriteOptionalString(algorithm)
	out.WriteInt32(int32(min(req.MaxHits, math.MaxInt32)))

	out.WriteVInt(uint64(len(req.FieldMapping)))
	for _, spec := range req.FieldMapping {
		out.WriteVInt(uint64(spec.Source))
		out.WriteString(spec.Field)
		out.WriteVInt(uint64(spec.LogicalField))
	}

	out.WriteBool(req.Attributes != nil)
	if req.Attributes != nil {
		out.WriteMap(req.Attributes)
	}
	return out.Flush()
}

// DecodeRequest reads a request written by EncodeRequest.
func DecodeRequest(r io.Reader) (*models.ClusteringRequest, error) {
	in := NewReader(r)
	req := &models.ClusteringRequest{}
	if search := in.ReadBytes(); len(search) > 0 {
		req.Search = &models.SearchRequest{}
		if err := json.Unmarshal(search, req.Search); err != nil {
			return nil, fmt.Errorf("decode search request: %w", err)
		}
	}
	req.QueryHint = in.ReadOptionalString()
	if alg := in.ReadOptionalString(); alg != nil {
		req.Algorithm = *alg
	}
	req.MaxHits = int(in.ReadInt32())

	n := in.ReadLength()
	for i := 0; i < n && in.Err() == nil; i++ {
		source, err := models.FieldSourceFromOrdinal(int(in.ReadVInt()))
		if err != nil {
			return nil, err
		}
		field := in.ReadString()
		lf, err := models.LogicalFieldFromOrdinal(int(in.ReadVInt()))
		if err != nil {
			return nil, err
		}
		req.FieldMapping = append(req.FieldMapping, models.FieldMappingSpec{Source: source, Field: field, LogicalField: lf})
	}

	if in.ReadBool() {
		req.Attributes = in.ReadMap()
	}
	if err := in.Err(); err != nil {
		return nil, fmt.Errorf("decode clustering request: %w", err)
	}
	return req, nil
}

// EncodeResponse writes resp to w. Info entries are written in the standard
// key order followed by any other keys sorted.
func EncodeResponse(w io.Writer, resp *models.ClusteringResponse) error {
	out := NewWriter(w)
	out.WriteBool(resp.Search != nil)
	if resp.Search != nil {
		search, err := json.Marshal(resp.Search)
		if err != nil {
			return fmt.Errorf("encode search result: %w", err)
		}
		out.WriteBytes(search)
	}

	writeGroups(out, resp.Groups)

	keys := infoKeys(resp.Info)
	out.WriteVInt(uint64(len(keys)))
	for _, k := range keys {
		v := resp.Info[k]
		out.WriteString(k)
		out.WriteOptionalString(&v)
	}
	return out.Flush()
}

func infoKeys(info map[string]string) []string {
	keys := make([]string, 0, len(info))
	known := make(map[string]bool, len(models.InfoKeys))
	for _, k := range models.InfoKeys {
		known[k] = true
		if _, ok := info[k]; ok {
			keys = append(keys, k)
		}
	}
	var rest []string
	for k := range info {
		if !known[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

func writeGroups(out *Writer, groups []*models.DocumentGroup) {
	out.WriteVInt(uint64(len(groups)))
	for _, g := range groups {
		out.WriteInt32(int32(g.ID))
		out.WriteString(g.Label)
		writeStrings(out, g.Phrases)
		out.WriteFloat64(g.Score)
		out.WriteBool(g.OtherTopics)
		writeStrings(out, g.Documents)
		writeGroups(out, g.Subgroups)
	}
}

func writeStrings(out *Writer, list []string) {
	out.WriteVInt(uint64(len(list)))
	for _, s := range list {
		out.WriteString(s)
	}
}

// DecodeResponse reads a response written by EncodeResponse. Info entries
// without a value are dropped.
func DecodeResponse(r io.Reader) (*models.ClusteringResponse, error) {
	in := NewReader(r)
	resp := &models.ClusteringResponse{}
	if in.ReadBool() {
		search := in.ReadBytes()
		if in.Err() == nil {
			resp.Search = &models.SearchResult{}
			if err := json.Unmarshal(search, resp.Search); err != nil {
				return nil, fmt.Errorf("decode search result: %w", err)
			}
		}
	}

	resp.Groups = readGroups(in)

	n := in.ReadLength()
	resp.Info = make(map[string]string, capacity(n))
	for i := 0; i < n && in.Err() == nil; i++ {
		k := in.ReadString()
		if v := in.ReadOptionalString(); v != nil {
			resp.Info[k] = *v
		}
	}
	if err := in.Err(); err != nil {
		return nil, fmt.Errorf("decode clustering response: %w", err)
	}
	return resp, nil
}

func readGroups(in *Reader) []*models.DocumentGroup {
	n := in.ReadLength()
	groups := make([]*models.DocumentGroup, 0, capacity(n))
	for i := 0; i < n && in.Err() == nil; i++ {
		g := &models.DocumentGroup{
			ID:          int(in.ReadInt32()),
			Label:       in.ReadString(),
			Phrases:     readStrings(in),
			Score:       in.ReadFloat64(),
			OtherTopics: in.ReadBool(),
			Documents:   readStrings(in),
			Subgroups:   readGroups(in),
		}
		groups = append(groups, g)
	}
	return groups
}

func readStrings(in *Reader) []string {
	n := in.ReadLength()
	list := make([]string, 0, capacity(n))
	for i := 0; i < n && in.Err() == nil; i++ {
		list = append(list, in.ReadString())
	}
	return list
}
