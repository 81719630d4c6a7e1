package models

import (
	"fmt"
	"sort"
	"strings"
)

// FieldSource says where a mapped value is read from in a search hit.
type FieldSource int

const (
	// FromField reads a stored field of the hit.
	FromField FieldSource = iota
	// FromSource descends into the hit's _source object.
	FromSource
	// FromHighlight joins the highlighted fragments of a field.
	FromHighlight
)

var fieldSourcePrefixes = [...]string{
	FromField:     "field.",
	FromSource:    "source.",
	FromHighlight: "highlight.",
}

// Prefix returns the specification prefix of s, including the trailing dot.
func (s FieldSource) Prefix() string {
	if s < 0 || int(s) >= len(fieldSourcePrefixes) {
		return ""
	}
	return fieldSourcePrefixes[s]
}

func (s FieldSource) String() string {
	switch s {
	case FromField:
		return "FIELD"
	case FromSource:
		return "SOURCE"
	case FromHighlight:
		return "HIGHLIGHT"
	default:
		return fmt.Sprintf("FieldSource(%d)", int(s))
	}
}

// FieldSourceFromOrdinal converts a wire ordinal back to a FieldSource.
func FieldSourceFromOrdinal(n int) (FieldSource, error) {
	if n < 0 || n >= len(fieldSourcePrefixes) {
		return 0, fmt.Errorf("unknown field source ordinal: %d", n)
	}
	return FieldSource(n), nil
}

// LogicalField is a role of a clustering document.
type LogicalField int

const (
	FieldTitle LogicalField = iota
	FieldContent
	FieldURL
	FieldLanguage
)

var logicalFieldNames = [...]string{
	FieldTitle:    "TITLE",
	FieldContent:  "CONTENT",
	FieldURL:      "URL",
	FieldLanguage: "LANGUAGE",
}

// LogicalFieldCount is the number of logical fields.
const LogicalFieldCount = len(logicalFieldNames)

// LogicalFields lists every logical field in ordinal order.
var LogicalFields = []LogicalField{FieldTitle, FieldContent, FieldURL, FieldLanguage}

func (f LogicalField) String() string {
	if f < 0 || int(f) >= len(logicalFieldNames) {
		return fmt.Sprintf("LogicalField(%d)", int(f))
	}
	return logicalFieldNames[f]
}

// Accumulates reports whether values mapped to f are concatenated. URL and
// LANGUAGE keep only the last mapped value.
func (f LogicalField) Accumulates() bool {
	return f == FieldTitle || f == FieldContent
}

// ParseLogicalField matches name against the logical field names ignoring case.
func ParseLogicalField(name string) (LogicalField, bool) {
	for i, n := range logicalFieldNames {
		if strings.EqualFold(n, name) {
			return LogicalField(i), true
		}
	}
	return 0, false
}

// LogicalFieldFromOrdinal converts a wire ordinal back to a LogicalField.
func LogicalFieldFromOrdinal(n int) (LogicalField, error) {
	if n < 0 || n >= len(logicalFieldNames) {
		return 0, fmt.Errorf("unknown logical field ordinal: %d", n)
	}
	return LogicalField(n), nil
}

// FieldMappingSpec maps one hit value to a logical document field.
type FieldMappingSpec struct {
	Source       FieldSource
	Field        string
	LogicalField LogicalField
}

// String renders the spec in its "<prefix><field>" form.
func (s FieldMappingSpec) String() string {
	return s.Source.Prefix() + s.Field
}

// ParseSpec parses "<prefix>.<field>" into a mapping for lf. The prefix is
// case-sensitive.
func ParseSpec(raw string, lf LogicalField) (FieldMappingSpec, error) {
	for i, prefix := range fieldSourcePrefixes {
		if strings.HasPrefix(raw, prefix) {
			return FieldMappingSpec{
				Source:       FieldSource(i),
				Field:        raw[len(prefix):],
				LogicalField: lf,
			}, nil
		}
	}
	return FieldMappingSpec{}, &InvalidFieldSpecError{Spec: raw}
}

// ParseFieldSpecs parses a logical field name to spec list mapping. Keys that
// do not name a logical field are skipped. Entries are processed in logical
// field order, then by key.
func ParseFieldSpecs(mapping map[string][]string) ([]FieldMappingSpec, error) {
	type entry struct {
		key string
		lf  LogicalField
	}
	entries := make([]entry, 0, len(mapping))
	for key := range mapping {
		lf, ok := ParseLogicalField(key)
		if !ok {
			continue
		}
		entries = append(entries, entry{key: key, lf: lf})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].lf != entries[j].lf {
			return entries[i].lf < entries[j].lf
		}
		return entries[i].key < entries[j].key
	})

	var specs []FieldMappingSpec
	for _, e := range entries {
		for _, raw := range mapping[e.key] {
			spec, err := ParseSpec(raw, e.lf)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		}
	}
	return specs, nil
}
