// Package assembler builds clustering documents from search hits according
// to a list of field mapping specifications.
package assembler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hyperjump/matome/internal/models"
	"go.uber.org/zap"
)

// Separator joins values mapped to the same logical field. The dot keeps
// phrases from different fields from being glued together.
const Separator = " . "

var markupTag = regexp.MustCompile(`<[^>]+>`)

// Assembler turns hits into clustering documents.
type Assembler struct {
	logger      *zap.Logger
	warned      WarnSet
	stripMarkup bool
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithStripMarkup removes tags such as <mark> from highlighted fragments
// before they are joined.
func WithStripMarkup() Option {
	return func(a *Assembler) { a.stripMarkup = true }
}

// New returns an assembler. warned deduplicates language warnings; nil
// means ProcessWarnSet.
func New(logger *zap.Logger, warned WarnSet, opts ...Option) *Assembler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if warned == nil {
		warned = ProcessWarnSet
	}
	a := &Assembler{logger: logger, warned: warned}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type sourceWarning struct {
	hit   string
	field string
}

// Assemble returns one document per hit, in hit order. Missing values and
// unresolvable languages are logged and skipped.
func (a *Assembler) Assemble(hits []*models.Hit, specs []models.FieldMappingSpec) []*models.ClusteringDocument {
	docs := make([]*models.ClusteringDocument, 0, len(hits))
	var (
		acc          [models.LogicalFieldCount]strings.Builder
		sourceWarned = map[sourceWarning]bool{}
	)

	for _, hit := range hits {
		for i := range acc {
			acc[i].Reset()
		}
		var source map[string]any
		for _, spec := range specs {
			value, ok := a.resolve(hit, spec, &source, sourceWarned)
			if !ok {
				continue
			}
			target := &acc[spec.LogicalField]
			if !spec.LogicalField.Accumulates() {
				target.Reset()
			}
			if target.Len() > 0 {
				target.WriteString(Separator)
			}
			target.WriteString(value)
		}

		doc := &models.ClusteringDocument{
			ID:      hit.ID,
			Title:   acc[models.FieldTitle].String(),
			Content: acc[models.FieldContent].String(),
			URL:     acc[models.FieldURL].String(),
		}
		if code := acc[models.FieldLanguage].String(); code != "" {
			if base, ok := ResolveLanguage(code); ok {
				doc.Language = &base
			} else if a.warned.AddIfAbsent(code) {
				a.logger.Warn("language mapping not a supported ISO639-1 code", zap.String("code", code))
			}
		}
		docs = append(docs, doc)
	}
	return docs
}

// resolve reads the value spec points at. source caches the hit's _source
// between specs of the same hit.
func (a *Assembler) resolve(hit *models.Hit, spec models.FieldMappingSpec, source *map[string]any, warned map[sourceWarning]bool) (string, bool) {
	switch spec.Source {
	case models.FromField:
		values, ok := hit.Fields[spec.Field]
		if !ok || len(values) == 0 {
			return "", false
		}
		return stringify(values[0]), true

	case models.FromHighlight:
		fragments, ok := hit.Highlight[spec.Field]
		if !ok {
			return "", false
		}
		joined := strings.Join(fragments, Separator)
		if a.stripMarkup {
			joined = markupTag.ReplaceAllString(joined, "")
		}
		return joined, true

	case models.FromSource:
		if *source == nil {
			if hit.Source == nil {
				key := sourceWarning{hit: hit.ID, field: spec.Field}
				if !warned[key] {
					warned[key] = true
					a.logger.Warn("_source field mapping used but no source available",
						zap.String("id", hit.ID), zap.String("field", spec.Field))
				}
				return "", false
			}
			*source = hit.Source
		}
		return a.descend(*source, spec.Field)

	default:
		panic(fmt.Sprintf("unreachable: field source %v", spec.Source))
	}
}

// descend follows a dotted path through nested maps.
func (a *Assembler) descend(source map[string]any, path string) (string, bool) {
	var value any = source
	for _, name := range strings.Split(path, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			a.logger.Warn("field is not a map", zap.String("field", name), zap.String("spec", path))
			return "", false
		}
		value = m[name]
		if value == nil {
			a.logger.Warn("cannot find field in source", zap.String("field", name), zap.String("spec", path))
			return "", false
		}
	}
	if list, ok := value.([]any); ok {
		return join(list), true
	}
	return stringify(value), true
}

func join(list []any) string {
	parts := make([]string, len(list))
	for i, v := range list {
		if v != nil {
			parts[i] = stringify(v)
		}
	}
	return strings.Join(parts, Separator)
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}
