package keyword

import (
	"sort"
	"strings"
	"sync"

	"github.com/hyperjump/matome/internal/models"
)

// Correction is a candidate replacement for a query term.
type Correction struct {
	Term      string
	Distance  int
	Frequency int
	Score     float64
}

// SpellChecker suggests corrections for query terms missing from the index.
// The dictionary is loaded lazily and reloaded after Invalidate.
type SpellChecker struct {
	dictionary     TermDictionary
	maxDistance    int
	minFreq        int
	maxCorrections int

	mu    sync.RWMutex
	terms map[string]int
}

// SpellCheckerOption configures a SpellChecker.
type SpellCheckerOption func(*SpellChecker)

// WithMaxDistance sets the maximum edit distance of a correction.
func WithMaxDistance(d int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if d > 0 {
			s.maxDistance = d
		}
	}
}

// WithMinFrequency ignores dictionary terms found in fewer documents.
func WithMinFrequency(f int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if f >= 0 {
			s.minFreq = f
		}
	}
}

// WithMaxCorrections caps the corrections returned per term.
func WithMaxCorrections(n int) SpellCheckerOption {
	return func(s *SpellChecker) {
		if n > 0 {
			s.maxCorrections = n
		}
	}
}

// NewSpellChecker returns a spell checker over dict.
func NewSpellChecker(dict TermDictionary, opts ...SpellCheckerOption) *SpellChecker {
	s := &SpellChecker{dictionary: dict, maxDistance: 2, minFreq: 1, maxCorrections: 5}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Invalidate drops the cached dictionary; the next check reloads it.
func (s *SpellChecker) Invalidate() {
	s.mu.Lock()
	s.terms = nil
	s.mu.Unlock()
}

func (s *SpellChecker) load() (map[string]int, error) {
	s.mu.RLock()
	terms := s.terms
	s.mu.RUnlock()
	if terms != nil {
		return terms, nil
	}
	loaded, err := s.dictionary.Terms()
	if err != nil {
		return nil, err
	}
	terms = make(map[string]int, len(loaded))
	for t, n := range loaded {
		terms[strings.ToLower(t)] += n
	}
	s.mu.Lock()
	s.terms = terms
	s.mu.Unlock()
	return terms, nil
}

// Suggest returns corrections for term, best first.
func (s *SpellChecker) Suggest(term string) ([]Correction, error) {
	terms, err := s.load()
	if err != nil {
		return nil, err
	}
	return s.suggest(terms, strings.ToLower(term)), nil
}

func (s *SpellChecker) suggest(terms map[string]int, term string) []Correction {
	var out []Correction
	for candidate, freq := range terms {
		if candidate == term || freq < s.minFreq {
			continue
		}
		if diff := len([]rune(candidate)) - len([]rune(term)); diff > s.maxDistance || -diff > s.maxDistance {
			continue
		}
		d := LevenshteinDistance(term, candidate)
		if d > s.maxDistance {
			continue
		}
		out = append(out, Correction{
			Term:      candidate,
			Distance:  d,
			Frequency: freq,
			Score:     float64(freq) / float64(d+1),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > s.maxCorrections {
		out = out[:s.maxCorrections]
	}
	return out
}

// Check returns a suggestion for query, or nil when every term is known
// or no correction exists.
func (s *SpellChecker) Check(query string) (*models.Suggestion, error) {
	terms, err := s.load()
	if err != nil {
		return nil, err
	}
	words := strings.Fields(strings.ToLower(query))
	if len(words) == 0 {
		return nil, nil
	}
	corrected := make([]string, len(words))
	var misspelled []string
	for i, w := range words {
		corrected[i] = w
		if _, known := terms[w]; known {
			continue
		}
		if c := s.suggest(terms, w); len(c) > 0 {
			corrected[i] = c[0].Term
			misspelled = append(misspelled, w)
		}
	}
	if len(misspelled) == 0 {
		return nil, nil
	}
	return &models.Suggestion{
		Text:       query,
		Corrected:  strings.Join(corrected, " "),
		Misspelled: misspelled,
	}, nil
}
