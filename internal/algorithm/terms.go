package algorithm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/matome/internal/embedding"
)

var stopwords = toSet(strings.Fields(`
	a about above after again against all am an and any are as at be because been
	before being below between both but by can could did do does doing down during
	each few for from further had has have having he her here hers herself him
	himself his how i if in into is it its itself just me more most my myself no
	nor not now of off on once only or other our ours ourselves out over own same
	she should so some such than that the their theirs them themselves then there
	these they this those through to too under until up very was we were what when
	where which while who whom why will with would you your yours yourself
	yourselves also may might must shall via per
`))

func toSet(words []string) map[string]bool {
	s := make(map[string]bool, len(words))
	for _, w := range words {
		s[w] = true
	}
	return s
}

// labelWord reports whether term may appear in a cluster label.
func labelWord(term string) bool {
	if utf8.RuneCountInString(term) < 2 || stopwords[term] {
		return false
	}
	for _, r := range term {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// phrases returns the distinct one and two word label candidates of text.
// Words in exclude never form a unigram, and bigrams made only of excluded
// words are dropped.
func phrases(text string, exclude map[string]bool) map[string]bool {
	out := make(map[string]bool)
	for _, segment := range embedding.Segments(text) {
		terms := embedding.Terms(segment)
		for i, t := range terms {
			if !labelWord(t) {
				continue
			}
			if !exclude[t] {
				out[t] = true
			}
			if i+1 < len(terms) {
				next := terms[i+1]
				if labelWord(next) && !(exclude[t] && exclude[next]) {
					out[t+" "+next] = true
				}
			}
		}
	}
	return out
}

// containsAll reports whether every term of label occurs in terms.
func containsAll(terms map[string]bool, label []string) bool {
	if len(label) == 0 {
		return false
	}
	for _, t := range label {
		if !terms[t] {
			return false
		}
	}
	return true
}

// capitalize upper-cases the first letter of s.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
