package assembler

import (
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// WarnSet remembers which warnings were already emitted.
type WarnSet interface {
	// AddIfAbsent records code and reports whether it was new.
	AddIfAbsent(code string) bool
}

// ProcessWarnSet is shared by every assembler built without its own set.
// It grows for the life of the process.
var ProcessWarnSet WarnSet = NewWarnSet()

type syncWarnSet struct {
	seen sync.Map
}

// NewWarnSet returns an empty set safe for concurrent use.
func NewWarnSet() WarnSet {
	return &syncWarnSet{}
}

func (s *syncWarnSet) AddIfAbsent(code string) bool {
	_, loaded := s.seen.LoadOrStore(code, struct{}{})
	return !loaded
}

// ResolveLanguage maps an ISO 639-1 code, optionally followed by a region
// ("pt_BR", "zh-cn"), to a language base.
func ResolveLanguage(code string) (language.Base, bool) {
	code = strings.TrimSpace(code)
	if i := strings.IndexAny(code, "_-"); i >= 0 {
		code = code[:i]
	}
	if len(code) != 2 {
		return language.Base{}, false
	}
	base, err := language.ParseBase(strings.ToLower(code))
	if err != nil {
		return language.Base{}, false
	}
	return base, true
}
