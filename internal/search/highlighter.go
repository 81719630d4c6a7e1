package search

import (
	"strings"
	"unicode/utf8"
)

// TrimFragment shortens a highlighted fragment to size visible runes.
// Markup tags do not count towards size and are kept; a tag left open by
// the cut is closed. Trimmed fragments end with "...".
func TrimFragment(fragment string, size int) string {
	if size <= 0 {
		return fragment
	}
	var (
		b       strings.Builder
		visible int
		open    []string
	)
	for i := 0; i < len(fragment); {
		if fragment[i] == '<' {
			end := strings.IndexByte(fragment[i:], '>')
			if end < 0 {
				break
			}
			tag := fragment[i : i+end+1]
			b.WriteString(tag)
			if name, closing := tagName(tag); name != "" {
				if closing {
					if n := len(open); n > 0 && open[n-1] == name {
						open = open[:n-1]
					}
				} else {
					open = append(open, name)
				}
			}
			i += end + 1
			continue
		}
		if visible == size {
			for j := len(open) - 1; j >= 0; j-- {
				b.WriteString("</" + open[j] + ">")
			}
			b.WriteString("...")
			return b.String()
		}
		r, width := utf8.DecodeRuneInString(fragment[i:])
		b.WriteRune(r)
		visible++
		i += width
	}
	return fragment
}

func tagName(tag string) (name string, closing bool) {
	inner := strings.Trim(tag, "<>")
	if strings.HasSuffix(inner, "/") {
		return "", false
	}
	if strings.HasPrefix(inner, "/") {
		closing = true
		inner = inner[1:]
	}
	if f := strings.Fields(inner); len(f) > 0 {
		return f[0], closing
	}
	return "", false
}
