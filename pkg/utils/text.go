// Package utils provides shared text and math helpers.
package utils

// Truncate returns s cut to maxLen runes with "..." appended when it was
// longer. A maxLen of zero or less returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
