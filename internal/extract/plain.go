package extract

import "strings"

// plainText returns content as a string with invalid UTF-8 replaced.
func plainText(content []byte) (string, error) {
	return strings.ToValidUTF8(string(content), "\uFFFD"), nil
}
