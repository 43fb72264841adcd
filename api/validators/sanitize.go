package validators

import (
	"strings"
	"unicode"
)

// SanitizeString collapses whitespace, drops control characters and cuts the
// result to maxLen runes. maxLen <= 0 means no limit.
func SanitizeString(input string, maxLen int) string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	out := []rune(strings.Join(fields, " "))
	if maxLen > 0 && len(out) > maxLen {
		out = []rune(strings.TrimSpace(string(out[:maxLen])))
	}
	return string(out)
}
