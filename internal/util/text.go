package util

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// SanitizePostgresText strips invalid UTF-8 sequences and NUL bytes, which
// Postgres text columns reject.
func SanitizePostgresText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// NormalizeText trims the value and collapses all interior whitespace runs
// to single spaces.
func NormalizeText(value string) string {
	return whitespaceRe.ReplaceAllString(strings.TrimSpace(value), " ")
}

// TruncateRunes cuts value after at most limit runes, never splitting a
// multibyte sequence.
func TruncateRunes(value string, limit int) string {
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range value {
		if n == limit {
			return value[:i]
		}
		n++
	}
	return value
}
