package normalize

import (
	"strings"
	"unicode"
)

// Text canonicalizes free text for comparison: lowercase, punctuation
// stripped, whitespace collapsed, trimmed. Empty input yields an empty
// string and the function is idempotent, so it is safe to apply at every
// comparison site without tracking whether a value was already normalized.
func Text(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ToLower(raw)

	b := strings.Builder{}
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokens returns the whitespace-separated tokens of the normalized form.
func Tokens(raw string) []string {
	return strings.Fields(Text(raw))
}
