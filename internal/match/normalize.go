package match

import (
	"strings"
	"unicode"
)

// Normalize lower-cases and trims a raw extracted value. An absent or
// whitespace-only input normalizes to "", which no matcher ever matches.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizePhone strips everything but digits. When the digit string is ten
// digits or longer only the last ten are kept, so country-code and trunk
// prefixes like "+91" or a leading "0" do not affect comparison.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) >= 10 {
		digits = digits[len(digits)-10:]
	}
	return digits
}

// tokenize splits a normalized string on anything that is not a letter or
// digit, dropping empty tokens.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
