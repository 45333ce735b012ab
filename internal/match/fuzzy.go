package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultThreshold is the similarity cutoff (0-100 scale) used when no
// explicit threshold is configured.
const DefaultThreshold = 80

// Ratio scores the character-level similarity of two strings on a 0-100
// scale. A substitution counts as an insert plus a delete, so strings with no
// characters in common score 0 and identical strings score 100.
func Ratio(a, b string) int {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	dist := levenshtein.ComputeDistance(a, b)
	lensum := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	score := ((lensum - 2*dist) * 100) / lensum
	if score < 0 {
		score = 0
	}
	return score
}

// TokenSortRatio scores similarity after splitting both strings into tokens,
// sorting them, and rejoining. Word-order differences ("Springfield, 123 Main
// St" vs "123 Main St, Springfield") score 100 here while Ratio punishes them.
func TokenSortRatio(a, b string) int {
	return Ratio(sortTokens(a), sortTokens(b))
}

// FuzzyMatch reports whether two raw values are similar enough under the
// given threshold. Both the direct and the token-sorted ratio are computed
// and the higher one decides; OCR output reorders tokens and introduces
// character noise, and neither metric alone handles both. An input that is
// empty after normalization never matches.
func FuzzyMatch(a, b string, threshold int) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return Similarity(na, nb) >= threshold
}

// Similarity returns the score FuzzyMatch compares against the threshold.
func Similarity(a, b string) int {
	direct := Ratio(a, b)
	tokenSort := TokenSortRatio(a, b)
	if tokenSort > direct {
		return tokenSort
	}
	return direct
}

func sortTokens(s string) string {
	tokens := tokenize(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
