package textutil

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Ratio returns the SequenceMatcher similarity of a and b in [0, 1], compared
// case-insensitively. Two empty strings are considered identical.
func Ratio(a, b string) float64 {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	if a == b {
		return 1
	}
	matcher := difflib.NewMatcher(runes(a), runes(b))
	return matcher.Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// BestMatch returns the index of the candidate with the highest Ratio against
// target, and that ratio. Ties keep the earliest candidate. The index is -1
// for an empty candidate list.
func BestMatch(target string, candidates []string) (index int, ratio float64) {
	index = -1
	for i, candidate := range candidates {
		r := Ratio(candidate, target)
		if index < 0 || r > ratio {
			index, ratio = i, r
		}
	}
	return index, ratio
}
