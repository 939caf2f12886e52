package dedup

import (
	"regexp"
	"strings"
)

var multiSpaceRe = regexp.MustCompile(`\s{2,}`)

// NormalizeName standardizes an offering name for cluster matching by:
//  1. Trimming whitespace
//  2. Converting to lowercase
//  3. Collapsing internal whitespace runs into single spaces
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = strings.ToLower(name)
	name = multiSpaceRe.ReplaceAllString(name, " ")
	return name
}

// tokenSet splits a normalized name into its unique whitespace-delimited tokens.
func tokenSet(name string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(NormalizeName(name)) {
		set[tok] = struct{}{}
	}
	return set
}

// TokenSimilarity returns the Jaccard coefficient of the two names' token
// sets: |intersection| / |union| over lowercase whitespace-split tokens.
// Two empty names are not considered similar.
func TokenSimilarity(a, b string) float64 {
	sa, sb := tokenSet(a), tokenSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range sa {
		if _, ok := sb[tok]; ok {
			intersection++
		}
	}
	union := len(sa) + len(sb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
