package match

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// SimilarityScorer computes a deterministic, symmetric similarity between
// two product names in [0, 1]. Any algorithm with those properties can be
// substituted for the default token-sort scorer.
type SimilarityScorer interface {
	Score(a, b string) float64
}

// TokenSortScorer scores names by blending token-set overlap with a
// bigram ratio over the sorted token join. Word order does not matter;
// "taladro bosch 13mm" and "bosch taladro 13mm" score 1.0.
type TokenSortScorer struct{}

// NewTokenSortScorer creates the default scorer
func NewTokenSortScorer() *TokenSortScorer {
	return &TokenSortScorer{}
}

// Score implements SimilarityScorer
func (s *TokenSortScorer) Score(a, b string) float64 {
	tokensA := tokenize(a)
	tokensB := tokenize(b)

	if len(tokensA) == 0 && len(tokensB) == 0 {
		return 1.0
	}
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0.0
	}

	jaccard := tokenJaccard(tokensA, tokensB)
	bigram := bigramRatio(strings.Join(tokensA, " "), strings.Join(tokensB, " "))

	return 0.5*jaccard + 0.5*bigram
}

// tokenize folds case, strips punctuation and returns the sorted unique
// tokens of a name.
func tokenize(s string) []string {
	folded := cases.Fold().String(s)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)

	seen := make(map[string]bool)
	var tokens []string
	for _, tok := range strings.Fields(cleaned) {
		if !seen[tok] {
			seen[tok] = true
			tokens = append(tokens, tok)
		}
	}
	sort.Strings(tokens)
	return tokens
}

// tokenJaccard is intersection over union of two token sets
func tokenJaccard(a, b []string) float64 {
	set := make(map[string]bool, len(a))
	for _, tok := range a {
		set[tok] = true
	}

	intersection := 0
	union := len(set)
	for _, tok := range b {
		if set[tok] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// bigramRatio is the Sorensen-Dice coefficient over character bigrams
func bigramRatio(a, b string) float64 {
	if a == b {
		return 1.0
	}

	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return 0.0
	}

	counts := make(map[string]int, len(bigramsA))
	for _, bg := range bigramsA {
		counts[bg]++
	}
	matches := 0
	for _, bg := range bigramsB {
		if counts[bg] > 0 {
			counts[bg]--
			matches++
		}
	}

	return 2.0 * float64(matches) / float64(len(bigramsA)+len(bigramsB))
}

func bigrams(s string) []string {
	runes := []rune(s)
	if len(runes) < 2 {
		return nil
	}
	result := make([]string, 0, len(runes)-1)
	for i := 0; i < len(runes)-1; i++ {
		result = append(result, string(runes[i:i+2]))
	}
	return result
}
