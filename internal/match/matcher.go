package match

import (
	"sort"

	"procurement-service/internal/model"
)

// Candidate is one canonical product proposed for an unlinked supplier row
type Candidate struct {
	ProductID uint    `json:"product_id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
}

// Matcher finds canonical-catalog candidates for a supplier product name.
// Results are deterministic for a fixed catalog snapshot: candidates are
// ordered by score descending with exact ties broken by lowest product id.
type Matcher struct {
	scorer    SimilarityScorer
	threshold float64
	topK      int
}

// NewMatcher creates a matcher with the given scorer, similarity threshold
// and maximum candidate count
func NewMatcher(scorer SimilarityScorer, threshold float64, topK int) *Matcher {
	return &Matcher{
		scorer:    scorer,
		threshold: threshold,
		topK:      topK,
	}
}

// Match scores name against every product in the snapshot and returns up
// to topK candidates at or above the threshold
func (m *Matcher) Match(name string, products []model.Product) []Candidate {
	var candidates []Candidate
	for _, p := range products {
		score := m.scorer.Score(name, p.Name)
		if score >= m.threshold {
			candidates = append(candidates, Candidate{
				ProductID: p.ID,
				Name:      p.Name,
				Score:     score,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ProductID < candidates[j].ProductID
	})

	if len(candidates) > m.topK {
		candidates = candidates[:m.topK]
	}
	return candidates
}
