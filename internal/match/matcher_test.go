package match

import (
	"testing"

	"procurement-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedScorer returns canned scores keyed by candidate name
type fixedScorer struct {
	scores map[string]float64
}

func (f *fixedScorer) Score(_, b string) float64 {
	return f.scores[b]
}

func TestMatcher(t *testing.T) {
	catalog := []model.Product{
		{ID: 1, Name: "alpha"},
		{ID: 2, Name: "beta"},
		{ID: 3, Name: "gamma"},
		{ID: 4, Name: "delta"},
	}

	t.Run("filters below threshold and sorts by score", func(t *testing.T) {
		scorer := &fixedScorer{scores: map[string]float64{
			"alpha": 0.95, "beta": 0.90, "gamma": 0.50, "delta": 0.88,
		}}
		m := NewMatcher(scorer, 0.87, 3)

		got := m.Match("anything", catalog)
		require.Len(t, got, 3)
		assert.Equal(t, uint(1), got[0].ProductID)
		assert.Equal(t, uint(2), got[1].ProductID)
		assert.Equal(t, uint(4), got[2].ProductID)
	})

	t.Run("ties break on lowest product id", func(t *testing.T) {
		scorer := &fixedScorer{scores: map[string]float64{
			"alpha": 0.90, "beta": 0.90, "gamma": 0.90, "delta": 0.90,
		}}
		m := NewMatcher(scorer, 0.87, 4)

		got := m.Match("anything", catalog)
		require.Len(t, got, 4)
		for i, want := range []uint{1, 2, 3, 4} {
			assert.Equal(t, want, got[i].ProductID)
		}
	})

	t.Run("topK caps the candidate list", func(t *testing.T) {
		scorer := &fixedScorer{scores: map[string]float64{
			"alpha": 0.90, "beta": 0.91, "gamma": 0.92, "delta": 0.93,
		}}
		m := NewMatcher(scorer, 0.87, 2)

		got := m.Match("anything", catalog)
		require.Len(t, got, 2)
		assert.Equal(t, uint(4), got[0].ProductID)
		assert.Equal(t, uint(3), got[1].ProductID)
	})

	t.Run("no candidates above threshold", func(t *testing.T) {
		scorer := &fixedScorer{scores: map[string]float64{
			"alpha": 0.1, "beta": 0.2, "gamma": 0.3, "delta": 0.4,
		}}
		m := NewMatcher(scorer, 0.87, 3)
		assert.Empty(t, m.Match("anything", catalog))
	})

	t.Run("deterministic with real scorer", func(t *testing.T) {
		m := NewMatcher(NewTokenSortScorer(), 0.87, 3)
		snapshot := []model.Product{
			{ID: 10, Name: "Fertilizante liquido organico 1L"},
			{ID: 11, Name: "Fertilizante liquido 1L"},
			{ID: 12, Name: "Sustrato premium 5kg"},
		}
		first := m.Match("fertilizante liquido 1l", snapshot)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, m.Match("fertilizante liquido 1l", snapshot))
		}
	})
}
