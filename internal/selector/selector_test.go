package selector

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectPicksFromWeightedWheel(t *testing.T) {
	pool := NewPool("a", "b")
	pool.Operators[0].Weight = 0
	pool.Operators[1].Weight = 1
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		o := pool.Select(rng)
		require.Equal(t, "b", o.Name)
	}
	require.Equal(t, 20, pool.Operators[1].TimesUsed)
}

func TestUpdateWeightsConvergesTowardScoringOperator(t *testing.T) {
	pool := NewPool("good", "bad")
	for segment := 0; segment < 10; segment++ {
		pool.Award("good", 9)
		pool.Operators[0].TimesUsed = 1
		pool.Operators[1].TimesUsed = 1 // used but never scores
		pool.UpdateWeights(0.1)
	}
	good := 0.0
	bad := 0.0
	for _, o := range pool.Operators {
		if o.Name == "good" {
			good = o.Weight
		} else {
			bad = o.Weight
		}
	}
	require.Greater(t, good, bad)
}

func TestUnusedOperatorRetainsWeight(t *testing.T) {
	pool := NewPool("used", "unused")
	pool.Operators[0].TimesUsed = 1
	pool.Award("used", 5)
	pool.UpdateWeights(0.5)
	require.Equal(t, 1.0, pool.Operators[1].Weight)
}
