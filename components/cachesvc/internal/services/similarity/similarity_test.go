package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore_IdenticalStringsScoreMax(t *testing.T) {
	got := Score("capital of france", "capital of france", DefaultFusionWeight)

	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestScore_UnrelatedStringsScoreLow(t *testing.T) {
	got := Score("capital of france", "best pizza recipe", DefaultFusionWeight)

	assert.Less(t, got, DefaultThreshold)
}

func TestScore_NearParaphraseScoresAboveHalf(t *testing.T) {
	got := Score("capital of france", "what is the capital of france", DefaultFusionWeight)

	assert.Greater(t, got, 0.5)
}

func TestScore_IsSymmetric(t *testing.T) {
	a := Score("hello world", "world hello there", DefaultFusionWeight)
	b := Score("world hello there", "hello world", DefaultFusionWeight)

	assert.InDelta(t, a, b, 1e-9)
}

func TestScore_BoundedZeroToOne(t *testing.T) {
	cases := [][2]string{
		{"", ""},
		{"", "something"},
		{"a b c", "c b a"},
		{"quick brown fox", "lazy dog"},
	}

	for _, c := range cases {
		got := Score(c[0], c[1], DefaultFusionWeight)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestTopK_OrdersDescendingAndBreaksTiesByIndex(t *testing.T) {
	scores := []float64{0.1, 0.9, 0.9, 0.3}

	got := TopK(scores, 2)

	assert.Equal(t, []int{1, 2}, got)
}

func TestTopK_CapsAtAvailableLength(t *testing.T) {
	scores := []float64{0.5, 0.1}

	got := TopK(scores, 10)

	assert.Len(t, got, 2)
}
