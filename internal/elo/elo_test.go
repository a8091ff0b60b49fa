package elo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWinProbability_ReferenceValues(t *testing.T) {
	assert.InDelta(t, 0.76, WinProbability(1500, 1300), 1e-9)
	assert.InDelta(t, 0.053, WinProbability(1100, 1600), 1e-9)

	// Equal ratings are a coin flip.
	assert.InDelta(t, 0.5, WinProbability(1200, 1200), 1e-9)
}

func TestWinProbability_Symmetry(t *testing.T) {
	pairs := [][2]float64{
		{1500, 1300},
		{1100, 1600},
		{0, 0},
		{-50, 2750},
		{2400, 2399},
	}

	for _, pair := range pairs {
		sum := WinProbability(pair[0], pair[1]) + WinProbability(pair[1], pair[0])
		assert.InDelta(t, 1.0, sum, 0.001, "ratings %v", pair)
	}
}

func TestNextRating_ReferenceValues(t *testing.T) {
	assert.InDelta(t, 1507.68, NextRating(1500, 0.76, Win, 32), 1e-9)
	assert.InDelta(t, 1130.304, NextRating(1100, 0.053, Win, 32), 1e-9)
}

func TestNextRating_CanGoNegative(t *testing.T) {
	// A barely rated contestant losing to a favorite keeps falling; no floor.
	next := NextRating(5, 0.9, Loss, 40)
	assert.Negative(t, next)
	assert.InDelta(t, -31, next, 1e-9)
}

func TestKFactor_Tiers(t *testing.T) {
	assert.Equal(t, 40, KFactor(10, 100))
	assert.Equal(t, 20, KFactor(40, 100))
	assert.Equal(t, 10, KFactor(40, 2400))
}

func TestKFactor_Boundaries(t *testing.T) {
	// Exactly 30 prior comparisons leaves the provisional tier.
	assert.Equal(t, 20, KFactor(30, 100))
	// Exactly 2400 rating is already master tier.
	assert.Equal(t, 10, KFactor(30, 2400))
	assert.Equal(t, 20, KFactor(30, 2399.999))
	// Provisional wins regardless of rating.
	assert.Equal(t, 40, KFactor(29, 2600))
}

func TestValidateRating(t *testing.T) {
	assert.NoError(t, ValidateRating(0))
	assert.NoError(t, ValidateRating(-123.456))
	assert.ErrorIs(t, ValidateRating(math.NaN()), ErrInvalidRating)
	assert.ErrorIs(t, ValidateRating(math.Inf(1)), ErrInvalidRating)
}
