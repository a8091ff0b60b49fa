// Package elo implements the rating arithmetic used by the voting engine.
// All functions are pure; persistence and orchestration live elsewhere.
package elo

import (
	"errors"
	"math"
)

const (
	// Base and Scale parameterize the logistic win-probability curve.
	Base  = 10.0
	Scale = 400.0

	// K-factor tiers. Ratings of fresh contestants move fast, established
	// high ratings stabilize.
	ProvisionalKFactor = 40
	StandardKFactor    = 20
	MasterKFactor      = 10

	// Tier boundaries. Exactly 30 comparisons falls through to the rating
	// tiers; exactly 2400 rating gets the master K.
	provisionalGames = 30
	masterRating     = 2400
)

// Scores assigned to the two sides of a decided comparison.
const (
	Win  = 1.0
	Loss = 0.0
)

var ErrInvalidRating = errors.New("rating value is invalid")

// WinProbability returns the expected score of a contestant rated self
// against an opponent, rounded to three decimals. It is symmetric:
// WinProbability(a, b) + WinProbability(b, a) rounds to 1 within a thousandth.
func WinProbability(self, opponent float64) float64 {
	return round3(1.0 / (1.0 + math.Pow(Base, (opponent-self)/Scale)))
}

// NextRating applies one comparison outcome to a rating, rounded to three
// decimals. actual is Win or Loss. The result is deliberately not floored:
// a weak contestant losing upward matches can go negative.
func NextRating(rating, expected, actual float64, kFactor int) float64 {
	return round3(rating + float64(kFactor)*(actual-expected))
}

// KFactor selects the volatility multiplier from a contestant's total prior
// comparisons and current rating.
func KFactor(priorComparisons int, rating float64) int {
	if priorComparisons < provisionalGames {
		return ProvisionalKFactor
	}
	if rating < masterRating {
		return StandardKFactor
	}
	return MasterKFactor
}

// ValidateRating rejects NaN and infinite ratings before they reach the
// arithmetic above.
func ValidateRating(rating float64) error {
	if math.IsNaN(rating) || math.IsInf(rating, 0) {
		return ErrInvalidRating
	}
	return nil
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
