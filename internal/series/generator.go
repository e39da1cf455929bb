// Package series simulates best-of-N series unit by unit.
package series

import (
	"math/rand/v2"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/rating"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
)

// Source supplies the random draws consumed by a simulation.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// NewSeeded returns a PCG source for one independent random stream
func NewSeeded(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}

// Play simulates a first-to-threshold series. Each unit is an independent draw won by A with
// the logistic win probability of the two ratings.
func Play(src Source, ratingA, ratingB float64, threshold int) season.Score {
	p := rating.WinProbability(ratingA, ratingB)

	var score season.Score
	for score.A < threshold && score.B < threshold {
		if src.Float64() < p {
			score.A++
		} else {
			score.B++
		}
	}
	return score
}
