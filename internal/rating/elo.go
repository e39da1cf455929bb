// Package rating implements the Elo-style logistic win-probability model.
package rating

import "math"

// Scale is the rating difference at which the favourite is a 10:1 pick
const Scale = 400.0

// WinProbability returns the probability that a competitor rated rA beats one rated rB in a
// single unit. WinProbability(rB, rA) is computed as the exact complement.
func WinProbability(rA, rB float64) float64 {
	if rA == rB {
		return 0.5
	}
	if rA < rB {
		return 1 - WinProbability(rB, rA)
	}
	return 1.0 / (1.0 + math.Pow(10, (rB-rA)/Scale))
}

// SeriesWinProbability returns the exact probability of reaching threshold unit wins first when
// each unit is won independently with probability p.
func SeriesWinProbability(p float64, threshold int) float64 {
	if threshold < 1 {
		return 0
	}
	q := 1 - p
	total := 0.0
	for k := 0; k < threshold; k++ {
		total += binomial(threshold-1+k, k) * math.Pow(p, float64(threshold)) * math.Pow(q, float64(k))
	}
	return total
}

// ExpectedUnits returns the expected units won by each side over a first-to-threshold series
func ExpectedUnits(p float64, threshold int) (a, b float64) {
	q := 1 - p
	t := float64(threshold)
	for k := 0; k < threshold; k++ {
		ways := binomial(threshold-1+k, k)
		aWins := ways * math.Pow(p, t) * math.Pow(q, float64(k))
		bWins := ways * math.Pow(q, t) * math.Pow(p, float64(k))
		a += aWins*t + bWins*float64(k)
		b += aWins*float64(k) + bWins*t
	}
	return a, b
}

func binomial(n, k int) float64 {
	if k < 0 || k > n {
		return 0
	}
	result := 1.0
	for i := 1; i <= k; i++ {
		result = result * float64(n-k+i) / float64(i)
	}
	return result
}
