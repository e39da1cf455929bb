package standings

import (
	"math"
	"sort"
)

// Epsilon is the tolerance under which two fractions are treated as tied. Every fraction
// comparison in rank grouping and tie resolution goes through Equal.
const Epsilon = 1e-9

// Equal reports whether two fractions are tied
func Equal(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// Partition orders members by descending metric and splits them into groups of tied values.
// Each group is anchored on its first member's value. Members with identical values keep their
// input order.
func Partition(members []int, metric func(int) float64) [][]int {
	if len(members) == 0 {
		return nil
	}

	values := make(map[int]float64, len(members))
	for _, m := range members {
		values[m] = metric(m)
	}

	sorted := make([]int, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		return values[sorted[i]] > values[sorted[j]]
	})

	var groups [][]int
	current := []int{sorted[0]}
	anchor := values[sorted[0]]
	for _, m := range sorted[1:] {
		if Equal(values[m], anchor) {
			current = append(current, m)
			continue
		}
		groups = append(groups, current)
		current = []int{m}
		anchor = values[m]
	}
	return append(groups, current)
}
