package standings

// HeadToHead returns each group member's record restricted to series played inside the group,
// aligned with group order
func (t *Table) HeadToHead(group []int) []Record {
	pos := make(map[int]int, len(group))
	for k, i := range group {
		pos[i] = k
	}

	records := make([]Record, len(group))
	for _, r := range t.results {
		ka, okA := pos[r.A]
		kb, okB := pos[r.B]
		if !okA || !okB {
			continue
		}
		records[ka].add(r.UnitsA, r.UnitsB)
		records[kb].add(r.UnitsB, r.UnitsA)
	}
	return records
}

// AllPlayed reports whether every pair inside the group met at least once
func (t *Table) AllPlayed(group []int) bool {
	for a := 0; a < len(group); a++ {
		for b := a + 1; b < len(group); b++ {
			if !t.Played(group[a], group[b]) {
				return false
			}
		}
	}
	return true
}

// StrengthOfSchedule returns the mean full-season fraction of every opponent competitor i
// faced, counted once per series. It is 0 when i has not played.
func (t *Table) StrengthOfSchedule(i int, basis Basis) float64 {
	opponents := t.opponents[i]
	if len(opponents) == 0 {
		return 0
	}

	total := 0.0
	for _, o := range opponents {
		total += t.records[o].Fraction(basis)
	}
	return total / float64(len(opponents))
}
