package standings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_HeadToHead(t *testing.T) {
	table := sampleTable()

	records := table.HeadToHead([]int{0, 1})
	assert.Equal(t, Record{SeriesWins: 1, UnitWins: 3, UnitLosses: 1}, records[0])
	assert.Equal(t, Record{SeriesLosses: 1, UnitWins: 1, UnitLosses: 3}, records[1])

	// group order drives output order
	records = table.HeadToHead([]int{2, 1})
	assert.Equal(t, Record{SeriesLosses: 1, UnitWins: 2, UnitLosses: 3}, records[0])
	assert.Equal(t, Record{SeriesWins: 1, UnitWins: 3, UnitLosses: 2}, records[1])
}

func TestTable_AllPlayed(t *testing.T) {
	table := sampleTable()

	assert.True(t, table.AllPlayed([]int{0, 1, 2}))
	assert.True(t, table.AllPlayed([]int{1}))
	assert.False(t, table.AllPlayed([]int{0, 1, 3}))
	assert.False(t, table.AllPlayed([]int{3, 2}))
}

func TestTable_StrengthOfSchedule(t *testing.T) {
	table := sampleTable()

	// A faced B (1/2) and C (0/2)
	assert.InDelta(t, 0.25, table.StrengthOfSchedule(0, SeriesBasis), 1e-12)
	// A faced B (4/9) and C (2/8)
	assert.InDelta(t, (4.0/9.0+2.0/8.0)/2, table.StrengthOfSchedule(0, UnitBasis), 1e-12)
	// B faced A (2/2) and C (0/2): the meeting with B stays in the opponent fractions
	assert.InDelta(t, 0.5, table.StrengthOfSchedule(1, SeriesBasis), 1e-12)
	assert.Equal(t, 0.0, table.StrengthOfSchedule(3, SeriesBasis))
}

func TestTable_StrengthOfSchedule_RepeatOpponent(t *testing.T) {
	table := New([]string{"A", "B", "C"}, []Result{
		{A: 0, B: 1, UnitsA: 3, UnitsB: 0},
		{A: 0, B: 1, UnitsA: 0, UnitsB: 3},
		{A: 0, B: 2, UnitsA: 3, UnitsB: 0},
	})

	// B (1/2) counted twice, C (0/1) once
	assert.InDelta(t, (0.5+0.5+0)/3, table.StrengthOfSchedule(0, SeriesBasis), 1e-12)
}
