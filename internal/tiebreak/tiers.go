package tiebreak

import "github.com/sam-maryland/seeding-sim-mcp-server/internal/standings"

// Tier identifies one rule of the tie-break cascade
type Tier int

const (
	TierHeadToHeadSeries Tier = iota + 1
	TierHeadToHeadUnits
	TierOverallSeries
	TierOverallUnits
	TierScheduleSeries
	TierScheduleUnits
	TierTerminal
)

func (t Tier) String() string {
	switch t {
	case TierHeadToHeadSeries:
		return "Tier 1: Head-to-head series win percentage"
	case TierHeadToHeadUnits:
		return "Tier 2: Head-to-head map win percentage"
	case TierOverallSeries:
		return "Tier 3: Overall series win percentage"
	case TierOverallUnits:
		return "Tier 4: Overall map win percentage"
	case TierScheduleSeries:
		return "Tier 5: Strength of schedule (series win %)"
	case TierScheduleUnits:
		return "Tier 6: Strength of schedule (map win %)"
	case TierTerminal:
		return "Tier 7: Rank-specific procedure (random draw / tiebreaker series)"
	default:
		return "Unknown tier"
	}
}

// Kind tags the result of applying one tier to a group
type Kind int

const (
	// Inapplicable means the tier's metric is undefined for the group
	Inapplicable Kind = iota
	// NoSeparation means every member shares the tier's value
	NoSeparation
	// Separated means the group split into two or more ordered sub-groups
	Separated
)

func (k Kind) String() string {
	switch k {
	case Inapplicable:
		return "inapplicable"
	case NoSeparation:
		return "no_separation"
	case Separated:
		return "separated"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of a tier application. Groups is set only when Kind is Separated.
type Outcome struct {
	Kind   Kind
	Groups [][]int
}

type tierFunc func(r *Resolver, group []int, startRank int) Outcome

type tier struct {
	id    Tier
	apply tierFunc
}

func defaultCascade() []tier {
	return []tier{
		{TierHeadToHeadSeries, headToHead(standings.SeriesBasis)},
		{TierHeadToHeadUnits, headToHead(standings.UnitBasis)},
		{TierOverallSeries, overall(standings.SeriesBasis)},
		{TierOverallUnits, overall(standings.UnitBasis)},
		{TierScheduleSeries, strengthOfSchedule(standings.SeriesBasis)},
		{TierScheduleUnits, strengthOfSchedule(standings.UnitBasis)},
		{TierTerminal, terminal},
	}
}

// separate turns a metric into a tagged outcome; a single resulting group is never progress
func separate(group []int, metric func(int) float64) Outcome {
	groups := standings.Partition(group, metric)
	if len(groups) < 2 {
		return Outcome{Kind: NoSeparation}
	}
	return Outcome{Kind: Separated, Groups: groups}
}

func headToHead(basis standings.Basis) tierFunc {
	return func(r *Resolver, group []int, _ int) Outcome {
		if !r.table.AllPlayed(group) {
			return Outcome{Kind: Inapplicable}
		}
		records := r.table.HeadToHead(group)
		byMember := make(map[int]float64, len(group))
		for k, i := range group {
			byMember[i] = records[k].Fraction(basis)
		}
		return separate(group, func(i int) float64 { return byMember[i] })
	}
}

func overall(basis standings.Basis) tierFunc {
	return func(r *Resolver, group []int, _ int) Outcome {
		return separate(group, func(i int) float64 {
			return r.table.Record(i).Fraction(basis)
		})
	}
}

func strengthOfSchedule(basis standings.Basis) tierFunc {
	return func(r *Resolver, group []int, _ int) Outcome {
		return separate(group, func(i int) float64 {
			return r.table.StrengthOfSchedule(i, basis)
		})
	}
}

// terminal always separates fully: each position from startRank on is filled by the policy
// configured for that rank, the last member takes the last position
func terminal(r *Resolver, group []int, startRank int) Outcome {
	remaining := make([]int, len(group))
	copy(remaining, group)

	groups := make([][]int, 0, len(group))
	for rank := startRank; len(remaining) > 1; rank++ {
		var k int
		switch r.policy.For(rank) {
		case TiebreakerSeries:
			k = r.gauntlet(remaining)
		default:
			k = r.src.IntN(len(remaining))
		}
		groups = append(groups, []int{remaining[k]})
		remaining = append(remaining[:k], remaining[k+1:]...)
	}
	groups = append(groups, remaining)

	return Outcome{Kind: Separated, Groups: groups}
}
