package tiebreak

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/series"
)

// Terminal names the procedure that settles a tie no deterministic tier could break
type Terminal string

const (
	// RandomDraw picks uniformly among the still-tied competitors for the position
	RandomDraw Terminal = "random_draw"
	// TiebreakerSeries plays simulated decisive series among the still-tied competitors;
	// the last one standing takes the position
	TiebreakerSeries Terminal = "tiebreaker_series"
)

var ErrNoTerminalPolicy = errors.New("terminal tiebreak policy has no default")

// Policy selects the terminal procedure for each rank boundary
type Policy struct {
	Default Terminal         `json:"default" yaml:"default"`
	ByRank  map[int]Terminal `json:"by_rank,omitempty" yaml:"by_rank"`
}

// For returns the procedure deciding the given rank
func (p Policy) For(rank int) Terminal {
	if t, ok := p.ByRank[rank]; ok {
		return t
	}
	return p.Default
}

// Validate rejects policies with no explicit default or unknown procedures
func (p Policy) Validate() error {
	if p.Default == "" {
		return ErrNoTerminalPolicy
	}
	if !p.Default.valid() {
		return fmt.Errorf("unknown terminal procedure %q", p.Default)
	}
	ranks := make([]int, 0, len(p.ByRank))
	for rank := range p.ByRank {
		ranks = append(ranks, rank)
	}
	sort.Ints(ranks)
	for _, rank := range ranks {
		if rank < 1 {
			return fmt.Errorf("terminal procedure for rank %d: ranks start at 1", rank)
		}
		if !p.ByRank[rank].valid() {
			return fmt.Errorf("unknown terminal procedure %q for rank %d", p.ByRank[rank], rank)
		}
	}
	return nil
}

func (t Terminal) valid() bool {
	return t == RandomDraw || t == TiebreakerSeries
}

// gauntlet runs winner-stays-on series through the remaining competitors in order and returns
// the index of the survivor
func (r *Resolver) gauntlet(remaining []int) int {
	champion := 0
	for challenger := 1; challenger < len(remaining); challenger++ {
		a, b := remaining[champion], remaining[challenger]
		score := series.Play(r.src, r.ratings[a], r.ratings[b], r.threshold)
		if !score.AWon() {
			champion = challenger
		}
	}
	return champion
}
