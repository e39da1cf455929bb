// Package simulation resolves full seasons and aggregates many resolutions into finishing
// probabilities.
package simulation

import (
	"fmt"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/series"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/standings"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/tiebreak"
)

// Input is everything needed to resolve a season
type Input struct {
	Schedule  season.Schedule
	Overrides season.Overrides
	Threshold int
	Policy    tiebreak.Policy
}

// Standing is one row of a resolved ordering
type Standing struct {
	Rank   int     `json:"rank"`
	ID     string  `json:"id"`
	Rating float64 `json:"rating"`
	standings.Record
	SeriesRecord string `json:"series_record"`
	MapRecord    string `json:"map_record"`
}

// Ordering is a strict final order of every competitor
type Ordering struct {
	Standings []Standing      `json:"standings"`
	Steps     []tiebreak.Step `json:"tiebreak_steps,omitempty"`
}

// IDs returns competitor identities in finishing order
func (o *Ordering) IDs() []string {
	ids := make([]string, len(o.Standings))
	for i, s := range o.Standings {
		ids[i] = s.ID
	}
	return ids
}

type pairing struct {
	a, b int
}

// Engine holds the validated, immutable inputs of a season. Decided series (overrides first,
// then completed results) are precomputed once; each resolution copies them into a fresh result
// slice and only generates the pending series. An Engine is safe for concurrent use.
type Engine struct {
	ids       []string
	ratings   []float64
	threshold int
	policy    tiebreak.Policy
	decided   []standings.Result
	pending   []pairing
}

// NewEngine validates the input and prepares it for repeated resolution
func NewEngine(in Input) (*Engine, error) {
	if err := in.Schedule.Validate(in.Overrides, in.Threshold); err != nil {
		return nil, err
	}
	if err := in.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid tiebreak policy: %w", err)
	}

	e := &Engine{
		ids:       make([]string, len(in.Schedule.Competitors)),
		ratings:   make([]float64, len(in.Schedule.Competitors)),
		threshold: in.Threshold,
		policy:    in.Policy,
	}

	index := make(map[string]int, len(in.Schedule.Competitors))
	for i, c := range in.Schedule.Competitors {
		e.ids[i] = c.ID
		e.ratings[i] = c.Rating
		index[c.ID] = i
	}

	for _, sr := range in.Schedule.Series {
		a, b := index[sr.A], index[sr.B]
		score, overridden := in.Overrides[sr.ID]
		switch {
		case overridden:
			e.decided = append(e.decided, standings.Result{A: a, B: b, UnitsA: score.A, UnitsB: score.B})
		case sr.Completed():
			e.decided = append(e.decided, standings.Result{A: a, B: b, UnitsA: sr.Score.A, UnitsB: sr.Score.B})
		default:
			e.pending = append(e.pending, pairing{a: a, b: b})
		}
	}

	return e, nil
}

// Len returns the number of competitors
func (e *Engine) Len() int {
	return len(e.ids)
}

// IDs returns competitor identities in schedule order
func (e *Engine) IDs() []string {
	return append([]string(nil), e.ids...)
}

// Pending returns how many series are generated per resolution
func (e *Engine) Pending() int {
	return len(e.pending)
}

// Resolve produces one complete season: pending series are generated from src and the full
// result set is ranked. Identical draws reproduce an identical ordering.
func (e *Engine) Resolve(src series.Source, opts ...tiebreak.Option) (*Ordering, error) {
	table := standings.New(e.ids, e.fill(src))
	return e.order(table, src, opts...)
}

// Current ranks decided series only. No series is generated; src is consumed only when a tie
// reaches the terminal tier.
func (e *Engine) Current(src series.Source, opts ...tiebreak.Option) (*Ordering, error) {
	table := standings.New(e.ids, e.decided)
	return e.order(table, src, opts...)
}

// rank is the allocation-light path used by the Monte Carlo loop
func (e *Engine) rank(src series.Source) ([]int, error) {
	table := standings.New(e.ids, e.fill(src))
	return tiebreak.NewResolver(table, e.ratings, e.threshold, e.policy, src).Rank()
}

func (e *Engine) fill(src series.Source) []standings.Result {
	results := make([]standings.Result, len(e.decided), len(e.decided)+len(e.pending))
	copy(results, e.decided)
	for _, p := range e.pending {
		score := series.Play(src, e.ratings[p.a], e.ratings[p.b], e.threshold)
		results = append(results, standings.Result{A: p.a, B: p.b, UnitsA: score.A, UnitsB: score.B})
	}
	return results
}

func (e *Engine) order(table *standings.Table, src series.Source, opts ...tiebreak.Option) (*Ordering, error) {
	resolver := tiebreak.NewResolver(table, e.ratings, e.threshold, e.policy, src, opts...)
	order, err := resolver.Rank()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve standings: %w", err)
	}

	ordering := &Ordering{
		Standings: make([]Standing, len(order)),
		Steps:     resolver.Steps(),
	}
	for pos, i := range order {
		rec := table.Record(i)
		ordering.Standings[pos] = Standing{
			Rank:         pos + 1,
			ID:           e.ids[i],
			Rating:       e.ratings[i],
			Record:       rec,
			SeriesRecord: fmt.Sprintf("%d-%d", rec.SeriesWins, rec.SeriesLosses),
			MapRecord:    fmt.Sprintf("%d-%d", rec.UnitWins, rec.UnitLosses),
		}
	}
	return ordering, nil
}
