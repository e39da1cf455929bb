// Package tiebreak turns rank groups into a strict order through a recursive cascade of
// tie-break tiers.
package tiebreak

import (
	"errors"
	"fmt"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/series"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/standings"
)

var ErrRecursionLimit = errors.New("tie resolution exceeded maximum recursion depth")

// Step records one tier attempt on one group
type Step struct {
	Tier      Tier       `json:"tier"`
	Rule      string     `json:"rule"`
	Members   []string   `json:"members"`
	StartRank int        `json:"start_rank"`
	Depth     int        `json:"depth"`
	Outcome   string     `json:"outcome"`
	Groups    [][]string `json:"groups,omitempty"`
}

// Resolver orders the competitors of one standings table. It is not safe for concurrent use;
// each season iteration builds its own.
type Resolver struct {
	table     *standings.Table
	ratings   []float64
	threshold int
	policy    Policy
	src       series.Source
	cascade   []tier
	maxDepth  int
	tracing   bool
	steps     []Step
}

// Option configures a Resolver
type Option func(*Resolver)

// WithTrace records every tier attempt, see Steps
func WithTrace() Option {
	return func(r *Resolver) {
		r.tracing = true
	}
}

// WithMaxDepth overrides the recursion guard
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		r.maxDepth = depth
	}
}

// NewResolver creates a resolver over table. ratings and threshold are used by tiebreaker
// series; src supplies terminal-tier randomness.
func NewResolver(table *standings.Table, ratings []float64, threshold int, policy Policy, src series.Source, opts ...Option) *Resolver {
	r := &Resolver{
		table:     table,
		ratings:   ratings,
		threshold: threshold,
		policy:    policy,
		src:       src,
		cascade:   defaultCascade(),
		maxDepth:  table.Len(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rank returns every competitor index in strict final order
func (r *Resolver) Rank() ([]int, error) {
	order := make([]int, 0, r.table.Len())
	start := 1
	for _, group := range r.table.Groups() {
		resolved, err := r.Resolve(group, start)
		if err != nil {
			return nil, err
		}
		order = append(order, resolved...)
		start += len(group)
	}
	return order, nil
}

// Resolve orders one tied group whose best member would occupy startRank
func (r *Resolver) Resolve(group []int, startRank int) ([]int, error) {
	return r.resolve(group, startRank, 0)
}

func (r *Resolver) resolve(group []int, startRank, depth int) ([]int, error) {
	if len(group) <= 1 {
		return group, nil
	}
	if depth > r.maxDepth {
		return nil, fmt.Errorf("%w: group %v at rank %d", ErrRecursionLimit, r.table.IDs(group), startRank)
	}

	for _, t := range r.cascade {
		outcome := t.apply(r, group, startRank)
		r.record(t.id, group, startRank, depth, outcome)
		if outcome.Kind != Separated {
			continue
		}

		ordered := make([]int, 0, len(group))
		pos := startRank
		for _, sub := range outcome.Groups {
			resolved, err := r.resolve(sub, pos, depth+1)
			if err != nil {
				return nil, err
			}
			ordered = append(ordered, resolved...)
			pos += len(sub)
		}
		return ordered, nil
	}

	return nil, fmt.Errorf("no tier separated group %v at rank %d", r.table.IDs(group), startRank)
}

// Apply runs a single tier against a group without recursing
func (r *Resolver) Apply(id Tier, group []int, startRank int) Outcome {
	for _, t := range r.cascade {
		if t.id == id {
			return t.apply(r, group, startRank)
		}
	}
	return Outcome{Kind: Inapplicable}
}

// Explain returns the first tier that separates the group. Only deterministic tiers are
// evaluated; TierTerminal is returned when none of them helps.
func (r *Resolver) Explain(group []int) Tier {
	for _, t := range r.cascade {
		if t.id == TierTerminal {
			break
		}
		if t.apply(r, group, 1).Kind == Separated {
			return t.id
		}
	}
	return TierTerminal
}

// Steps returns the recorded tier attempts when tracing is enabled
func (r *Resolver) Steps() []Step {
	return r.steps
}

func (r *Resolver) record(id Tier, group []int, startRank, depth int, outcome Outcome) {
	if !r.tracing {
		return
	}
	step := Step{
		Tier:      id,
		Rule:      id.String(),
		Members:   r.table.IDs(group),
		StartRank: startRank,
		Depth:     depth,
		Outcome:   outcome.Kind.String(),
	}
	for _, g := range outcome.Groups {
		step.Groups = append(step.Groups, r.table.IDs(g))
	}
	r.steps = append(r.steps, step)
}
