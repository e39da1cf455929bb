package simulation

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/series"
)

// DefaultBatchSize is the number of iterations sharing one seeded random stream
const DefaultBatchSize = 250

var ErrNoIterations = errors.New("no simulation iterations completed")

// Bracket is a named qualification range of ranks, inclusive
type Bracket struct {
	Name      string `json:"name" yaml:"name"`
	FirstRank int    `json:"first_rank" yaml:"first_rank"`
	LastRank  int    `json:"last_rank" yaml:"last_rank"`
}

// Contains reports whether rank qualifies for the bracket
func (b Bracket) Contains(rank int) bool {
	return rank >= b.FirstRank && rank <= b.LastRank
}

// Options controls a Monte Carlo run
type Options struct {
	Iterations int
	Workers    int
	BatchSize  int
	Seed       uint64
	Timeout    time.Duration
	Brackets   []Bracket
}

// CompetitorOdds holds the finishing distribution of one competitor
type CompetitorOdds struct {
	ID           string             `json:"id"`
	Rating       float64            `json:"rating"`
	Ranks        []float64          `json:"rank_probabilities"`
	Brackets     map[string]float64 `json:"brackets"`
	Margins      map[string]float64 `json:"margins_of_error"`
	ExpectedRank float64            `json:"expected_rank"`
}

// Table flattens the odds into seed_N and bracket keys
func (o CompetitorOdds) Table() map[string]float64 {
	table := make(map[string]float64, len(o.Ranks)+len(o.Brackets))
	for i, p := range o.Ranks {
		table[fmt.Sprintf("seed_%d", i+1)] = p
	}
	for name, p := range o.Brackets {
		table[name] = p
	}
	return table
}

// Result is the outcome of a Monte Carlo run. When Partial is set, fewer than Requested
// iterations completed and every probability is over Completed.
type Result struct {
	RunID       string           `json:"run_id"`
	Requested   int              `json:"requested_iterations"`
	Completed   int              `json:"iterations"`
	Partial     bool             `json:"partial"`
	Seed        uint64           `json:"seed"`
	Workers     int              `json:"workers"`
	Elapsed     time.Duration    `json:"elapsed"`
	Competitors []CompetitorOdds `json:"competitors"`
}

// Odds returns the distribution of one competitor
func (r *Result) Odds(id string) (CompetitorOdds, bool) {
	for _, c := range r.Competitors {
		if c.ID == id {
			return c, true
		}
	}
	return CompetitorOdds{}, false
}

type tally struct {
	n          int
	iterations int
	ranks      []int64
	brackets   []int64
}

func newTally(n, brackets int) *tally {
	return &tally{
		n:        n,
		ranks:    make([]int64, n*n),
		brackets: make([]int64, n*brackets),
	}
}

func (t *tally) add(order []int, brackets []Bracket) {
	t.iterations++
	for pos, c := range order {
		t.ranks[c*t.n+pos]++
		for k, b := range brackets {
			if b.Contains(pos + 1) {
				t.brackets[c*len(brackets)+k]++
			}
		}
	}
}

func (t *tally) merge(other *tally) {
	t.iterations += other.iterations
	for i, v := range other.ranks {
		t.ranks[i] += v
	}
	for i, v := range other.brackets {
		t.brackets[i] += v
	}
}

// Run resolves the season opts.Iterations times and normalises the finishing counts.
// Iterations are grouped in batches of opts.BatchSize; batch b draws from the stream
// (opts.Seed, b), so the result does not depend on the number of workers. Cancelling ctx or
// hitting opts.Timeout stops at an iteration boundary and returns a partial result.
func Run(ctx context.Context, engine *Engine, opts Options, logger *logrus.Logger) (*Result, error) {
	if opts.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be positive, got %d", opts.Iterations)
	}
	if err := validateBrackets(opts.Brackets); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}

	runID := uuid.New().String()
	start := time.Now()

	runCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	if logger != nil {
		logger.WithFields(logrus.Fields{
			"run_id":     runID,
			"iterations": opts.Iterations,
			"workers":    opts.Workers,
			"batch_size": opts.BatchSize,
			"pending":    engine.Pending(),
		}).Debug("Starting Monte Carlo run")
	}

	n := engine.Len()
	numBatches := (opts.Iterations + opts.BatchSize - 1) / opts.BatchSize
	batches := make(chan int)
	partials := make([]*tally, opts.Workers)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer close(batches)
		for b := 0; b < numBatches; b++ {
			select {
			case batches <- b:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < opts.Workers; w++ {
		t := newTally(n, len(opts.Brackets))
		partials[w] = t
		g.Go(func() error {
			for b := range batches {
				src := series.NewSeeded(opts.Seed, uint64(b))
				size := min(opts.BatchSize, opts.Iterations-b*opts.BatchSize)
				for i := 0; i < size; i++ {
					if gctx.Err() != nil {
						return nil
					}
					order, err := engine.rank(src)
					if err != nil {
						return fmt.Errorf("batch %d iteration %d: %w", b, i, err)
					}
					t.add(order, opts.Brackets)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := newTally(n, len(opts.Brackets))
	for _, t := range partials {
		total.merge(t)
	}
	if total.iterations == 0 {
		return nil, fmt.Errorf("%w: %v", ErrNoIterations, runCtx.Err())
	}

	result := &Result{
		RunID:       runID,
		Requested:   opts.Iterations,
		Completed:   total.iterations,
		Partial:     total.iterations < opts.Iterations,
		Seed:        opts.Seed,
		Workers:     opts.Workers,
		Elapsed:     time.Since(start),
		Competitors: normalise(engine, total, opts.Brackets),
	}

	if logger != nil {
		entry := logger.WithFields(logrus.Fields{
			"run_id":     runID,
			"requested":  result.Requested,
			"completed":  result.Completed,
			"partial":    result.Partial,
			"elapsed_ms": result.Elapsed.Milliseconds(),
		})
		if result.Partial {
			entry.Warn("Monte Carlo run stopped early")
		} else {
			entry.Info("Monte Carlo run completed")
		}
	}

	return result, nil
}

func normalise(engine *Engine, total *tally, brackets []Bracket) []CompetitorOdds {
	n := total.n
	iterations := float64(total.iterations)
	z := distuv.UnitNormal.Quantile(0.975)

	odds := make([]CompetitorOdds, n)
	for c := 0; c < n; c++ {
		o := CompetitorOdds{
			ID:       engine.ids[c],
			Rating:   engine.ratings[c],
			Ranks:    make([]float64, n),
			Brackets: make(map[string]float64, len(brackets)),
			Margins:  make(map[string]float64, len(brackets)),
		}
		for pos := 0; pos < n; pos++ {
			p := float64(total.ranks[c*n+pos]) / iterations
			o.Ranks[pos] = p
			o.ExpectedRank += float64(pos+1) * p
		}
		for k, b := range brackets {
			p := float64(total.brackets[c*len(brackets)+k]) / iterations
			o.Brackets[b.Name] = p
			o.Margins[b.Name] = z * math.Sqrt(p*(1-p)/iterations)
		}
		odds[c] = o
	}

	sort.SliceStable(odds, func(i, j int) bool {
		return odds[i].ExpectedRank < odds[j].ExpectedRank
	})
	return odds
}

func validateBrackets(brackets []Bracket) error {
	seen := make(map[string]struct{}, len(brackets))
	for _, b := range brackets {
		if b.Name == "" {
			return fmt.Errorf("bracket with ranks %d-%d has no name", b.FirstRank, b.LastRank)
		}
		if _, dup := seen[b.Name]; dup {
			return fmt.Errorf("bracket %q defined twice", b.Name)
		}
		if b.FirstRank < 1 || b.LastRank < b.FirstRank {
			return fmt.Errorf("bracket %q has invalid ranks %d-%d", b.Name, b.FirstRank, b.LastRank)
		}
		seen[b.Name] = struct{}{}
	}
	return nil
}
