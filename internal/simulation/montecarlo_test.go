package simulation

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/tiebreak"
)

func twoCompetitorEngine(t *testing.T) *Engine {
	t.Helper()
	schedule := roundRobin(map[string]float64{"A": 1700, "B": 1500}, []string{"A", "B"}, nil)
	engine, err := NewEngine(Input{Schedule: schedule, Threshold: 3, Policy: testPolicy})
	require.NoError(t, err)
	return engine
}

func TestRun_TwoCompetitors(t *testing.T) {
	engine := twoCompetitorEngine(t)
	logger, _ := test.NewNullLogger()

	opts := Options{Iterations: 10000, Workers: 4, Seed: 20240601}
	result, err := Run(context.Background(), engine, opts, logger)
	require.NoError(t, err)

	assert.Equal(t, 10000, result.Completed)
	assert.False(t, result.Partial)
	assert.NotEmpty(t, result.RunID)

	a, ok := result.Odds("A")
	require.True(t, ok)
	b, ok := result.Odds("B")
	require.True(t, ok)

	assert.Greater(t, a.Ranks[0], 0.5)
	assert.InDelta(t, 1.0, a.Ranks[0]+b.Ranks[0], 1e-12)
	assert.InDelta(t, a.Ranks[0], b.Ranks[1], 1e-12)
	// exact best-of-5 probability for a 200 point favourite is about 0.906
	assert.InDelta(t, 0.906, a.Ranks[0], 0.02)
	assert.Equal(t, "A", result.Competitors[0].ID)

	again, err := Run(context.Background(), engine, opts, logger)
	require.NoError(t, err)
	assert.Equal(t, result.Competitors, again.Competitors)
}

func TestRun_IndependentOfWorkerCount(t *testing.T) {
	ratings := map[string]float64{"A": 1620, "B": 1580, "C": 1500, "D": 1490, "E": 1450, "F": 1400}
	schedule := roundRobin(ratings, []string{"A", "B", "C", "D", "E", "F"}, map[string]*season.Score{
		"match_0":  score(3, 1),
		"match_5":  score(2, 3),
		"match_9":  score(3, 0),
		"match_14": score(0, 3),
	})
	engine, err := NewEngine(Input{Schedule: schedule, Threshold: 3, Policy: testPolicy})
	require.NoError(t, err)

	base := Options{Iterations: 1500, BatchSize: 100, Seed: 42}

	single := base
	single.Workers = 1
	one, err := Run(context.Background(), engine, single, nil)
	require.NoError(t, err)

	many := base
	many.Workers = 6
	six, err := Run(context.Background(), engine, many, nil)
	require.NoError(t, err)

	assert.Equal(t, one.Competitors, six.Competitors)
}

func TestRun_ProbabilitiesSumToOne(t *testing.T) {
	ratings := map[string]float64{"A": 1650, "B": 1600, "C": 1550, "D": 1500, "E": 1450}
	schedule := roundRobin(ratings, []string{"A", "B", "C", "D", "E"}, map[string]*season.Score{
		"match_0": score(3, 2),
		"match_1": score(3, 0),
	})
	policy := tiebreak.Policy{Default: tiebreak.RandomDraw, ByRank: map[int]tiebreak.Terminal{1: tiebreak.TiebreakerSeries}}
	engine, err := NewEngine(Input{Schedule: schedule, Threshold: 3, Policy: policy})
	require.NoError(t, err)

	brackets := []Bracket{
		{Name: "top_two", FirstRank: 1, LastRank: 2},
		{Name: "everyone", FirstRank: 1, LastRank: 10},
	}
	result, err := Run(context.Background(), engine, Options{Iterations: 3000, Seed: 9, Brackets: brackets}, nil)
	require.NoError(t, err)
	require.Len(t, result.Competitors, 5)

	rankTotals := make([]float64, 5)
	topTwo := 0.0
	for _, c := range result.Competitors {
		sum := 0.0
		for pos, p := range c.Ranks {
			assert.GreaterOrEqual(t, p, 0.0)
			assert.LessOrEqual(t, p, 1.0)
			sum += p
			rankTotals[pos] += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, c.ID)
		assert.InDelta(t, 1.0, c.Brackets["everyone"], 1e-12)
		assert.Equal(t, 0.0, c.Margins["everyone"])
		assert.GreaterOrEqual(t, c.ExpectedRank, 1.0)
		topTwo += c.Brackets["top_two"]

		table := c.Table()
		assert.Equal(t, c.Ranks[0], table["seed_1"])
		assert.Equal(t, c.Brackets["top_two"], table["top_two"])
	}
	for pos, total := range rankTotals {
		assert.InDelta(t, 1.0, total, 1e-9, "rank %d", pos+1)
	}
	assert.InDelta(t, 2.0, topTwo, 1e-9)

	for i := 1; i < len(result.Competitors); i++ {
		assert.LessOrEqual(t, result.Competitors[i-1].ExpectedRank, result.Competitors[i].ExpectedRank)
	}
}

func TestRun_TimeoutReturnsPartialResult(t *testing.T) {
	engine := twoCompetitorEngine(t)
	logger, hook := test.NewNullLogger()

	result, err := Run(context.Background(), engine, Options{
		Iterations: 50_000_000,
		Workers:    2,
		Seed:       1,
		Timeout:    50 * time.Millisecond,
	}, logger)
	require.NoError(t, err)

	assert.True(t, result.Partial)
	assert.Greater(t, result.Completed, 0)
	assert.Less(t, result.Completed, result.Requested)

	a, _ := result.Odds("A")
	assert.InDelta(t, 1.0, a.Ranks[0]+a.Ranks[1], 1e-9)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "Monte Carlo run stopped early", hook.LastEntry().Message)
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	engine := twoCompetitorEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, engine, Options{Iterations: 100, Seed: 1}, nil)
	assert.ErrorIs(t, err, ErrNoIterations)
}

func TestRun_InvalidOptions(t *testing.T) {
	engine := twoCompetitorEngine(t)

	_, err := Run(context.Background(), engine, Options{Iterations: 0}, nil)
	assert.Error(t, err)

	tests := []struct {
		name     string
		brackets []Bracket
	}{
		{"unnamed", []Bracket{{FirstRank: 1, LastRank: 2}}},
		{"duplicate", []Bracket{{Name: "x", FirstRank: 1, LastRank: 2}, {Name: "x", FirstRank: 1, LastRank: 3}}},
		{"inverted", []Bracket{{Name: "x", FirstRank: 3, LastRank: 2}}},
		{"zero rank", []Bracket{{Name: "x", FirstRank: 0, LastRank: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(context.Background(), engine, Options{Iterations: 10, Brackets: tt.brackets}, nil)
			assert.Error(t, err)
		})
	}
}
