package mcp

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/cache"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/handlers"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/league"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/tiebreak"
)

func newService(t *testing.T) *league.Service {
	t.Helper()
	logger, _ := test.NewNullLogger()
	schedule := season.Schedule{
		Competitors: []season.Competitor{{ID: "A", Rating: 1550}, {ID: "B", Rating: 1450}},
		Series:      []season.Series{{ID: "match_1", A: "A", B: "B"}},
	}
	svc, err := league.NewService(schedule, league.Settings{
		Threshold:  3,
		Policy:     tiebreak.Policy{Default: tiebreak.RandomDraw},
		Simulation: simulation.Options{Iterations: 50, Workers: 1, Seed: 1},
	}, cache.NewMemoryStore(), logger)
	require.NoError(t, err)
	return svc
}

func TestNewSeasonMCPServer(t *testing.T) {
	logger, _ := test.NewNullLogger()
	assert.NotNil(t, NewSeasonMCPServer(newService(t), logger))
}

func TestRoute(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := handlers.NewSeasonHandler(newService(t), logger)
	ctx := context.Background()

	tests := []struct {
		tool      string
		args      map[string]interface{}
		wantError bool
	}{
		{tool: "get_initial_state"},
		{tool: "simulate_season", args: map[string]interface{}{"adjusted_matches": []interface{}{}}},
		{tool: "reset_baseline"},
		{tool: "get_match_details", args: map[string]interface{}{"match_id": "match_1"}},
		{tool: "get_current_standings"},
		{tool: "explain_tiebreakers"},
		{tool: "health_check"},
		{tool: "get_league_info", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			args := tt.args
			if args == nil {
				args = map[string]interface{}{}
			}
			result, err := route(ctx, h, logger, tt.tool, args)
			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.wantError, result.IsError)
			require.NotEmpty(t, result.Content)
			_, ok := result.Content[0].(*mcp.TextContent)
			assert.True(t, ok)
		})
	}
}
