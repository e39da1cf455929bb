//go:build integration
// +build integration

package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/cache"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/config"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/handlers"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/league"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/source"
)

// Integration tests over the bundled season data and, when REDIS_URL is set, a real Redis
// Run with: go test -tags=integration ./...

func newSeasonService(t *testing.T, store cache.Store) *league.Service {
	t.Helper()
	logger, _ := test.NewNullLogger()

	rules, err := config.LoadSeasonRules(filepath.Join("..", "configs", "season_rules.yaml"))
	if err != nil {
		t.Fatalf("Failed to load season rules: %v", err)
	}

	client := source.NewCSVClient(source.Locations{
		Ratings: filepath.Join("..", "data", "ratings.csv"),
		Matches: filepath.Join("..", "data", "matches.csv"),
	}, rules.Threshold(), 0, logger)

	schedule, err := source.Load(context.Background(), client)
	if err != nil {
		t.Fatalf("Failed to load season data: %v", err)
	}
	if err := source.ValidateRoundRobin(schedule, 12); err != nil {
		t.Fatalf("Bundled data is not a round robin: %v", err)
	}

	svc, err := league.NewService(schedule, league.Settings{
		Threshold: rules.Threshold(),
		Policy:    rules.Tiebreak,
		Simulation: simulation.Options{
			Iterations: 2000,
			Workers:    4,
			Seed:       2025,
			Timeout:    30 * time.Second,
			Brackets:   rules.Brackets,
		},
		BaselineTTL: time.Minute,
	}, store, logger)
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return svc
}

func TestIntegration_BundledSeason_Baseline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	svc := newSeasonService(t, cache.NewMemoryStore())
	state, err := svc.InitialState(context.Background())
	if err != nil {
		t.Fatalf("Failed to get initial state: %v", err)
	}

	if len(state.Standings) != 12 {
		t.Errorf("Expected 12 teams, got %d", len(state.Standings))
	}
	if len(state.Completed)+len(state.Upcoming) != 66 {
		t.Errorf("Expected 66 matches, got %d", len(state.Completed)+len(state.Upcoming))
	}

	for rank := 0; rank < 12; rank++ {
		total := 0.0
		for _, odds := range state.Baseline.Competitors {
			total += odds.Ranks[rank]
		}
		if total < 0.999999 || total > 1.000001 {
			t.Errorf("Rank %d probabilities sum to %f", rank+1, total)
		}
	}

	bracket := 0.0
	for _, odds := range state.Baseline.Competitors {
		bracket += odds.Brackets["make_bracket"]
	}
	if bracket < 5.99999 || bracket > 6.00001 {
		t.Errorf("Expected six bracket places in total, got %f", bracket)
	}
}

func TestIntegration_MCPTools_BundledSeason(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	logger, _ := test.NewNullLogger()
	handler := handlers.NewSeasonHandler(newSeasonService(t, cache.NewMemoryStore()), logger)

	result, err := handler.HandleSimulateSeason(context.Background(), map[string]interface{}{
		"adjusted_matches": []interface{}{
			map[string]interface{}{"team1": "Boston Breach", "team2": "OpTic Texas", "team1_score": float64(3), "team2_score": float64(0)},
		},
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("Expected successful simulation, got %v", result.Content)
	}

	text := result.Content[0].(*mcp.TextContent).Text
	var response handlers.APIResponse
	if err := json.Unmarshal([]byte(text), &response); err != nil {
		t.Fatalf("Expected JSON response: %v", err)
	}
	if !response.Success || response.Metadata.Iterations != 2000 {
		t.Errorf("Unexpected response metadata: %+v", response.Metadata)
	}
}

func TestIntegration_RedisBaselineStore(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL environment variable not set, skipping integration test")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("Failed to parse REDIS_URL: %v", err)
	}
	client := redis.NewClient(opt)
	defer client.Close()

	logger, _ := test.NewNullLogger()
	store := cache.NewRedisStore(client, logger)
	svc := newSeasonService(t, store)
	ctx := context.Background()

	if _, err := svc.Reset(ctx); err != nil {
		t.Fatalf("Failed to reset baseline: %v", err)
	}
	first, err := svc.Baseline(ctx)
	if err != nil {
		t.Fatalf("Failed to get baseline: %v", err)
	}
	second, err := svc.Baseline(ctx)
	if err != nil {
		t.Fatalf("Failed to get baseline: %v", err)
	}
	if first.RunID != second.RunID {
		t.Errorf("Expected cached baseline, got runs %s and %s", first.RunID, second.RunID)
	}

	if status := svc.Health(ctx); status.Cache != "ok" {
		t.Errorf("Expected reachable cache, got %s", status.Cache)
	}
}
