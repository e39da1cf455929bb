package league

import (
	"time"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/tiebreak"
)

// Adjustment is a user-supplied result for one series. The series is found by ID when given,
// otherwise by team pair in either order. Leaving both scores empty reopens a completed series.
type Adjustment struct {
	SeriesID string `json:"id,omitempty"`
	TeamA    string `json:"team1"`
	TeamB    string `json:"team2"`
	ScoreA   *int   `json:"team1_score,omitempty"`
	ScoreB   *int   `json:"team2_score,omitempty"`
}

// SeriesView describes a scheduled series with its pre-series probabilities
type SeriesView struct {
	ID                    string     `json:"id"`
	TeamA                 string     `json:"team1"`
	TeamB                 string     `json:"team2"`
	ScoreA                *int       `json:"team1_score"`
	ScoreB                *int       `json:"team2_score"`
	StartDate             *time.Time `json:"start_date,omitempty"`
	Completed             bool       `json:"is_completed"`
	WinProbabilityA       float64    `json:"win_probability_team1"`
	WinProbabilityB       float64    `json:"win_probability_team2"`
	SeriesWinProbabilityA float64    `json:"series_win_probability_team1"`
	SeriesWinProbabilityB float64    `json:"series_win_probability_team2"`
	ExpectedUnitsA        float64    `json:"expected_maps_team1"`
	ExpectedUnitsB        float64    `json:"expected_maps_team2"`
}

// InitialState is the full picture before any adjustment
type InitialState struct {
	Standings      []simulation.Standing `json:"teams"`
	Baseline       *simulation.Result    `json:"probabilities"`
	Completed      []SeriesView          `json:"completed_matches"`
	Upcoming       []SeriesView          `json:"upcoming_matches"`
	Ratings        map[string]float64    `json:"elo_ratings"`
	NumSimulations int                   `json:"num_simulations"`
}

// SimulationOutcome is a Monte Carlo run on an adjusted season
type SimulationOutcome struct {
	Probabilities *simulation.Result    `json:"probabilities"`
	Standings     []simulation.Standing `json:"teams"`
	Applied       []SeriesView          `json:"applied_adjustments"`
	SimulationSec float64               `json:"simulation_time"`
	Iterations    int                   `json:"iterations"`
}

// ResetOutcome is a freshly computed baseline
type ResetOutcome struct {
	Status        string                `json:"status"`
	Message       string                `json:"message"`
	Probabilities *simulation.Result    `json:"probabilities"`
	Standings     []simulation.Standing `json:"teams"`
}

// TieSummary names the tier that first split a top-level tied group
type TieSummary struct {
	StartRank int      `json:"start_rank"`
	Members   []string `json:"members"`
	DecidedBy string   `json:"decided_by"`
}

// TiebreakReport explains how the current standings were ordered
type TiebreakReport struct {
	Standings []simulation.Standing `json:"teams"`
	Ties      []TieSummary          `json:"ties"`
	Steps     []tiebreak.Step       `json:"steps"`
}

// HealthStatus reports loaded data and cache reachability
type HealthStatus struct {
	Status                string `json:"status"`
	TeamsLoaded           int    `json:"teams_loaded"`
	MatchesLoaded         int    `json:"matches_loaded"`
	MatchesPending        int    `json:"matches_pending"`
	SimulationsPerRequest int    `json:"simulations_per_request"`
	Cache                 string `json:"cache"`
}
