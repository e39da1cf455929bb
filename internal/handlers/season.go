package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/league"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
)

// SeasonService is the set of season operations the tools expose
type SeasonService interface {
	InitialState(ctx context.Context) (*league.InitialState, error)
	Simulate(ctx context.Context, adjustments []league.Adjustment) (*league.SimulationOutcome, error)
	Reset(ctx context.Context) (*league.ResetOutcome, error)
	MatchDetails(seriesID string) (*league.SeriesView, error)
	CurrentStandings(ctx context.Context, adjustments []league.Adjustment) ([]simulation.Standing, error)
	ExplainTiebreakers(ctx context.Context, adjustments []league.Adjustment) (*league.TiebreakReport, error)
	Health(ctx context.Context) *league.HealthStatus
}

// SeasonHandler handles season simulation MCP tools
type SeasonHandler struct {
	service SeasonService
	logger  *logrus.Logger
}

// NewSeasonHandler creates a new season handler
func NewSeasonHandler(service SeasonService, logger *logrus.Logger) *SeasonHandler {
	return &SeasonHandler{
		service: service,
		logger:  logger,
	}
}

// Tools lists every tool definition the handler serves
func (h *SeasonHandler) Tools() []mcp.Tool {
	return []mcp.Tool{
		h.GetInitialStateTool(),
		h.SimulateSeasonTool(),
		h.ResetBaselineTool(),
		h.GetMatchDetailsTool(),
		h.GetCurrentStandingsTool(),
		h.ExplainTiebreakersTool(),
		h.HealthCheckTool(),
	}
}

func adjustedMatchesProperty(required bool) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": "Match results to apply before simulating. Each item names the match by id, or by team1 and team2 in either order. Omitting both scores reopens a completed match.",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"id":          map[string]interface{}{"type": "string"},
				"team1":       map[string]interface{}{"type": "string"},
				"team2":       map[string]interface{}{"type": "string"},
				"team1_score": map[string]interface{}{"type": "integer"},
				"team2_score": map[string]interface{}{"type": "integer"},
			},
		},
		"required": required,
	}
}

// GetInitialStateTool returns the MCP tool definition for get_initial_state
func (h *SeasonHandler) GetInitialStateTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_initial_state",
		Description: "Get current standings, baseline seeding probabilities, completed and upcoming matches with win probabilities, and team Elo ratings",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// HandleGetInitialState handles the get_initial_state tool call
func (h *SeasonHandler) HandleGetInitialState(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.Info("Handling get_initial_state")

	state, err := h.service.InitialState(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to build initial state")
		return errorResult("Failed to get initial state: %s", err.Error()), nil
	}

	return jsonResult(APIResponse{
		Success: true,
		Data:    state,
		Summary: fmt.Sprintf("%d teams, %d completed and %d upcoming matches. Favourites: %s",
			len(state.Standings), len(state.Completed), len(state.Upcoming), favourites(state.Baseline, 3)),
		Metadata: newMetadata(state.Baseline),
	}), nil
}

// SimulateSeasonTool returns the MCP tool definition for simulate_season
func (h *SeasonHandler) SimulateSeasonTool() mcp.Tool {
	return mcp.Tool{
		Name:        "simulate_season",
		Description: "Run a Monte Carlo simulation of the rest of the season with user-adjusted match results and return updated seeding and bracket probabilities",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"adjusted_matches": adjustedMatchesProperty(true),
			},
		},
	}
}

// HandleSimulateSeason handles the simulate_season tool call
func (h *SeasonHandler) HandleSimulateSeason(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling simulate_season")

	raw, exists := args["adjusted_matches"]
	if !exists {
		return nil, fmt.Errorf("adjusted_matches is required")
	}
	adjustments, err := parseAdjustments(raw)
	if err != nil {
		return nil, err
	}

	outcome, err := h.service.Simulate(ctx, adjustments)
	if err != nil {
		h.logger.WithError(err).Error("Failed to simulate season")
		return h.serviceError("Failed to simulate season", err), nil
	}

	summary := fmt.Sprintf("Simulated %d seasons with %d adjusted matches in %.3fs. Favourites: %s",
		outcome.Iterations, len(outcome.Applied), outcome.SimulationSec, favourites(outcome.Probabilities, 3))
	if outcome.Probabilities.Partial {
		summary += fmt.Sprintf(" (partial: %d of %d iterations)", outcome.Probabilities.Completed, outcome.Probabilities.Requested)
	}

	return jsonResult(APIResponse{
		Success:  true,
		Data:     outcome,
		Summary:  summary,
		Metadata: newMetadata(outcome.Probabilities),
	}), nil
}

// ResetBaselineTool returns the MCP tool definition for reset_baseline
func (h *SeasonHandler) ResetBaselineTool() mcp.Tool {
	return mcp.Tool{
		Name:        "reset_baseline",
		Description: "Discard the cached baseline probabilities and recompute them from the loaded season with no adjustments",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// HandleResetBaseline handles the reset_baseline tool call
func (h *SeasonHandler) HandleResetBaseline(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.Info("Handling reset_baseline")

	outcome, err := h.service.Reset(ctx)
	if err != nil {
		h.logger.WithError(err).Error("Failed to reset baseline")
		return errorResult("Failed to reset baseline: %s", err.Error()), nil
	}

	return jsonResult(APIResponse{
		Success:  true,
		Data:     outcome,
		Summary:  fmt.Sprintf("%s. Favourites: %s", outcome.Message, favourites(outcome.Probabilities, 3)),
		Metadata: newMetadata(outcome.Probabilities),
	}), nil
}

// GetMatchDetailsTool returns the MCP tool definition for get_match_details
func (h *SeasonHandler) GetMatchDetailsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_match_details",
		Description: "Get a match's teams, score, start date, map and series win probabilities, and expected maps won",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"match_id": map[string]interface{}{
					"type":        "string",
					"description": "Match identifier, e.g. match_12",
					"required":    true,
				},
			},
		},
	}
}

// HandleGetMatchDetails handles the get_match_details tool call
func (h *SeasonHandler) HandleGetMatchDetails(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_match_details")

	matchID, ok := args["match_id"].(string)
	if !ok || matchID == "" {
		return nil, fmt.Errorf("match_id is required and must be a string")
	}

	details, err := h.service.MatchDetails(matchID)
	if err != nil {
		h.logger.WithError(err).WithField("match_id", matchID).Warn("Match lookup failed")
		return h.serviceError("Failed to get match details", err), nil
	}

	status := "upcoming"
	if details.Completed {
		status = fmt.Sprintf("final %d-%d", *details.ScoreA, *details.ScoreB)
	}

	return jsonResult(APIResponse{
		Success: true,
		Data:    details,
		Summary: fmt.Sprintf("%s vs %s (%s): %s wins a map %.1f%%, the series %.1f%%",
			details.TeamA, details.TeamB, status, details.TeamA, details.WinProbabilityA*100, details.SeriesWinProbabilityA*100),
		Metadata: newMetadata(nil),
	}), nil
}

// GetCurrentStandingsTool returns the MCP tool definition for get_current_standings
func (h *SeasonHandler) GetCurrentStandingsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_current_standings",
		Description: "Get standings from completed matches only, ordered with the full tiebreaker cascade. Optional adjusted matches are applied first.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"adjusted_matches": adjustedMatchesProperty(false),
			},
		},
	}
}

// HandleGetCurrentStandings handles the get_current_standings tool call
func (h *SeasonHandler) HandleGetCurrentStandings(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling get_current_standings")

	adjustments, err := parseAdjustments(args["adjusted_matches"])
	if err != nil {
		return nil, err
	}

	rows, err := h.service.CurrentStandings(ctx, adjustments)
	if err != nil {
		h.logger.WithError(err).Error("Failed to rank current standings")
		return h.serviceError("Failed to get current standings", err), nil
	}

	summary := "No teams loaded"
	if len(rows) > 0 {
		summary = fmt.Sprintf("%d teams; %s leads at %s (maps %s)", len(rows), rows[0].ID, rows[0].SeriesRecord, rows[0].MapRecord)
	}

	return jsonResult(APIResponse{
		Success:  true,
		Data:     rows,
		Summary:  summary,
		Metadata: newMetadata(nil),
	}), nil
}

// ExplainTiebreakersTool returns the MCP tool definition for explain_tiebreakers
func (h *SeasonHandler) ExplainTiebreakersTool() mcp.Tool {
	return mcp.Tool{
		Name:        "explain_tiebreakers",
		Description: "Explain how tied teams in the current standings were separated, listing every tiebreaker tier applied",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"adjusted_matches": adjustedMatchesProperty(false),
			},
		},
	}
}

// HandleExplainTiebreakers handles the explain_tiebreakers tool call
func (h *SeasonHandler) HandleExplainTiebreakers(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	h.logger.WithField("args", args).Info("Handling explain_tiebreakers")

	adjustments, err := parseAdjustments(args["adjusted_matches"])
	if err != nil {
		return nil, err
	}

	report, err := h.service.ExplainTiebreakers(ctx, adjustments)
	if err != nil {
		h.logger.WithError(err).Error("Failed to explain tiebreakers")
		return h.serviceError("Failed to explain tiebreakers", err), nil
	}

	summary := "No ties in the current standings"
	if len(report.Ties) > 0 {
		summary = fmt.Sprintf("%d tied groups; the first, at rank %d, was split by %s",
			len(report.Ties), report.Ties[0].StartRank, report.Ties[0].DecidedBy)
	}

	return jsonResult(APIResponse{
		Success:  true,
		Data:     report,
		Summary:  summary,
		Metadata: newMetadata(nil),
	}), nil
}

// HealthCheckTool returns the MCP tool definition for health_check
func (h *SeasonHandler) HealthCheckTool() mcp.Tool {
	return mcp.Tool{
		Name:        "health_check",
		Description: "Report loaded teams and matches, simulations per request, and baseline cache status",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// HandleHealthCheck handles the health_check tool call
func (h *SeasonHandler) HandleHealthCheck(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
	status := h.service.Health(ctx)

	return jsonResult(APIResponse{
		Success:  status.Status == "healthy",
		Data:     status,
		Summary:  fmt.Sprintf("%s: %d teams, %d matches loaded, cache %s", status.Status, status.TeamsLoaded, status.MatchesLoaded, status.Cache),
		Metadata: newMetadata(nil),
	}), nil
}

// serviceError turns a service failure into a tool error, naming the offending match for input
// errors
func (h *SeasonHandler) serviceError(action string, err error) *mcp.CallToolResult {
	var inputErr *season.InputError
	if errors.As(err, &inputErr) && inputErr.Series != "" {
		return errorResult("%s: %s (match %s)", action, inputErr.Message, inputErr.Series)
	}
	return errorResult("%s: %s", action, err.Error())
}
