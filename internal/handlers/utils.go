package handlers

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/league"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
)

// APIResponse is the envelope every tool returns
type APIResponse struct {
	Success  bool        `json:"success"`
	Data     interface{} `json:"data,omitempty"`
	Summary  string      `json:"summary"`
	Error    string      `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata"`
}

// Metadata contains response metadata
type Metadata struct {
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"`
	RunID      string    `json:"run_id,omitempty"`
	Iterations int       `json:"iterations,omitempty"`
	Partial    bool      `json:"partial,omitempty"`
}

func newMetadata(result *simulation.Result) Metadata {
	meta := Metadata{
		Timestamp: time.Now(),
		Source:    "season_simulator",
	}
	if result != nil {
		meta.RunID = result.RunID
		meta.Iterations = result.Completed
		meta.Partial = result.Partial
	}
	return meta
}

// formatJSONResponse converts a response struct to a formatted JSON string
func formatJSONResponse(response interface{}) (string, error) {
	jsonBytes, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}

	return string(jsonBytes), nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

func errorResult(format string, args ...interface{}) *mcp.CallToolResult {
	result := textResult(fmt.Sprintf(format, args...))
	result.IsError = true
	return result
}

// jsonResult wraps a response, reporting marshalling failures as a tool error
func jsonResult(response APIResponse) *mcp.CallToolResult {
	text, err := formatJSONResponse(response)
	if err != nil {
		return errorResult("Error formatting response: %s", err.Error())
	}
	return textResult(text)
}

// parseAdjustments decodes the adjusted_matches argument. JSON numbers arrive as float64, so
// the value is re-encoded and decoded into the typed form.
func parseAdjustments(raw interface{}) ([]league.Adjustment, error) {
	if raw == nil {
		return nil, nil
	}
	if _, ok := raw.([]interface{}); !ok {
		return nil, fmt.Errorf("adjusted_matches must be an array")
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to read adjusted_matches: %w", err)
	}
	var adjustments []league.Adjustment
	if err := json.Unmarshal(data, &adjustments); err != nil {
		return nil, fmt.Errorf("invalid adjusted_matches: %w", err)
	}
	for i, adj := range adjustments {
		if adj.SeriesID == "" && (adj.TeamA == "" || adj.TeamB == "") {
			return nil, fmt.Errorf("adjusted_matches[%d]: id or both team1 and team2 are required", i)
		}
	}
	return adjustments, nil
}

// favourites names the competitors most likely to finish first, best first
func favourites(result *simulation.Result, limit int) string {
	if result == nil || len(result.Competitors) == 0 {
		return "no competitors"
	}
	odds := append([]simulation.CompetitorOdds(nil), result.Competitors...)
	sort.SliceStable(odds, func(i, j int) bool {
		return odds[i].Ranks[0] > odds[j].Ranks[0]
	})
	if limit > len(odds) {
		limit = len(odds)
	}

	summary := ""
	for i := 0; i < limit; i++ {
		if i > 0 {
			summary += ", "
		}
		summary += fmt.Sprintf("%s %.1f%%", odds[i].ID, odds[i].Ranks[0]*100)
	}
	return summary
}
