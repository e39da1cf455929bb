package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/handlers"
)

// NewSeasonMCPServer registers the season tools on a stdio-capable MCP server
func NewSeasonMCPServer(service handlers.SeasonService, logger *logrus.Logger) *server.DefaultServer {
	seasonHandler := handlers.NewSeasonHandler(service, logger)

	s := server.NewDefaultServer("Season Seeding Simulator", "1.0.0")
	if s == nil {
		logger.Error("Failed to create MCP server instance")
		return nil
	}

	logger.Info("MCP server instance created successfully")

	s.HandleListTools(func(ctx context.Context, cursor *string) (*mcp.ListToolsResult, error) {
		tools := seasonHandler.Tools()

		logger.WithField("tools_count", len(tools)).Info("Listing available tools")

		return &mcp.ListToolsResult{
			Tools: tools,
		}, nil
	})

	s.HandleCallTool(func(ctx context.Context, name string, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		logger.WithFields(logrus.Fields{
			"tool": name,
			"args": arguments,
		}).Info("Tool called")

		return route(ctx, seasonHandler, logger, name, arguments)
	})

	logger.Info("All tools registered successfully")
	return s
}

func route(ctx context.Context, h *handlers.SeasonHandler, logger *logrus.Logger, name string, arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	switch name {
	case "get_initial_state":
		return h.HandleGetInitialState(ctx, arguments)
	case "simulate_season":
		return h.HandleSimulateSeason(ctx, arguments)
	case "reset_baseline":
		return h.HandleResetBaseline(ctx, arguments)
	case "get_match_details":
		return h.HandleGetMatchDetails(ctx, arguments)
	case "get_current_standings":
		return h.HandleGetCurrentStandings(ctx, arguments)
	case "explain_tiebreakers":
		return h.HandleExplainTiebreakers(ctx, arguments)
	case "health_check":
		return h.HandleHealthCheck(ctx, arguments)
	default:
		logger.WithField("tool", name).Warn("Unknown tool called")
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{
					Type: "text",
					Text: "Unknown tool: " + name,
				},
			},
			IsError: true,
		}, nil
	}
}
