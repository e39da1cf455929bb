// Package api serves the season operations as a JSON HTTP API.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/handlers"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/league"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// SimulateRequest carries user-adjusted match results
type SimulateRequest struct {
	AdjustedMatches []league.Adjustment `json:"adjusted_matches"`
}

// SeasonHandler handles season endpoints
type SeasonHandler struct {
	service handlers.SeasonService
	logger  *logrus.Logger
}

// NewSeasonHandler creates a new season HTTP handler
func NewSeasonHandler(service handlers.SeasonService, logger *logrus.Logger) *SeasonHandler {
	return &SeasonHandler{
		service: service,
		logger:  logger,
	}
}

// GetInitialState returns standings, baseline probabilities and all matches
func (h *SeasonHandler) GetInitialState(c *gin.Context) {
	state, err := h.service.InitialState(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to get initial state", err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// Simulate runs the season with adjusted matches
func (h *SeasonHandler) Simulate(c *gin.Context) {
	var req struct {
		AdjustedMatches *[]league.Adjustment `json:"adjusted_matches"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_REQUEST",
			Details: map[string]string{
				"validation_error": err.Error(),
			},
		})
		return
	}
	if req.AdjustedMatches == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Missing adjusted_matches in request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	outcome, err := h.service.Simulate(c.Request.Context(), *req.AdjustedMatches)
	if err != nil {
		h.fail(c, "Failed to simulate season", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"run_id":      outcome.Probabilities.RunID,
		"adjustments": len(*req.AdjustedMatches),
	}).Info("Simulation request served")
	c.JSON(http.StatusOK, outcome)
}

// Reset recomputes the baseline probabilities
func (h *SeasonHandler) Reset(c *gin.Context) {
	outcome, err := h.service.Reset(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to reset baseline", err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// GetMatchDetails returns one match with its win probabilities
func (h *SeasonHandler) GetMatchDetails(c *gin.Context) {
	details, err := h.service.MatchDetails(c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get match details", err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetStandings ranks completed matches, with adjustments when a body is posted
func (h *SeasonHandler) GetStandings(c *gin.Context) {
	adjustments, ok := h.optionalAdjustments(c)
	if !ok {
		return
	}
	rows, err := h.service.CurrentStandings(c.Request.Context(), adjustments)
	if err != nil {
		h.fail(c, "Failed to get standings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"teams": rows})
}

// GetTiebreakers explains how the current standings were ordered
func (h *SeasonHandler) GetTiebreakers(c *gin.Context) {
	adjustments, ok := h.optionalAdjustments(c)
	if !ok {
		return
	}
	report, err := h.service.ExplainTiebreakers(c.Request.Context(), adjustments)
	if err != nil {
		h.fail(c, "Failed to explain tiebreakers", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetHealth reports loaded data and cache status
func (h *SeasonHandler) GetHealth(c *gin.Context) {
	status := h.service.Health(c.Request.Context())
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func (h *SeasonHandler) optionalAdjustments(c *gin.Context) ([]league.Adjustment, bool) {
	if c.Request.Method == http.MethodGet || c.Request.ContentLength == 0 {
		return nil, true
	}
	var req SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request format",
			Code:  "INVALID_REQUEST",
			Details: map[string]string{
				"validation_error": err.Error(),
			},
		})
		return nil, false
	}
	return req.AdjustedMatches, true
}

// fail maps service errors onto status codes
func (h *SeasonHandler) fail(c *gin.Context, message string, err error) {
	var inputErr *season.InputError
	switch {
	case errors.As(err, &inputErr):
		code := http.StatusBadRequest
		if errors.Is(err, season.ErrUnknownSeries) && c.Param("id") != "" {
			code = http.StatusNotFound
		}
		details := map[string]string{"reason": inputErr.Message}
		if inputErr.Series != "" {
			details["match_id"] = inputErr.Series
		}
		if inputErr.Competitor != "" {
			details["team"] = inputErr.Competitor
		}
		c.JSON(code, ErrorResponse{
			Error:   inputErr.Message,
			Code:    "INVALID_INPUT",
			Details: details,
		})
	case errors.Is(err, simulation.ErrNoIterations):
		h.logger.WithError(err).Warn(message)
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: message,
			Code:  "SIMULATION_TIMEOUT",
			Details: map[string]string{
				"reason": err.Error(),
			},
		})
	default:
		h.logger.WithError(err).Error(message)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: message,
			Code:  "INTERNAL_ERROR",
			Details: map[string]string{
				"reason": err.Error(),
			},
		})
	}
}
