package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/handlers"
)

// NewRouter wires the season endpoints under /api
func NewRouter(service handlers.SeasonService, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())

	h := NewSeasonHandler(service, logger)

	routes := router.Group("/api")
	{
		routes.GET("/initial-state", h.GetInitialState)
		routes.POST("/simulate", h.Simulate)
		routes.POST("/reset", h.Reset)
		routes.GET("/match-details/:id", h.GetMatchDetails)
		routes.GET("/standings", h.GetStandings)
		routes.POST("/standings", h.GetStandings)
		routes.GET("/tiebreakers", h.GetTiebreakers)
		routes.POST("/tiebreakers", h.GetTiebreakers)
		routes.GET("/health", h.GetHealth)
	}

	return router
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.FullPath(),
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("HTTP request")
	}
}
