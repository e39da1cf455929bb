package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mark3labs/mcp-go/server"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/api"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/cache"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/config"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/league"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/logger"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/mcp"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/source"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	log.WithFields(logrus.Fields{
		"transport":   cfg.Transport,
		"environment": cfg.Env,
		"simulations": cfg.NumSimulations,
	}).Info("Starting Season Seeding Simulator")

	rules, err := config.LoadSeasonRules(cfg.RulesFile)
	if err != nil {
		log.WithError(err).Fatal("Failed to load season rules")
	}

	ctx := context.Background()
	client := source.NewCSVClient(source.Locations{
		Ratings: cfg.RatingsSource,
		Matches: cfg.MatchesSource,
	}, rules.Threshold(), cfg.HTTPCacheTTL, log)

	schedule, err := source.Load(ctx, client)
	if err != nil {
		log.WithError(err).Fatal("Failed to load season data")
	}
	if cfg.ExpectedCompetitors > 0 {
		if err := source.ValidateRoundRobin(schedule, cfg.ExpectedCompetitors); err != nil {
			log.WithError(err).Fatal("Season data is not a single round robin")
		}
	}
	log.WithFields(logrus.Fields{
		"teams":   len(schedule.Competitors),
		"matches": len(schedule.Series),
	}).Info("Season data loaded")

	store, closeStore := newStore(ctx, cfg, log)
	defer closeStore()

	service, err := league.NewService(schedule, league.Settings{
		Threshold: rules.Threshold(),
		Policy:    rules.Tiebreak,
		Simulation: simulation.Options{
			Iterations: cfg.NumSimulations,
			Workers:    cfg.SimulationWorkers,
			BatchSize:  cfg.SimulationBatchSize,
			Seed:       cfg.SimulationSeed,
			Timeout:    cfg.SimulationTimeout,
			Brackets:   rules.Brackets,
		},
		BaselineTTL: cfg.BaselineTTL,
	}, store, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to prepare season")
	}

	if cfg.IsHTTP() {
		serveHTTP(cfg, service, log)
		return
	}

	mcpServer := mcp.NewSeasonMCPServer(service, log)
	if mcpServer == nil {
		log.Fatal("Failed to create MCP server")
	}

	log.Info("Serving MCP over stdio")
	if err := server.ServeStdio(mcpServer); err != nil {
		log.WithError(err).Fatal("Server failed to start")
	}
}

// newStore connects to Redis when configured and falls back to memory otherwise
func newStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) (cache.Store, func()) {
	if cfg.RedisURL == "" {
		return cache.NewMemoryStore(), func() {}
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to parse Redis URL")
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, keeping baselines in memory")
		client.Close()
		return cache.NewMemoryStore(), func() {}
	}

	log.Info("Caching baselines in Redis")
	return cache.NewRedisStore(client, log), func() { client.Close() }
}

func serveHTTP(cfg *config.Config, service *league.Service, log *logrus.Logger) {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: api.NewRouter(service, log),
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down HTTP server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("HTTP server forced to shutdown")
	}
}
