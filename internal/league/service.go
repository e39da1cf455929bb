// Package league serves the season operations shared by the MCP tools and the HTTP API.
package league

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/cache"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/rating"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/series"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/tiebreak"
)

// Settings are the season rules and simulation parameters the service runs with
type Settings struct {
	Threshold   int
	Policy      tiebreak.Policy
	Simulation  simulation.Options
	BaselineTTL time.Duration
}

// Service owns the loaded schedule and the baseline cache
type Service struct {
	schedule season.Schedule
	index    map[string]int
	ratings  map[string]float64
	settings Settings
	store    cache.Store
	logger   *logrus.Logger
	engine   *simulation.Engine
	key      string
	now      func() time.Time

	// serialises baseline computation so concurrent misses run one simulation
	mu sync.Mutex
}

type pinger interface {
	Ping(ctx context.Context) error
}

// NewService validates the schedule against the rules and prepares the base engine
func NewService(schedule season.Schedule, settings Settings, store cache.Store, logger *logrus.Logger) (*Service, error) {
	engine, err := simulation.NewEngine(simulation.Input{
		Schedule:  schedule,
		Threshold: settings.Threshold,
		Policy:    settings.Policy,
	})
	if err != nil {
		return nil, err
	}

	key, err := fingerprint(schedule, settings)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(schedule.Series))
	for i, sr := range schedule.Series {
		index[sr.ID] = i
	}

	return &Service{
		schedule: schedule,
		index:    index,
		ratings:  schedule.Ratings(),
		settings: settings,
		store:    store,
		logger:   logger,
		engine:   engine,
		key:      key,
		now:      time.Now,
	}, nil
}

// fingerprint identifies a baseline: the same schedule under the same rules and simulation
// parameters shares one cache entry
func fingerprint(schedule season.Schedule, settings Settings) (string, error) {
	data, err := json.Marshal(struct {
		Schedule   season.Schedule      `json:"schedule"`
		Threshold  int                  `json:"threshold"`
		Policy     tiebreak.Policy      `json:"policy"`
		Brackets   []simulation.Bracket `json:"brackets"`
		Iterations int                  `json:"iterations"`
		Seed       uint64               `json:"seed"`
	}{schedule, settings.Threshold, settings.Policy, settings.Simulation.Brackets, settings.Simulation.Iterations, settings.Simulation.Seed})
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint season: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:12]), nil
}

// seed returns the configured seed, or a clock-derived one when none is set
func (s *Service) seed() uint64 {
	if s.settings.Simulation.Seed != 0 {
		return s.settings.Simulation.Seed
	}
	return uint64(s.now().UnixNano())
}

func (s *Service) run(ctx context.Context, engine *simulation.Engine) (*simulation.Result, error) {
	opts := s.settings.Simulation
	opts.Seed = s.seed()
	return simulation.Run(ctx, engine, opts, s.logger)
}

// Baseline returns the cached unadjusted odds, computing and caching them on a miss
func (s *Service) Baseline(ctx context.Context) (*simulation.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cached, err := s.store.Get(ctx, s.key)
	if err == nil {
		s.logger.WithField("run_id", cached.RunID).Debug("Baseline cache hit")
		return cached, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		s.logger.WithError(err).Warn("Baseline cache lookup failed, recomputing")
	}
	return s.computeBaseline(ctx)
}

func (s *Service) computeBaseline(ctx context.Context) (*simulation.Result, error) {
	result, err := s.run(ctx, s.engine)
	if err != nil {
		return nil, fmt.Errorf("failed to compute baseline: %w", err)
	}

	if result.Partial {
		s.logger.WithFields(logrus.Fields{
			"run_id":    result.RunID,
			"completed": result.Completed,
		}).Warn("Baseline is partial, not caching")
		return result, nil
	}

	if err := s.store.Set(ctx, s.key, result, s.settings.BaselineTTL); err != nil {
		s.logger.WithError(err).Warn("Failed to cache baseline")
	}
	return result, nil
}

// InitialState returns current standings, baseline odds and every series with its probabilities
func (s *Service) InitialState(ctx context.Context) (*InitialState, error) {
	baseline, err := s.Baseline(ctx)
	if err != nil {
		return nil, err
	}

	ordering, err := s.engine.Current(series.NewSeeded(s.seed(), 0))
	if err != nil {
		return nil, err
	}

	state := &InitialState{
		Standings:      ordering.Standings,
		Baseline:       baseline,
		Completed:      []SeriesView{},
		Upcoming:       []SeriesView{},
		Ratings:        s.ratings,
		NumSimulations: s.settings.Simulation.Iterations,
	}
	for _, sr := range s.schedule.Series {
		view := s.view(sr)
		if sr.Completed() {
			state.Completed = append(state.Completed, view)
		} else {
			state.Upcoming = append(state.Upcoming, view)
		}
	}
	return state, nil
}

// Simulate runs a Monte Carlo season with the adjustments applied on top of the base schedule
func (s *Service) Simulate(ctx context.Context, adjustments []Adjustment) (*SimulationOutcome, error) {
	engine, applied, err := s.adjusted(adjustments)
	if err != nil {
		return nil, err
	}

	start := s.now()
	result, err := s.run(ctx, engine)
	if err != nil {
		return nil, err
	}
	elapsed := s.now().Sub(start)

	ordering, err := engine.Current(series.NewSeeded(s.seed(), 0))
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"run_id":      result.RunID,
		"adjustments": len(adjustments),
		"partial":     result.Partial,
	}).Info("Simulated adjusted season")

	return &SimulationOutcome{
		Probabilities: result,
		Standings:     ordering.Standings,
		Applied:       applied,
		SimulationSec: float64(elapsed.Milliseconds()) / 1000,
		Iterations:    result.Completed,
	}, nil
}

// Reset discards the cached baseline and computes a fresh one
func (s *Service) Reset(ctx context.Context) (*ResetOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, s.key); err != nil {
		s.logger.WithError(err).Warn("Failed to drop cached baseline")
	}

	baseline, err := s.computeBaseline(ctx)
	if err != nil {
		return nil, err
	}

	ordering, err := s.engine.Current(series.NewSeeded(s.seed(), 0))
	if err != nil {
		return nil, err
	}

	return &ResetOutcome{
		Status:        "success",
		Message:       "Reset to baseline probabilities",
		Probabilities: baseline,
		Standings:     ordering.Standings,
	}, nil
}

// MatchDetails returns one series with its win probabilities
func (s *Service) MatchDetails(seriesID string) (*SeriesView, error) {
	i, ok := s.index[seriesID]
	if !ok {
		return nil, &season.InputError{Kind: season.ErrUnknownSeries, Series: seriesID, Message: fmt.Sprintf("Match %s not found", seriesID)}
	}
	view := s.view(s.schedule.Series[i])
	return &view, nil
}

// CurrentStandings ranks decided series only, with optional adjustments
func (s *Service) CurrentStandings(ctx context.Context, adjustments []Adjustment) ([]simulation.Standing, error) {
	engine, _, err := s.adjusted(adjustments)
	if err != nil {
		return nil, err
	}
	ordering, err := engine.Current(series.NewSeeded(s.seed(), 0))
	if err != nil {
		return nil, err
	}
	return ordering.Standings, nil
}

// ExplainTiebreakers ranks decided series with tracing and names the tier that split each tied
// group
func (s *Service) ExplainTiebreakers(ctx context.Context, adjustments []Adjustment) (*TiebreakReport, error) {
	engine, _, err := s.adjusted(adjustments)
	if err != nil {
		return nil, err
	}
	ordering, err := engine.Current(series.NewSeeded(s.seed(), 0), tiebreak.WithTrace())
	if err != nil {
		return nil, err
	}

	report := &TiebreakReport{
		Standings: ordering.Standings,
		Ties:      []TieSummary{},
		Steps:     ordering.Steps,
	}
	separated := tiebreak.Separated.String()
	for _, step := range ordering.Steps {
		if step.Depth == 0 && step.Outcome == separated {
			report.Ties = append(report.Ties, TieSummary{
				StartRank: step.StartRank,
				Members:   step.Members,
				DecidedBy: step.Rule,
			})
		}
	}
	return report, nil
}

// Health reports loaded data and whether the baseline cache is reachable
func (s *Service) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:                "healthy",
		TeamsLoaded:           len(s.schedule.Competitors),
		MatchesLoaded:         len(s.schedule.Series),
		MatchesPending:        s.engine.Pending(),
		SimulationsPerRequest: s.settings.Simulation.Iterations,
		Cache:                 "memory",
	}

	if p, ok := s.store.(pinger); ok {
		status.Cache = "ok"
		if err := p.Ping(ctx); err != nil {
			s.logger.WithError(err).Warn("Baseline cache unreachable")
			status.Cache = "unreachable"
			status.Status = "degraded"
		}
	}
	return status
}

// adjusted builds an engine for the base schedule with the adjustments applied. A later
// adjustment of the same series replaces an earlier one.
func (s *Service) adjusted(adjustments []Adjustment) (*simulation.Engine, []SeriesView, error) {
	if len(adjustments) == 0 {
		return s.engine, []SeriesView{}, nil
	}

	schedule := season.Schedule{
		Competitors: s.schedule.Competitors,
		Series:      append([]season.Series(nil), s.schedule.Series...),
	}
	overrides := make(season.Overrides, len(adjustments))
	touched := make([]int, 0, len(adjustments))

	for _, adj := range adjustments {
		i, reversed, err := s.locate(adj)
		if err != nil {
			return nil, nil, err
		}
		sr := schedule.Series[i]

		switch {
		case adj.ScoreA == nil && adj.ScoreB == nil:
			sr.Score = nil
			schedule.Series[i] = sr
			delete(overrides, sr.ID)
		case adj.ScoreA == nil || adj.ScoreB == nil:
			return nil, nil, &season.InputError{Kind: season.ErrInvalidScore, Series: sr.ID, Message: fmt.Sprintf("Invalid score for %s vs %s: both scores are required", adj.TeamA, adj.TeamB)}
		default:
			score := season.Score{A: *adj.ScoreA, B: *adj.ScoreB}
			if reversed {
				score = score.Reversed()
			}
			overrides[sr.ID] = score
		}
		touched = append(touched, i)
	}

	engine, err := simulation.NewEngine(simulation.Input{
		Schedule:  schedule,
		Overrides: overrides,
		Threshold: s.settings.Threshold,
		Policy:    s.settings.Policy,
	})
	if err != nil {
		return nil, nil, err
	}

	applied := make([]SeriesView, 0, len(touched))
	seen := make(map[int]bool, len(touched))
	for _, i := range touched {
		if seen[i] {
			continue
		}
		seen[i] = true
		sr := schedule.Series[i]
		if score, ok := overrides[sr.ID]; ok {
			sr.Score = &score
		}
		applied = append(applied, s.view(sr))
	}
	return engine, applied, nil
}

// locate finds the series an adjustment refers to and whether its teams are in reverse order
func (s *Service) locate(adj Adjustment) (int, bool, error) {
	if adj.SeriesID != "" {
		i, ok := s.index[adj.SeriesID]
		if !ok {
			return 0, false, &season.InputError{Kind: season.ErrUnknownSeries, Series: adj.SeriesID, Message: fmt.Sprintf("Match %s not found", adj.SeriesID)}
		}
		sr := s.schedule.Series[i]
		switch {
		case adj.TeamA == "" && adj.TeamB == "":
			return i, false, nil
		case adj.TeamA == sr.A && adj.TeamB == sr.B:
			return i, false, nil
		case adj.TeamA == sr.B && adj.TeamB == sr.A:
			return i, true, nil
		default:
			return 0, false, &season.InputError{Kind: season.ErrUnknownSeries, Series: sr.ID, Message: fmt.Sprintf("Match %s is %s vs %s, not %s vs %s", sr.ID, sr.A, sr.B, adj.TeamA, adj.TeamB)}
		}
	}

	sr, reversed, ok := s.schedule.FindPair(adj.TeamA, adj.TeamB)
	if !ok {
		return 0, false, &season.InputError{Kind: season.ErrUnknownSeries, Message: fmt.Sprintf("No match between %s and %s", adj.TeamA, adj.TeamB)}
	}
	return s.index[sr.ID], reversed, nil
}

func (s *Service) view(sr season.Series) SeriesView {
	p := rating.WinProbability(s.ratings[sr.A], s.ratings[sr.B])
	seriesP := rating.SeriesWinProbability(p, s.settings.Threshold)
	unitsA, unitsB := rating.ExpectedUnits(p, s.settings.Threshold)

	view := SeriesView{
		ID:                    sr.ID,
		TeamA:                 sr.A,
		TeamB:                 sr.B,
		Completed:             sr.Completed(),
		WinProbabilityA:       p,
		WinProbabilityB:       1 - p,
		SeriesWinProbabilityA: seriesP,
		SeriesWinProbabilityB: 1 - seriesP,
		ExpectedUnitsA:        unitsA,
		ExpectedUnitsB:        unitsB,
	}
	if sr.Score != nil {
		a, b := sr.Score.A, sr.Score.B
		view.ScoreA, view.ScoreB = &a, &b
	}
	if !sr.Date.IsZero() {
		date := sr.Date
		view.StartDate = &date
	}
	return view
}
