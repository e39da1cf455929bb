package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/simulation"
	"github.com/sam-maryland/seeding-sim-mcp-server/internal/tiebreak"
)

// SeasonRules describes the competition format
type SeasonRules struct {
	Name     string               `yaml:"name"`
	BestOf   int                  `yaml:"best_of"`
	Brackets []simulation.Bracket `yaml:"brackets"`
	Tiebreak tiebreak.Policy      `yaml:"tiebreak"`
	Notes    string               `yaml:"notes,omitempty"`
}

var rulesPaths = []string{
	"configs/season_rules.yaml",
	"../configs/season_rules.yaml",
	"../../configs/season_rules.yaml",
}

// DefaultSeasonRules is used when no rules file is found: best of five, top six make the
// bracket, top ten make the play-ins
func DefaultSeasonRules() *SeasonRules {
	return &SeasonRules{
		Name:   "Default Season",
		BestOf: 5,
		Brackets: []simulation.Bracket{
			{Name: "make_bracket", FirstRank: 1, LastRank: 6},
			{Name: "make_play_ins", FirstRank: 1, LastRank: 10},
		},
		Tiebreak: tiebreak.Policy{
			Default: tiebreak.RandomDraw,
			ByRank: map[int]tiebreak.Terminal{
				1: tiebreak.TiebreakerSeries,
				2: tiebreak.TiebreakerSeries,
				3: tiebreak.TiebreakerSeries,
				8: tiebreak.TiebreakerSeries,
			},
		},
	}
}

// LoadSeasonRules reads path, or the first candidate path that exists when path is empty.
// Defaults apply when nothing is found and no explicit path was given.
func LoadSeasonRules(path string) (*SeasonRules, error) {
	var data []byte
	foundPath := ""

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read season rules from %s: %w", path, err)
		}
		data, foundPath = raw, path
	} else {
		for _, candidate := range rulesPaths {
			if _, err := os.Stat(candidate); err != nil {
				continue
			}
			if raw, err := os.ReadFile(candidate); err == nil {
				data, foundPath = raw, candidate
				break
			}
		}
	}

	if foundPath == "" {
		return DefaultSeasonRules(), nil
	}

	rules, err := ParseSeasonRules(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse season rules from %s: %w", foundPath, err)
	}
	return rules, nil
}

// ParseSeasonRules decodes and validates a rules document
func ParseSeasonRules(data []byte) (*SeasonRules, error) {
	var rules SeasonRules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, err
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// Validate checks the series length, bracket ranges and terminal policy
func (r *SeasonRules) Validate() error {
	if _, err := season.Threshold(r.BestOf); err != nil {
		return err
	}
	seen := make(map[string]bool, len(r.Brackets))
	for _, b := range r.Brackets {
		if b.Name == "" {
			return fmt.Errorf("bracket with ranks %d-%d has no name", b.FirstRank, b.LastRank)
		}
		if seen[b.Name] {
			return fmt.Errorf("duplicate bracket %q", b.Name)
		}
		seen[b.Name] = true
		if b.FirstRank < 1 || b.LastRank < b.FirstRank {
			return fmt.Errorf("bracket %q has invalid ranks %d-%d", b.Name, b.FirstRank, b.LastRank)
		}
	}
	return r.Tiebreak.Validate()
}

// Threshold returns the number of unit wins that decides a series
func (r *SeasonRules) Threshold() int {
	threshold, _ := season.Threshold(r.BestOf)
	return threshold
}
