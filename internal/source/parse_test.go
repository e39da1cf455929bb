package source

import (
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
)

func TestParseRatings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{"negative", "team_id,elo\nA,-5\n"},
		{"not a number", "team_id,elo\nA,strong\n"},
		{"duplicate", "team_id,elo\nA,1500\nA,1600\n"},
		{"missing column", "team,elo\nA,1500\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseRatings(strings.NewReader(tt.csv)); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestParseMatches_Invalid(t *testing.T) {
	logger, _ := test.NewNullLogger()
	header := "start_date,team1_id,team2_id,team1_score,team2_score\n"

	tests := []struct {
		name      string
		row       string
		wantScore bool
	}{
		{"impossible score", "2025-01-01,A,B,3,3\n", true},
		{"unfinished score", "2025-01-01,A,B,2,1\n", true},
		{"half a score", "2025-01-01,A,B,3,NA\n", false},
		{"not a number", "2025-01-01,A,B,three,0\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseMatches(strings.NewReader(header+tt.row), 3, logger)
			if err == nil {
				t.Fatal("Expected error, got nil")
			}
			if got := errors.Is(err, season.ErrInvalidScore); got != tt.wantScore {
				t.Errorf("Expected errors.Is(ErrInvalidScore) = %v, got %v (%v)", tt.wantScore, got, err)
			}
		})
	}
}

func TestValidateRoundRobin(t *testing.T) {
	schedule := season.Schedule{
		Competitors: []season.Competitor{{ID: "A"}, {ID: "B"}, {ID: "C"}},
		Series: []season.Series{
			{ID: "match_0", A: "A", B: "B"},
			{ID: "match_1", A: "A", B: "C"},
			{ID: "match_2", A: "B", B: "C"},
		},
	}
	if err := ValidateRoundRobin(schedule, 3); err != nil {
		t.Errorf("Expected valid round robin, got %v", err)
	}
	if err := ValidateRoundRobin(schedule, 4); err == nil {
		t.Error("Expected team count error")
	}

	schedule.Series[2] = season.Series{ID: "match_2", A: "A", B: "B"}
	if err := ValidateRoundRobin(schedule, 3); err == nil {
		t.Error("Expected unbalanced schedule error")
	}

	schedule.Series[2] = season.Series{ID: "match_2", A: "B", B: "Z"}
	if err := ValidateRoundRobin(schedule, 3); err == nil {
		t.Error("Expected unknown team error")
	}
}
