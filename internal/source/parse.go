package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/sirupsen/logrus"

	"github.com/sam-maryland/seeding-sim-mcp-server/internal/season"
)

// columns maps required header names to their index
func columns(header []string, required ...string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}
	return index, nil
}

func readAll(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty document")
	}
	return rows, nil
}

// parseRatings reads team_id,elo rows in file order
func parseRatings(r io.Reader) ([]season.Competitor, error) {
	rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	col, err := columns(rows[0], "team_id", "elo")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(rows)-1)
	competitors := make([]season.Competitor, 0, len(rows)-1)
	for line, row := range rows[1:] {
		id := strings.TrimSpace(row[col["team_id"]])
		if id == "" {
			return nil, fmt.Errorf("row %d: empty team_id", line+2)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("row %d: duplicate team %s", line+2, id)
		}

		raw := strings.TrimSpace(row[col["elo"]])
		elo, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(elo) || math.IsInf(elo, 0) || elo < 0 {
			return nil, fmt.Errorf("row %d: invalid Elo rating for %s: %q", line+2, id, raw)
		}

		seen[id] = struct{}{}
		competitors = append(competitors, season.Competitor{ID: id, Rating: elo})
	}
	return competitors, nil
}

// parseMatches reads start_date,team1_id,team2_id,team1_score,team2_score rows. Unplayed
// series carry NA or empty scores. Series IDs are match_<row index>.
func parseMatches(r io.Reader, threshold int, logger *logrus.Logger) ([]season.Series, error) {
	rows, err := readAll(r)
	if err != nil {
		return nil, err
	}
	col, err := columns(rows[0], "start_date", "team1_id", "team2_id", "team1_score", "team2_score")
	if err != nil {
		return nil, err
	}

	series := make([]season.Series, 0, len(rows)-1)
	for idx, row := range rows[1:] {
		s := season.Series{
			ID: fmt.Sprintf("match_%d", idx),
			A:  strings.TrimSpace(row[col["team1_id"]]),
			B:  strings.TrimSpace(row[col["team2_id"]]),
		}

		s.Date = parseDate(strings.TrimSpace(row[col["start_date"]]), s.ID, logger)

		a, aOK, err := parseScore(row[col["team1_score"]])
		if err != nil {
			return nil, fmt.Errorf("%s: team1_score: %w", s.ID, err)
		}
		b, bOK, err := parseScore(row[col["team2_score"]])
		if err != nil {
			return nil, fmt.Errorf("%s: team2_score: %w", s.ID, err)
		}
		if aOK != bOK {
			return nil, fmt.Errorf("%s: only one side of the score is set", s.ID)
		}
		if aOK {
			score := season.Score{A: a, B: b}
			if !score.Valid(threshold) {
				return nil, &season.InputError{
					Kind:    season.ErrInvalidScore,
					Series:  s.ID,
					Message: fmt.Sprintf("invalid score for %s vs %s: %s", s.A, s.B, score),
				}
			}
			s.Score = &score
		}

		series = append(series, s)
	}
	return series, nil
}

func parseScore(raw string) (int, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "NA") {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("invalid score %q", raw)
	}
	return v, true, nil
}

func parseDate(raw, seriesID string, logger *logrus.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}
	t, err := dateparse.ParseAny(raw)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"series": seriesID,
			"date":   raw,
		}).Warn("Unparseable start_date, leaving it empty")
		return time.Time{}
	}
	return t
}
