package season

import (
	"fmt"
	"math"
	"time"
)

// Competitor represents a team entered in the round robin
type Competitor struct {
	ID     string  `json:"id"`
	Rating float64 `json:"rating"`
}

// Score represents the units won by each side of a series
type Score struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Valid reports whether the score is a finished first-to-threshold result
func (s Score) Valid(threshold int) bool {
	if threshold < 1 || s.A < 0 || s.B < 0 {
		return false
	}
	if s.A == threshold {
		return s.B < threshold
	}
	if s.B == threshold {
		return s.A < threshold
	}
	return false
}

// AWon reports whether side A took the series
func (s Score) AWon() bool {
	return s.A > s.B
}

// Reversed swaps the sides of the score
func (s Score) Reversed() Score {
	return Score{A: s.B, B: s.A}
}

func (s Score) String() string {
	return fmt.Sprintf("%d-%d", s.A, s.B)
}

// Series represents one scheduled best-of-N contest between two competitors
type Series struct {
	ID    string    `json:"id"`
	A     string    `json:"a"`
	B     string    `json:"b"`
	Date  time.Time `json:"date,omitempty"`
	Score *Score    `json:"score,omitempty"`
}

// Completed reports whether the series already has a result
func (s Series) Completed() bool {
	return s.Score != nil
}

// Involves reports whether the competitor plays in the series
func (s Series) Involves(id string) bool {
	return s.A == id || s.B == id
}

// Schedule is the immutable base input: every competitor and every series of the season
type Schedule struct {
	Competitors []Competitor `json:"competitors"`
	Series      []Series     `json:"series"`
}

// Overrides maps a series ID to a user-specified result
type Overrides map[string]Score

// Threshold returns the majority threshold for a best-of-N format
func Threshold(bestOf int) (int, error) {
	if bestOf < 1 || bestOf%2 == 0 {
		return 0, &InputError{Kind: ErrInvalidThreshold, Message: fmt.Sprintf("best_of must be a positive odd number, got %d", bestOf)}
	}
	return bestOf/2 + 1, nil
}

// Ratings returns the competitor ratings keyed by ID
func (s Schedule) Ratings() map[string]float64 {
	ratings := make(map[string]float64, len(s.Competitors))
	for _, c := range s.Competitors {
		ratings[c.ID] = c.Rating
	}
	return ratings
}

// Find returns the series with the given ID
func (s Schedule) Find(seriesID string) (Series, bool) {
	for _, sr := range s.Series {
		if sr.ID == seriesID {
			return sr, true
		}
	}
	return Series{}, false
}

// FindPair returns the first series played between two competitors in either order,
// with reversed set when the stored order is b-a
func (s Schedule) FindPair(a, b string) (sr Series, reversed bool, ok bool) {
	for _, candidate := range s.Series {
		if candidate.A == a && candidate.B == b {
			return candidate, false, true
		}
		if candidate.A == b && candidate.B == a {
			return candidate, true, true
		}
	}
	return Series{}, false, false
}

// Validate checks the schedule and overrides against the majority threshold
func (s Schedule) Validate(overrides Overrides, threshold int) error {
	if threshold < 1 {
		return &InputError{Kind: ErrInvalidThreshold, Message: fmt.Sprintf("majority threshold must be positive, got %d", threshold)}
	}

	known := make(map[string]struct{}, len(s.Competitors))
	for _, c := range s.Competitors {
		if _, dup := known[c.ID]; dup {
			return &InputError{Kind: ErrDuplicateCompetitor, Competitor: c.ID, Message: fmt.Sprintf("competitor %s listed more than once", c.ID)}
		}
		if math.IsNaN(c.Rating) || math.IsInf(c.Rating, 0) {
			return &InputError{Kind: ErrInvalidRating, Competitor: c.ID, Message: fmt.Sprintf("rating for %s is not finite", c.ID)}
		}
		known[c.ID] = struct{}{}
	}

	seen := make(map[string]struct{}, len(s.Series))
	for _, sr := range s.Series {
		if _, dup := seen[sr.ID]; dup {
			return &InputError{Kind: ErrDuplicateSeries, Series: sr.ID, Message: fmt.Sprintf("series %s listed more than once", sr.ID)}
		}
		seen[sr.ID] = struct{}{}

		for _, id := range []string{sr.A, sr.B} {
			if _, ok := known[id]; !ok {
				return &InputError{Kind: ErrUnknownCompetitor, Series: sr.ID, Competitor: id, Message: fmt.Sprintf("series %s references unknown competitor %q", sr.ID, id)}
			}
		}
		if sr.A == sr.B {
			return &InputError{Kind: ErrSelfMatch, Series: sr.ID, Competitor: sr.A, Message: fmt.Sprintf("series %s pairs %s against itself", sr.ID, sr.A)}
		}
		if sr.Score != nil && !sr.Score.Valid(threshold) {
			return &InputError{Kind: ErrInvalidScore, Series: sr.ID, Message: fmt.Sprintf("invalid score for %s vs %s: %s", sr.A, sr.B, sr.Score)}
		}
	}

	for id, score := range overrides {
		sr, ok := s.Find(id)
		if !ok {
			return &InputError{Kind: ErrUnknownSeries, Series: id, Message: fmt.Sprintf("override references unknown series %q", id)}
		}
		if !score.Valid(threshold) {
			return &InputError{Kind: ErrInvalidScore, Series: id, Message: fmt.Sprintf("invalid override score for %s vs %s: %s", sr.A, sr.B, score)}
		}
	}

	return nil
}
