package season

import "errors"

var (
	ErrUnknownCompetitor   = errors.New("unknown competitor")
	ErrSelfMatch           = errors.New("competitor paired against itself")
	ErrInvalidScore        = errors.New("invalid score")
	ErrUnknownSeries       = errors.New("unknown series")
	ErrDuplicateCompetitor = errors.New("duplicate competitor")
	ErrDuplicateSeries     = errors.New("duplicate series")
	ErrInvalidRating       = errors.New("invalid rating")
	ErrInvalidThreshold    = errors.New("invalid majority threshold")
)

// InputError represents malformed schedule or override input
type InputError struct {
	Kind       error  `json:"-"`
	Series     string `json:"series,omitempty"`
	Competitor string `json:"competitor,omitempty"`
	Message    string `json:"message"`
}

func (e *InputError) Error() string {
	return e.Message
}

// Unwrap exposes the error kind to errors.Is
func (e *InputError) Unwrap() error {
	return e.Kind
}
