package series

// Sequence is a Source that replays fixed draws in order and wraps around when exhausted.
// IntN consumes one Float64 draw and scales it.
type Sequence struct {
	draws []float64
	next  int
	used  int
}

// NewSequence returns a Source replaying the given draws, each in [0, 1)
func NewSequence(draws ...float64) *Sequence {
	if len(draws) == 0 {
		draws = []float64{0}
	}
	return &Sequence{draws: draws}
}

func (s *Sequence) Float64() float64 {
	d := s.draws[s.next]
	s.next = (s.next + 1) % len(s.draws)
	s.used++
	return d
}

func (s *Sequence) IntN(n int) int {
	if n <= 0 {
		panic("series: IntN called with non-positive n")
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

// Used returns how many draws have been consumed
func (s *Sequence) Used() int {
	return s.used
}
