// Package standings aggregates series results into records, rank groups, head-to-head
// sub-records and strength of schedule.
package standings

// Basis selects series or unit granularity for a fraction
type Basis int

const (
	SeriesBasis Basis = iota
	UnitBasis
)

func (b Basis) String() string {
	if b == UnitBasis {
		return "unit"
	}
	return "series"
}

// Result is one decided series between competitor indices A and B
type Result struct {
	A      int
	B      int
	UnitsA int
	UnitsB int
}

// AWon reports whether A took the series
func (r Result) AWon() bool {
	return r.UnitsA > r.UnitsB
}

// Record holds series and unit tallies for one competitor
type Record struct {
	SeriesWins   int `json:"series_wins"`
	SeriesLosses int `json:"series_losses"`
	UnitWins     int `json:"unit_wins"`
	UnitLosses   int `json:"unit_losses"`
}

// SeriesFraction returns series wins over series played, 0 when none were played
func (r Record) SeriesFraction() float64 {
	return fraction(r.SeriesWins, r.SeriesLosses)
}

// UnitFraction returns unit wins over units played, 0 when none were played
func (r Record) UnitFraction() float64 {
	return fraction(r.UnitWins, r.UnitLosses)
}

// Fraction returns the win fraction at the given granularity
func (r Record) Fraction(b Basis) float64 {
	if b == UnitBasis {
		return r.UnitFraction()
	}
	return r.SeriesFraction()
}

// Played returns the number of series played
func (r Record) Played() int {
	return r.SeriesWins + r.SeriesLosses
}

func (r *Record) add(unitsFor, unitsAgainst int) {
	if unitsFor > unitsAgainst {
		r.SeriesWins++
	} else {
		r.SeriesLosses++
	}
	r.UnitWins += unitsFor
	r.UnitLosses += unitsAgainst
}

func fraction(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses)
}

// Table is the aggregated state of one season. It is built once per iteration and never
// mutated afterwards.
type Table struct {
	ids       []string
	records   []Record
	results   []Result
	opponents [][]int
	played    []bool
}

// New aggregates results over the competitors named by ids; result indices refer to ids
func New(ids []string, results []Result) *Table {
	n := len(ids)
	t := &Table{
		ids:       ids,
		records:   make([]Record, n),
		results:   results,
		opponents: make([][]int, n),
		played:    make([]bool, n*n),
	}

	for _, r := range results {
		t.records[r.A].add(r.UnitsA, r.UnitsB)
		t.records[r.B].add(r.UnitsB, r.UnitsA)
		t.opponents[r.A] = append(t.opponents[r.A], r.B)
		t.opponents[r.B] = append(t.opponents[r.B], r.A)
		t.played[r.A*n+r.B] = true
		t.played[r.B*n+r.A] = true
	}

	return t
}

// Len returns the number of competitors
func (t *Table) Len() int {
	return len(t.ids)
}

// ID returns the identity of competitor i
func (t *Table) ID(i int) string {
	return t.ids[i]
}

// IDs maps competitor indices to identities
func (t *Table) IDs(indices []int) []string {
	out := make([]string, len(indices))
	for k, i := range indices {
		out[k] = t.ids[i]
	}
	return out
}

// Record returns the season record of competitor i
func (t *Table) Record(i int) Record {
	return t.records[i]
}

// Results returns the results the table was built from
func (t *Table) Results() []Result {
	return t.results
}

// Played reports whether i and j met at least once
func (t *Table) Played(i, j int) bool {
	return t.played[i*len(t.ids)+j]
}

// Groups partitions every competitor into rank groups by descending series-win-fraction
func (t *Table) Groups() [][]int {
	all := make([]int, len(t.ids))
	for i := range all {
		all[i] = i
	}
	return Partition(all, func(i int) float64 {
		return t.records[i].SeriesFraction()
	})
}
