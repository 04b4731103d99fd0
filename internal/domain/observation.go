package domain

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidMonth          = errors.New("month outside 1-12")
	ErrNegativePrecipitation = errors.New("negative precipitation")
	ErrNonFinite             = errors.New("non-finite value")
	ErrDuplicatePeriod       = errors.New("duplicate year/month")
	ErrOutOfOrder            = errors.New("observations not in chronological order")
	ErrEmptySeries           = errors.New("series has no observations")
)

// ValidationError reports the row and field that failed input validation.
// Row is the zero-based position in the caller's table.
type ValidationError struct {
	Row   int
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("row %d: %s: %v", e.Row, e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Observation is one monthly record. A nil Precipitation or PET is a missing value.
type Observation struct {
	Year          int      `json:"year"`
	Month         int      `json:"month"`
	Precipitation *float64 `json:"precipitation"`
	PET           *float64 `json:"potential_evapotranspiration,omitempty"`
}

// Series is a validated, strictly chronological sequence of observations.
// The zero value is an empty series. Construct with NewSeries.
type Series struct {
	obs []Observation
}

// NewSeries validates observations and returns a Series that owns a copy of them.
// Calendar gaps are allowed; duplicates and out-of-order rows are not.
func NewSeries(obs []Observation) (Series, error) {
	if len(obs) == 0 {
		return Series{}, ErrEmptySeries
	}

	out := make([]Observation, len(obs))
	for i, o := range obs {
		if err := validateObservation(i, o); err != nil {
			return Series{}, err
		}
		if i > 0 {
			prev, cur := monthIndex(obs[i-1].Year, obs[i-1].Month), monthIndex(o.Year, o.Month)
			switch {
			case cur == prev:
				return Series{}, &ValidationError{Row: i, Field: "month", Err: ErrDuplicatePeriod}
			case cur < prev:
				return Series{}, &ValidationError{Row: i, Field: "month", Err: fmt.Errorf("%w: %04d-%02d follows %04d-%02d",
					ErrOutOfOrder, o.Year, o.Month, obs[i-1].Year, obs[i-1].Month)}
			}
		}
		out[i] = Observation{
			Year:          o.Year,
			Month:         o.Month,
			Precipitation: copyFloat(o.Precipitation),
			PET:           copyFloat(o.PET),
		}
	}
	return Series{obs: out}, nil
}

func validateObservation(row int, o Observation) error {
	if o.Month < 1 || o.Month > 12 {
		return &ValidationError{Row: row, Field: "month", Err: fmt.Errorf("%w: %d", ErrInvalidMonth, o.Month)}
	}
	if p := o.Precipitation; p != nil {
		if math.IsNaN(*p) || math.IsInf(*p, 0) {
			return &ValidationError{Row: row, Field: "precipitation", Err: ErrNonFinite}
		}
		if *p < 0 {
			return &ValidationError{Row: row, Field: "precipitation", Err: fmt.Errorf("%w: %g", ErrNegativePrecipitation, *p)}
		}
	}
	if pe := o.PET; pe != nil && (math.IsNaN(*pe) || math.IsInf(*pe, 0)) {
		return &ValidationError{Row: row, Field: "potential_evapotranspiration", Err: ErrNonFinite}
	}
	return nil
}

// Len returns the number of observations.
func (s Series) Len() int { return len(s.obs) }

// At returns the i-th observation. Pointer fields are copies.
func (s Series) At(i int) Observation {
	o := s.obs[i]
	o.Precipitation = copyFloat(o.Precipitation)
	o.PET = copyFloat(o.PET)
	return o
}

// Observations returns a copy of the underlying observations.
func (s Series) Observations() []Observation {
	out := make([]Observation, len(s.obs))
	for i := range s.obs {
		out[i] = s.At(i)
	}
	return out
}

// Gap is a run of calendar months absent from a series.
type Gap struct {
	FromYear  int `json:"from_year"`
	FromMonth int `json:"from_month"`
	Months    int `json:"months"`
}

// Gaps lists calendar months missing between the first and last observation.
func (s Series) Gaps() []Gap {
	var gaps []Gap
	for i := 1; i < len(s.obs); i++ {
		prev := monthIndex(s.obs[i-1].Year, s.obs[i-1].Month)
		cur := monthIndex(s.obs[i].Year, s.obs[i].Month)
		if cur-prev > 1 {
			y, m := fromMonthIndex(prev + 1)
			gaps = append(gaps, Gap{FromYear: y, FromMonth: m, Months: cur - prev - 1})
		}
	}
	return gaps
}

// MonthCounts returns, per calendar month, how many observations carry a precipitation value.
func (s Series) MonthCounts() [12]int {
	var counts [12]int
	for _, o := range s.obs {
		if o.Precipitation != nil {
			counts[o.Month-1]++
		}
	}
	return counts
}

// monthIndex maps a year/month onto a linear month count.
func monthIndex(year, month int) int {
	return year*12 + (month - 1)
}

func fromMonthIndex(idx int) (year, month int) {
	return idx / 12, idx%12 + 1
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Float returns a pointer to v, for building observations and optional values.
func Float(v float64) *float64 {
	return &v
}
