package domain

import (
	"errors"
	"fmt"
)

// Composite Index weights for the 1-month SPI, 3-month SPI and monthly moisture index.
const (
	WeightSPI1     = 0.47
	WeightSPI3     = 0.36
	WeightMoisture = 0.96
)

var (
	ErrInvalidWindow  = errors.New("window must be at least 1 month")
	ErrCompositeScale = errors.New("composite index supports only the monthly scale")
)

// RollingSPI approximates the Standardized Precipitation Index over a
// trailing window of the given length, returning one value per observation.
//
// It is a normal approximation, not the gamma-fitted SPI: window sums are
// standardized with the mean and sample standard deviation of all sums ending
// in the same calendar month. A value is nil when the window reaches before
// the first observation, crosses a calendar gap, contains a missing
// precipitation, or its month group is undefined.
func RollingSPI(s Series, window int) ([]*float64, error) {
	if window < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWindow, window)
	}

	aggs := make([]Aggregate, len(s.obs))
	for i, o := range s.obs {
		aggs[i] = Aggregate{Year: o.Year, Period: o.Month, Key: o.Month, Months: window, Value: windowSum(s, i, window)}
	}
	stats := EstimateMoments(aggs, MethodMoments)

	out := make([]*float64, len(aggs))
	for i, a := range aggs {
		gs := stats[a.Key]
		if a.Value == nil || !gs.Defined {
			continue
		}
		out[i] = Float((*a.Value - gs.Mean) / gs.StdDev)
	}
	return out, nil
}

// windowSum sums precipitation over the window ending at position end.
func windowSum(s Series, end, window int) *float64 {
	start := end - window + 1
	if start < 0 {
		return nil
	}
	first, last := s.obs[start], s.obs[end]
	if monthIndex(last.Year, last.Month)-monthIndex(first.Year, first.Month) != window-1 {
		return nil
	}
	var sum float64
	for _, o := range s.obs[start : end+1] {
		if o.Precipitation == nil {
			return nil
		}
		sum += *o.Precipitation
	}
	return &sum
}

// MoistureIndex computes M30 = (P - PE) / P per observation. The value is nil
// when P is zero or either input is missing; no default is substituted.
func MoistureIndex(s Series) []*float64 {
	out := make([]*float64, len(s.obs))
	for i, o := range s.obs {
		if o.Precipitation == nil || o.PET == nil || *o.Precipitation == 0 {
			continue
		}
		p := *o.Precipitation
		out[i] = Float((p - *o.PET) / p)
	}
	return out
}

// FillPET returns a copy of s in which observations without a PET value get
// ratio·P. Observations with missing precipitation keep a missing PET.
func FillPET(s Series, ratio float64) Series {
	out := Series{obs: make([]Observation, len(s.obs))}
	for i := range s.obs {
		o := s.At(i)
		if o.PET == nil && o.Precipitation != nil {
			o.PET = Float(ratio * *o.Precipitation)
		}
		out.obs[i] = o
	}
	return out
}

// CompositeResult is one month of the Composite Index with its input terms.
type CompositeResult struct {
	Year          int          `json:"year"`
	Month         int          `json:"month"`
	Precipitation *float64     `json:"precipitation"`
	PET           *float64     `json:"potential_evapotranspiration"`
	SPI1          *float64     `json:"spi_1month"`
	SPI3          *float64     `json:"spi_3month"`
	Moisture      *float64     `json:"moisture_index"`
	Value         *float64     `json:"composite_index"`
	Class         DroughtClass `json:"drought_class"`
}

// IndexResult projects the composite onto the common result shape.
func (r CompositeResult) IndexResult() IndexResult {
	return IndexResult{Year: r.Year, Period: r.Month, Precipitation: copyFloat(r.Precipitation), Value: copyFloat(r.Value), Class: r.Class}
}

// CalculateComposite computes CI = 0.47·SPI1 + 0.36·SPI3 + 0.96·M30 for every
// month. CI is nil whenever any term is nil.
func CalculateComposite(s Series) ([]CompositeResult, error) {
	spi1, err := RollingSPI(s, 1)
	if err != nil {
		return nil, err
	}
	spi3, err := RollingSPI(s, 3)
	if err != nil {
		return nil, err
	}
	moisture := MoistureIndex(s)

	out := make([]CompositeResult, len(s.obs))
	for i, o := range s.obs {
		r := CompositeResult{
			Year:          o.Year,
			Month:         o.Month,
			Precipitation: copyFloat(o.Precipitation),
			PET:           copyFloat(o.PET),
			SPI1:          spi1[i],
			SPI3:          spi3[i],
			Moisture:      moisture[i],
		}
		if r.SPI1 != nil && r.SPI3 != nil && r.Moisture != nil {
			z30, z90, m30 := *r.SPI1, *r.SPI3, *r.Moisture
			r.Value = Float(WeightSPI1*z30 + WeightSPI3*z90 + WeightMoisture*m30)
		}
		r.Class = ClassOf(r.Value)
		out[i] = r
	}
	return out, nil
}
