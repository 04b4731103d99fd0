package domain

import "math"

// IndexResult is one period of a standardized index.
type IndexResult struct {
	Year          int          `json:"year"`
	Period        int          `json:"period"`
	Precipitation *float64     `json:"precipitation"`
	Value         *float64     `json:"value"`
	Class         DroughtClass `json:"drought_class"`
}

// Key identifies the period the result belongs to.
func (r IndexResult) Key() PeriodKey {
	return PeriodKey{Year: r.Year, Period: r.Period}
}

// PeriodKey aligns results from different calculators.
type PeriodKey struct {
	Year   int
	Period int
}

// skewTolerance is the skewness below which 6/Cs cancellation swamps the
// correction. Symmetric groups leave rounding noise around 1e-16.
const skewTolerance = 1e-6

// CZI applies the Wilson-Hilferty cube-root correction to the standardized
// anomaly of p:
//
//	Zi  = (p - μ) / σ
//	CZI = 6/Cs · cbrt(Cs/2 · Zi + 1) - 6/Cs + Cs/6
//
// As Cs approaches 0 the transform tends to Zi, so |Cs| below skewTolerance
// returns Zi. The cube root is the signed real root, so a negative bracket
// stays negative. ok is false when the group statistics are undefined.
func CZI(p float64, gs GroupStats) (value float64, ok bool) {
	if !gs.Defined || gs.StdDev == 0 {
		return 0, false
	}
	zi := (p - gs.Mean) / gs.StdDev
	cs := gs.Skewness
	if math.Abs(cs) < skewTolerance {
		return zi, true
	}
	v := 6/cs*math.Cbrt(cs/2*zi+1) - 6/cs + cs/6
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// MCZI is the robust Z-score (p - median) / robustScale.
func MCZI(p float64, gs GroupStats) (value float64, ok bool) {
	if !gs.Defined || gs.RobustScale == 0 {
		return 0, false
	}
	return (p - gs.Median) / gs.RobustScale, true
}

// CalculateCZI computes the China Z-Index of every period at the given scale.
// Group statistics are keyed by calendar month, season or a single annual group.
func CalculateCZI(s Series, scale Scale) ([]IndexResult, error) {
	return calculateZIndex(s, scale, MethodMoments, CZI)
}

// CalculateMCZI computes the Modified China Z-Index of every period.
func CalculateMCZI(s Series, scale Scale) ([]IndexResult, error) {
	return calculateZIndex(s, scale, MethodRobust, MCZI)
}

type transformFunc func(p float64, gs GroupStats) (float64, bool)

func calculateZIndex(s Series, scale Scale, method Method, transform transformFunc) ([]IndexResult, error) {
	aggs, err := AggregateSeries(s, scale)
	if err != nil {
		return nil, err
	}
	stats := EstimateMoments(aggs, method)

	out := make([]IndexResult, len(aggs))
	for i, a := range aggs {
		r := IndexResult{Year: a.Year, Period: a.Period, Precipitation: copyFloat(a.Value)}
		if a.Value != nil {
			if v, ok := transform(*a.Value, stats[a.Key]); ok {
				r.Value = Float(v)
			}
		}
		r.Class = ClassOf(r.Value)
		out[i] = r
	}
	return out, nil
}
