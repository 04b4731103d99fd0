package domain

import "math"

// ComparisonRow aligns two index results for one period.
type ComparisonRow struct {
	Year       int          `json:"year"`
	Period     int          `json:"period"`
	A          *float64     `json:"a"`
	B          *float64     `json:"b"`
	ClassA     DroughtClass `json:"class_a"`
	ClassB     DroughtClass `json:"class_b"`
	Difference *float64     `json:"difference"`
	Agreement  bool         `json:"agreement"`
}

// ComparisonSummary aggregates agreement over periods where both indices are defined.
type ComparisonSummary struct {
	Aligned           int     `json:"aligned"`
	Compared          int     `json:"compared"`
	Agreeing          int     `json:"agreeing"`
	AgreementFraction float64 `json:"agreement_fraction"`
	MeanAbsDifference float64 `json:"mean_abs_difference"`
	MaxAbsDifference  float64 `json:"max_abs_difference"`
}

// Comparison is the result of CompareIndices.
type Comparison struct {
	Rows    []ComparisonRow   `json:"rows"`
	Summary ComparisonSummary `json:"summary"`
}

// CompareIndices aligns a and b by (year, period), in the order of a, and
// reports a-b per period plus class agreement. Periods present in only one
// input are skipped. Difference is nil and the row is excluded from the
// summary unless both values are defined. With nothing to compare the
// agreement fraction is 0.
func CompareIndices(a, b []IndexResult) Comparison {
	byKey := make(map[PeriodKey]IndexResult, len(b))
	for _, r := range b {
		byKey[r.Key()] = r
	}

	var (
		cmp    Comparison
		sumAbs float64
	)
	for _, ra := range a {
		rb, ok := byKey[ra.Key()]
		if !ok {
			continue
		}
		row := ComparisonRow{
			Year:      ra.Year,
			Period:    ra.Period,
			A:         copyFloat(ra.Value),
			B:         copyFloat(rb.Value),
			ClassA:    ra.Class,
			ClassB:    rb.Class,
			Agreement: ra.Class == rb.Class,
		}
		cmp.Summary.Aligned++
		if ra.Value != nil && rb.Value != nil {
			d := *ra.Value - *rb.Value
			row.Difference = Float(d)
			cmp.Summary.Compared++
			if row.Agreement {
				cmp.Summary.Agreeing++
			}
			abs := math.Abs(d)
			sumAbs += abs
			if abs > cmp.Summary.MaxAbsDifference {
				cmp.Summary.MaxAbsDifference = abs
			}
		}
		cmp.Rows = append(cmp.Rows, row)
	}

	if n := cmp.Summary.Compared; n > 0 {
		cmp.Summary.AgreementFraction = float64(cmp.Summary.Agreeing) / float64(n)
		cmp.Summary.MeanAbsDifference = sumAbs / float64(n)
	}
	return cmp
}
