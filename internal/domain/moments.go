package domain

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Method selects which statistic pair the moment estimator computes.
type Method int

const (
	// MethodMoments computes mean, sample standard deviation and skewness (CZI, SPI).
	MethodMoments Method = iota
	// MethodRobust computes median and a robust scale (MCZI).
	MethodRobust
)

const (
	// madConsistency scales the median absolute deviation to match the
	// standard deviation of a normal distribution.
	madConsistency = 1.4826
	// meanADConsistency does the same for the mean absolute deviation.
	meanADConsistency = 1.2533
)

// GroupStats holds the statistics of all defined values sharing one
// aggregation key. Defined is false when fewer than two values exist or the
// dispersion is zero; indices depending on the group are then undefined.
type GroupStats struct {
	Key         int     `json:"key"`
	Count       int     `json:"count"`
	Mean        float64 `json:"mean,omitempty"`
	StdDev      float64 `json:"std_dev,omitempty"`
	Skewness    float64 `json:"skewness,omitempty"`
	Median      float64 `json:"median,omitempty"`
	RobustScale float64 `json:"robust_scale,omitempty"`
	Defined     bool    `json:"defined"`
}

// EstimateMoments computes group statistics for every key present in aggs.
// Aggregates with a nil value are skipped.
func EstimateMoments(aggs []Aggregate, method Method) map[int]GroupStats {
	groups := make(map[int][]float64)
	for _, a := range aggs {
		if _, ok := groups[a.Key]; !ok {
			groups[a.Key] = nil
		}
		if a.Value != nil {
			groups[a.Key] = append(groups[a.Key], *a.Value)
		}
	}

	out := make(map[int]GroupStats, len(groups))
	for key, values := range groups {
		var gs GroupStats
		if method == MethodRobust {
			gs = robustStats(values)
		} else {
			gs = momentStats(values)
		}
		gs.Key = key
		out[key] = gs
	}
	return out
}

// momentStats uses the sample (n-1) standard deviation and the third
// standardized moment Σ(x-μ)³/n / σ³ without small-sample correction.
func momentStats(values []float64) GroupStats {
	gs := GroupStats{Count: len(values)}
	if len(values) < 2 {
		return gs
	}

	mean, std := stat.MeanStdDev(values, nil)
	gs.Mean = mean
	gs.StdDev = std
	if std == 0 || math.IsNaN(std) {
		return gs
	}

	m3 := stat.MomentAbout(3, values, mean, nil)
	gs.Skewness = m3 / (std * std * std)
	gs.Defined = true
	return gs
}

// robustStats computes the median and a normalized MAD. When the MAD is zero
// (over half the values tie with the median, common for dry-season zeros) it
// falls back to the normalized mean absolute deviation from the median.
func robustStats(values []float64) GroupStats {
	gs := GroupStats{Count: len(values)}
	if len(values) < 2 {
		return gs
	}

	med := median(values)
	gs.Median = med

	dev := make([]float64, len(values))
	var sumDev float64
	for i, v := range values {
		dev[i] = math.Abs(v - med)
		sumDev += dev[i]
	}

	scale := madConsistency * median(dev)
	if scale == 0 {
		scale = meanADConsistency * sumDev / float64(len(dev))
	}
	if scale == 0 {
		return gs
	}
	gs.RobustScale = scale
	gs.Defined = true
	return gs
}

// median returns the middle value, averaging the two middle values for an
// even count. values is not modified.
func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}
