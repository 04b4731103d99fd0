package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Scale is the temporal aggregation a calculator runs at.
type Scale string

const (
	ScaleMonthly  Scale = "monthly"
	ScaleSeasonal Scale = "seasonal"
	ScaleAnnual   Scale = "annual"
)

var ErrUnknownScale = errors.New("unknown scale")

// ParseScale normalizes a scale name. An empty string selects monthly.
func ParseScale(s string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(s))) {
	case "", ScaleMonthly:
		return ScaleMonthly, nil
	case ScaleSeasonal:
		return ScaleSeasonal, nil
	case ScaleAnnual:
		return ScaleAnnual, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownScale, s)
	}
}

// Season identifiers used as the seasonal period and grouping key.
const (
	SeasonWinter = 1 // Dec, Jan, Feb
	SeasonSpring = 2 // Mar, Apr, May
	SeasonSummer = 3 // Jun, Jul, Aug
	SeasonAutumn = 4 // Sep, Oct, Nov
)

var seasonNames = map[int]string{
	SeasonWinter: "Winter",
	SeasonSpring: "Spring",
	SeasonSummer: "Summer",
	SeasonAutumn: "Autumn",
}

// SeasonName returns the label of a season id, or "" for an unknown id.
func SeasonName(id int) string {
	return seasonNames[id]
}

// seasonOf returns the season id and the year the season is labelled with.
// December opens the winter that continues into the next January, so the
// winter is labelled with December's year.
func seasonOf(year, month int) (seasonYear, season int) {
	switch month {
	case 12:
		return year, SeasonWinter
	case 1, 2:
		return year - 1, SeasonWinter
	case 3, 4, 5:
		return year, SeasonSpring
	case 6, 7, 8:
		return year, SeasonSummer
	default:
		return year, SeasonAutumn
	}
}

// Aggregate is the precipitation total of one period at some scale.
// Period is the month (monthly), season id (seasonal) or 0 (annual); Key is
// the grouping key used for group statistics. Value is nil when the period is
// incomplete or any contributing observation is missing.
type Aggregate struct {
	Year   int
	Period int
	Key    int
	Months int
	Value  *float64
}

// AggregateSeries sums a series into periods of the given scale, in
// chronological order.
func AggregateSeries(s Series, scale Scale) ([]Aggregate, error) {
	switch scale {
	case ScaleMonthly:
		out := make([]Aggregate, len(s.obs))
		for i, o := range s.obs {
			out[i] = Aggregate{Year: o.Year, Period: o.Month, Key: o.Month, Months: 1, Value: copyFloat(o.Precipitation)}
		}
		return out, nil
	case ScaleSeasonal:
		return sumPeriods(s, 3, func(o Observation) (int, int) { return seasonOf(o.Year, o.Month) }), nil
	case ScaleAnnual:
		return sumPeriods(s, 12, func(o Observation) (int, int) { return o.Year, 0 }), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScale, scale)
	}
}

// sumPeriods groups consecutive observations that share a (year, period)
// label. Because the series is chronological and seasons/years are
// contiguous month ranges, each label forms a single run.
func sumPeriods(s Series, need int, label func(Observation) (int, int)) []Aggregate {
	var (
		out     []Aggregate
		cur     *Aggregate
		sum     float64
		missing bool
	)
	flush := func() {
		if cur == nil {
			return
		}
		if !missing && cur.Months == need {
			cur.Value = Float(sum)
		}
		out = append(out, *cur)
	}

	for _, o := range s.obs {
		year, period := label(o)
		if cur == nil || cur.Year != year || cur.Period != period {
			flush()
			cur = &Aggregate{Year: year, Period: period, Key: period}
			sum, missing = 0, false
		}
		cur.Months++
		if o.Precipitation == nil {
			missing = true
			continue
		}
		sum += *o.Precipitation
	}
	flush()
	return out
}
