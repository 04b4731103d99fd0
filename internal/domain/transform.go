package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrMissingField = errors.New("required field missing")
	ErrNotInteger   = errors.New("not an integer")
	ErrUnknownIndex = errors.New("unknown index")
	ErrNoStation    = errors.New("station_id is required")
)

// reportNamespace seeds deterministic report IDs.
var reportNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:drought-index-etl:report"))

// canonicalIndices fixes the order indices appear in a report.
var canonicalIndices = []IndexKind{IndexCZI, IndexMCZI, IndexComposite}

// ReportOptions supplies service defaults for fields a request leaves empty.
type ReportOptions struct {
	DefaultScale   Scale
	DefaultIndices []IndexKind
	// PETRatio, when positive, fills missing PET with PETRatio·P before the
	// moisture index is computed.
	PETRatio float64
	// OnIndex, when set, is called after each index is computed with the
	// time it took.
	OnIndex func(kind IndexKind, elapsed time.Duration)
}

// ParseRawEvent deserializes a RawEvent's value into a SeriesRequest.
func ParseRawEvent(raw RawEvent) (SeriesRequest, error) {
	var req SeriesRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return SeriesRequest{}, fmt.Errorf("parse raw event: %w", err)
	}
	return req, nil
}

// ParseIndexKind normalizes an index name ("czi", "mczi", "ci").
func ParseIndexKind(s string) (IndexKind, error) {
	k := IndexKind(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(canonicalIndices, k) {
		return "", fmt.Errorf("%w: %q", ErrUnknownIndex, s)
	}
	return k, nil
}

// ParseIndexList parses a comma-separated list of index names.
func ParseIndexList(s string) ([]IndexKind, error) {
	var out []IndexKind
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseIndexKind(part)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, nil
}

// SeriesFromRecords converts wire records into a validated Series.
func SeriesFromRecords(records []ObservationRecord) (Series, error) {
	obs := make([]Observation, len(records))
	for i, rec := range records {
		year, err := parseInteger(i, "year", rec.Year)
		if err != nil {
			return Series{}, err
		}
		month, err := parseInteger(i, "month", rec.Month)
		if err != nil {
			return Series{}, err
		}
		obs[i] = Observation{Year: year, Month: month, Precipitation: rec.Precipitation, PET: rec.PET}
	}
	return NewSeries(obs)
}

func parseInteger(row int, field string, n json.Number) (int, error) {
	if n == "" {
		return 0, &ValidationError{Row: row, Field: field, Err: ErrMissingField}
	}
	v, err := strconv.Atoi(n.String())
	if err != nil {
		return 0, &ValidationError{Row: row, Field: field, Err: fmt.Errorf("%w: %s", ErrNotInteger, n)}
	}
	return v, nil
}

// resolveIndices applies defaults and canonical ordering. Composite is only
// defined monthly: requesting it at another scale is an error, while a
// default list silently drops it.
func resolveIndices(requested []IndexKind, defaults []IndexKind, scale Scale) ([]IndexKind, error) {
	explicit := len(requested) > 0
	if !explicit {
		requested = defaults
	}

	want := make(map[IndexKind]bool, len(requested))
	for _, k := range requested {
		parsed, err := ParseIndexKind(string(k))
		if err != nil {
			return nil, err
		}
		want[parsed] = true
	}

	if want[IndexComposite] && scale != ScaleMonthly {
		if explicit {
			return nil, fmt.Errorf("%w: got %s", ErrCompositeScale, scale)
		}
		delete(want, IndexComposite)
	}

	out := make([]IndexKind, 0, len(want))
	for _, k := range canonicalIndices {
		if want[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

// BuildReport validates a request and computes every requested index.
// Validation failures are returned before any computation runs.
func BuildReport(req SeriesRequest, opts ReportOptions) (IndexReport, error) {
	if strings.TrimSpace(req.StationID) == "" {
		return IndexReport{}, ErrNoStation
	}

	scale := opts.DefaultScale
	if req.Scale != "" {
		var err error
		if scale, err = ParseScale(req.Scale); err != nil {
			return IndexReport{}, err
		}
	}
	if scale == "" {
		scale = ScaleMonthly
	}

	indices, err := resolveIndices(req.Indices, opts.DefaultIndices, scale)
	if err != nil {
		return IndexReport{}, err
	}

	series, err := SeriesFromRecords(req.Observations)
	if err != nil {
		return IndexReport{}, fmt.Errorf("station %s: %w", req.StationID, err)
	}

	report := IndexReport{
		ID:           generateID(req.StationID, scale, indices, series),
		StationID:    req.StationID,
		Scale:        scale,
		Indices:      indices,
		Observations: series.Len(),
		Gaps:         series.Gaps(),
	}

	for _, k := range indices {
		start := time.Now()
		switch k {
		case IndexCZI:
			if report.CZI, err = CalculateCZI(series, scale); err != nil {
				return IndexReport{}, err
			}
		case IndexMCZI:
			if report.MCZI, err = CalculateMCZI(series, scale); err != nil {
				return IndexReport{}, err
			}
		case IndexComposite:
			input := series
			if opts.PETRatio > 0 {
				input = FillPET(series, opts.PETRatio)
			}
			if report.Composite, err = CalculateComposite(input); err != nil {
				return IndexReport{}, err
			}
		}
		if opts.OnIndex != nil {
			opts.OnIndex(k, time.Since(start))
		}
	}

	if report.CZI != nil && report.MCZI != nil {
		cmp := CompareIndices(report.CZI, report.MCZI)
		report.Comparison = &cmp
	}

	report.ProcessedAt = clock.Now().UTC()
	return report, nil
}

// generateID produces a deterministic report ID from the station, scale,
// requested indices and every observation, so that replaying a request
// yields the same ID.
func generateID(station string, scale Scale, indices []IndexKind, s Series) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%v", station, scale, indices)
	for _, o := range s.obs {
		fmt.Fprintf(&b, "|%d-%02d:%s:%s", o.Year, o.Month, formatOptional(o.Precipitation), formatOptional(o.PET))
	}
	return uuid.NewSHA1(reportNamespace, []byte(b.String())).String()
}

func formatOptional(p *float64) string {
	if p == nil {
		return "NA"
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}

// SerializeReport marshals a report into the sink-topic message form.
func SerializeReport(report IndexReport) (OutputEvent, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize index report: %w", err)
	}
	return OutputEvent{
		Key:   []byte(report.StationID),
		Value: data,
		Headers: map[string]string{
			"station_id":   report.StationID,
			"scale":        string(report.Scale),
			"processed_at": report.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
