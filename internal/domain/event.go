package domain

import (
	"context"
	"encoding/json"
	"time"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// IndexKind names a drought index a request can ask for.
type IndexKind string

const (
	IndexCZI       IndexKind = "czi"
	IndexMCZI      IndexKind = "mczi"
	IndexComposite IndexKind = "ci"
)

// ObservationRecord is the wire form of one observation. Year and month are
// json.Number so that non-integer values are rejected rather than truncated.
type ObservationRecord struct {
	Year          json.Number `json:"year"`
	Month         json.Number `json:"month"`
	Precipitation *float64    `json:"precipitation"`
	PET           *float64    `json:"potential_evapotranspiration,omitempty"`
}

// SeriesRequest is the source-topic payload: one station's monthly record
// and the indices to compute over it.
type SeriesRequest struct {
	StationID    string              `json:"station_id"`
	Scale        string              `json:"scale,omitempty"`
	Indices      []IndexKind         `json:"indices,omitempty"`
	Observations []ObservationRecord `json:"observations"`
}

// IndexReport is the domain-rich result for one request.
type IndexReport struct {
	ID           string            `json:"id"`
	StationID    string            `json:"station_id"`
	Scale        Scale             `json:"scale"`
	Indices      []IndexKind       `json:"indices"`
	Observations int               `json:"observations"`
	Gaps         []Gap             `json:"gaps,omitempty"`
	CZI          []IndexResult     `json:"czi,omitempty"`
	MCZI         []IndexResult     `json:"mczi,omitempty"`
	Composite    []CompositeResult `json:"composite,omitempty"`
	Comparison   *Comparison       `json:"comparison,omitempty"`
	ProcessedAt  time.Time         `json:"processed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// PeriodCounts reports how many periods of one index carry a value.
func (r IndexReport) PeriodCounts(kind IndexKind) (defined, undefined int) {
	count := func(v *float64) {
		if v != nil {
			defined++
		} else {
			undefined++
		}
	}
	switch kind {
	case IndexCZI:
		for _, p := range r.CZI {
			count(p.Value)
		}
	case IndexMCZI:
		for _, p := range r.MCZI {
			count(p.Value)
		}
	case IndexComposite:
		for _, p := range r.Composite {
			count(p.Value)
		}
	}
	return defined, undefined
}
