// Package table reads observation tables and writes index result tables.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/klauspost/pgzip"
)

// Column names of an observation table.
const (
	ColYear          = "year"
	ColMonth         = "month"
	ColPrecipitation = "precipitation"
	ColPET           = "potential_evapotranspiration"
)

var (
	ErrMissingColumn = errors.New("missing required column")
	ErrInvalidCell   = errors.New("invalid cell")
)

// missingTokens are cell values read as a missing measurement.
var missingTokens = map[string]bool{"": true, "na": true, "nan": true, "null": true}

// CellError locates a cell that could not be parsed.
type CellError struct {
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *CellError) Error() string {
	return fmt.Sprintf("line %d: column %s: %q: %v", e.Line, e.Column, e.Value, e.Err)
}

func (e *CellError) Unwrap() error { return e.Err }

// OpenObservations reads an observation table from path. Files ending in .gz
// are decompressed in parallel.
func OpenObservations(path string) ([]domain.Observation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := pgzip.NewReaderN(f, 256*1024, runtime.NumCPU())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	obs, err := ReadObservations(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return obs, nil
}

// ReadObservations parses a CSV observation table with a header row. Column
// order is free and names are matched case-insensitively. Extra columns are
// ignored. Rows are returned as read; ordering is checked by domain.NewSeries.
func ReadObservations(r io.Reader) ([]domain.Observation, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, ColYear)
		}
		return nil, err
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		cols[h] = i
	}
	for _, name := range []string{ColYear, ColMonth, ColPrecipitation} {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	_, hasPET := cols[ColPET]

	var out []domain.Observation
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		line, _ := cr.FieldPos(0)
		row := tableRow{line: line, cols: cols, rec: rec}

		var o domain.Observation
		if o.Year, err = row.integer(ColYear); err != nil {
			return nil, err
		}
		if o.Month, err = row.integer(ColMonth); err != nil {
			return nil, err
		}
		if o.Precipitation, err = row.measurement(ColPrecipitation); err != nil {
			return nil, err
		}
		if hasPET {
			if o.PET, err = row.measurement(ColPET); err != nil {
				return nil, err
			}
		}
		out = append(out, o)
	}
	return out, nil
}

type tableRow struct {
	line int
	cols map[string]int
	rec  []string
}

// value returns the trimmed cell of a column. A short row reads as empty.
func (r tableRow) value(col string) string {
	idx := r.cols[col]
	if idx >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[idx])
}

func (r tableRow) fail(col, v string, err error) error {
	return &CellError{Line: r.line, Column: col, Value: v, Err: fmt.Errorf("%w: %v", ErrInvalidCell, err)}
}

func (r tableRow) integer(col string) (int, error) {
	v := r.value(col)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, r.fail(col, v, errors.New("not an integer"))
	}
	return n, nil
}

// measurement parses a precipitation or PET cell; missing tokens give nil.
func (r tableRow) measurement(col string) (*float64, error) {
	v := r.value(col)
	if missingTokens[strings.ToLower(v)] {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsInf(f, 0) {
		return nil, r.fail(col, v, errors.New("not a number"))
	}
	return &f, nil
}
