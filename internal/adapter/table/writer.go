package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/couchcryptid/drought-index-etl/internal/domain"
)

// Output column headers.
var (
	compositeHeader = []string{
		"year", "period", "precipitation", ColPET,
		"SPI_1month", "SPI_3month", "Moisture_Index", "Composite_Index", "Drought_Class",
	}
	comparisonHeader = []string{
		"year", "period", "CZI", "MCZI", "CZI_Drought_Class", "MCZI_Drought_Class", "difference", "agreement",
	}
)

// IndexColumn is the value column name of a single-index table.
func IndexColumn(kind domain.IndexKind) (string, error) {
	switch kind {
	case domain.IndexCZI:
		return "CZI", nil
	case domain.IndexMCZI:
		return "MCZI", nil
	}
	return "", fmt.Errorf("%w: no single-index table for %q", domain.ErrUnknownIndex, kind)
}

// WriteIndexCSV writes year,period,precipitation,<CZI|MCZI>,Drought_Class rows.
func WriteIndexCSV(w io.Writer, kind domain.IndexKind, rows []domain.IndexResult) error {
	col, err := IndexColumn(kind)
	if err != nil {
		return err
	}
	return writeCSV(w, []string{"year", "period", "precipitation", col, "Drought_Class"}, len(rows), func(i int) []string {
		r := rows[i]
		return []string{itoa(r.Year), itoa(r.Period), formatValue(r.Precipitation), formatValue(r.Value), string(r.Class)}
	})
}

// WriteCompositeCSV writes the composite index with its input terms.
func WriteCompositeCSV(w io.Writer, rows []domain.CompositeResult) error {
	return writeCSV(w, compositeHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			itoa(r.Year), itoa(r.Month),
			formatValue(r.Precipitation), formatValue(r.PET),
			formatValue(r.SPI1), formatValue(r.SPI3), formatValue(r.Moisture), formatValue(r.Value),
			string(r.Class),
		}
	})
}

// WriteComparisonCSV writes a CZI/MCZI comparison, CZI as the first index.
func WriteComparisonCSV(w io.Writer, rows []domain.ComparisonRow) error {
	return writeCSV(w, comparisonHeader, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			itoa(r.Year), itoa(r.Period),
			formatValue(r.A), formatValue(r.B),
			string(r.ClassA), string(r.ClassB),
			formatValue(r.Difference), strconv.FormatBool(r.Agreement),
		}
	})
}

func writeCSV(w io.Writer, header []string, n int, row func(i int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := range n {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatValue renders an undefined value as an empty cell.
func formatValue(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func itoa(n int) string { return strconv.Itoa(n) }
