package table

import (
	"io"

	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/parquet-go/parquet-go"
)

// Parquet rows mirror the CSV columns. Pointer fields are optional columns,
// so undefined values are written as null.

type cziRow struct {
	Year          int64    `parquet:"year"`
	Period        int64    `parquet:"period"`
	Precipitation *float64 `parquet:"precipitation"`
	CZI           *float64 `parquet:"CZI"`
	DroughtClass  string   `parquet:"Drought_Class"`
}

type mcziRow struct {
	Year          int64    `parquet:"year"`
	Period        int64    `parquet:"period"`
	Precipitation *float64 `parquet:"precipitation"`
	MCZI          *float64 `parquet:"MCZI"`
	DroughtClass  string   `parquet:"Drought_Class"`
}

type compositeRow struct {
	Year           int64    `parquet:"year"`
	Period         int64    `parquet:"period"`
	Precipitation  *float64 `parquet:"precipitation"`
	PET            *float64 `parquet:"potential_evapotranspiration"`
	SPI1           *float64 `parquet:"SPI_1month"`
	SPI3           *float64 `parquet:"SPI_3month"`
	MoistureIndex  *float64 `parquet:"Moisture_Index"`
	CompositeIndex *float64 `parquet:"Composite_Index"`
	DroughtClass   string   `parquet:"Drought_Class"`
}

type comparisonRow struct {
	Year             int64    `parquet:"year"`
	Period           int64    `parquet:"period"`
	CZI              *float64 `parquet:"CZI"`
	MCZI             *float64 `parquet:"MCZI"`
	CZIDroughtClass  string   `parquet:"CZI_Drought_Class"`
	MCZIDroughtClass string   `parquet:"MCZI_Drought_Class"`
	Difference       *float64 `parquet:"difference"`
	Agreement        bool     `parquet:"agreement"`
}

// WriteIndexParquet writes a CZI or MCZI table as Parquet.
func WriteIndexParquet(w io.Writer, kind domain.IndexKind, rows []domain.IndexResult) error {
	if _, err := IndexColumn(kind); err != nil {
		return err
	}
	if kind == domain.IndexMCZI {
		out := make([]mcziRow, len(rows))
		for i, r := range rows {
			out[i] = mcziRow{Year: int64(r.Year), Period: int64(r.Period), Precipitation: r.Precipitation, MCZI: r.Value, DroughtClass: string(r.Class)}
		}
		return parquet.Write(w, out)
	}
	out := make([]cziRow, len(rows))
	for i, r := range rows {
		out[i] = cziRow{Year: int64(r.Year), Period: int64(r.Period), Precipitation: r.Precipitation, CZI: r.Value, DroughtClass: string(r.Class)}
	}
	return parquet.Write(w, out)
}

// WriteCompositeParquet writes the composite table as Parquet.
func WriteCompositeParquet(w io.Writer, rows []domain.CompositeResult) error {
	out := make([]compositeRow, len(rows))
	for i, r := range rows {
		out[i] = compositeRow{
			Year:           int64(r.Year),
			Period:         int64(r.Month),
			Precipitation:  r.Precipitation,
			PET:            r.PET,
			SPI1:           r.SPI1,
			SPI3:           r.SPI3,
			MoistureIndex:  r.Moisture,
			CompositeIndex: r.Value,
			DroughtClass:   string(r.Class),
		}
	}
	return parquet.Write(w, out)
}

// WriteComparisonParquet writes a CZI/MCZI comparison as Parquet.
func WriteComparisonParquet(w io.Writer, rows []domain.ComparisonRow) error {
	out := make([]comparisonRow, len(rows))
	for i, r := range rows {
		out[i] = comparisonRow{
			Year:             int64(r.Year),
			Period:           int64(r.Period),
			CZI:              r.A,
			MCZI:             r.B,
			CZIDroughtClass:  string(r.ClassA),
			MCZIDroughtClass: string(r.ClassB),
			Difference:       r.Difference,
			Agreement:        r.Agreement,
		}
	}
	return parquet.Write(w, out)
}
