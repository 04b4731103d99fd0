// Command genmock generates deterministic synthetic station series for tests
// and local runs. Monthly precipitation is drawn from a gamma distribution
// around a seasonal cycle and PET follows a sinusoid peaking in July. The same
// seed always produces the same series.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -station USW00013904 -start-year 1991 -years 30 -seed 7 \
//	  -missing 2003-07 -format json \
//	  -out internal/pipeline/testdata/station_request.json
package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/drought-index-etl/internal/adapter/table"
	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"gonum.org/v1/gonum/stat/distuv"
)

// Mean monthly precipitation (mm), January first.
var monthlyMean = [12]float64{62, 55, 78, 85, 98, 104, 96, 88, 80, 72, 70, 66}

type genConfig struct {
	station   string
	startYear int
	years     int
	seed      uint64
	withPET   bool
	missing   map[domain.PeriodKey]bool
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	station := flag.String("station", "SYNTH0001", "station id")
	startYear := flag.Int("start-year", 1991, "first year of the series")
	years := flag.Int("years", 30, "number of years")
	seed := flag.Uint64("seed", 1, "random seed")
	withPET := flag.Bool("pet", true, "include potential evapotranspiration")
	missing := flag.String("missing", "", "comma-separated YYYY-MM months left without values")
	format := flag.String("format", "csv", "output format: csv or json")
	out := flag.String("out", "", "output path (stdout when empty)")
	flag.Parse()

	if *years < 1 {
		return fmt.Errorf("years must be positive, got %d", *years)
	}
	gaps, err := parseMonths(*missing)
	if err != nil {
		return err
	}

	cfg := genConfig{station: *station, startYear: *startYear, years: *years, seed: *seed, withPET: *withPET, missing: gaps}
	obs := generate(cfg)

	var w io.Writer = os.Stdout
	if *out != "" {
		if err := os.MkdirAll(filepath.Dir(*out), 0o755); err != nil {
			return err
		}
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	switch *format {
	case "csv":
		err = writeCSV(w, obs)
	case "json":
		err = writeRequest(w, cfg.station, obs)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return err
	}

	return printStats(cfg.station, obs)
}

func parseMonths(s string) (map[domain.PeriodKey]bool, error) {
	out := map[domain.PeriodKey]bool{}
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse("2006-01", part)
		if err != nil {
			return nil, fmt.Errorf("missing month %q: %w", part, err)
		}
		out[domain.PeriodKey{Year: t.Year(), Period: int(t.Month())}] = true
	}
	return out, nil
}

func generate(cfg genConfig) []domain.Observation {
	src := rand.NewPCG(cfg.seed, cfg.seed^0x9e3779b97f4a7c15)
	obs := make([]domain.Observation, 0, cfg.years*12)
	for i := range cfg.years * 12 {
		year, month := cfg.startYear+i/12, i%12+1

		// Draw every month so that gaps do not shift the rest of the series.
		g := distuv.Gamma{Alpha: 2.5, Beta: 2.5 / monthlyMean[month-1], Src: src}
		p := math.Round(g.Rand()*10) / 10
		pet := math.Round((75+55*math.Cos(2*math.Pi*float64(month-7)/12))*10) / 10

		o := domain.Observation{Year: year, Month: month}
		if !cfg.missing[domain.PeriodKey{Year: year, Period: month}] {
			o.Precipitation = domain.Float(p)
			if cfg.withPET {
				o.PET = domain.Float(pet)
			}
		}
		obs = append(obs, o)
	}
	return obs
}

func writeCSV(w io.Writer, obs []domain.Observation) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{table.ColYear, table.ColMonth, table.ColPrecipitation, table.ColPET}); err != nil {
		return err
	}
	for _, o := range obs {
		rec := []string{strconv.Itoa(o.Year), strconv.Itoa(o.Month), cell(o.Precipitation), cell(o.PET)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func cell(v *float64) string {
	if v == nil {
		return "NA"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func toRecords(obs []domain.Observation) []domain.ObservationRecord {
	records := make([]domain.ObservationRecord, len(obs))
	for i, o := range obs {
		records[i] = domain.ObservationRecord{
			Year:          json.Number(strconv.Itoa(o.Year)),
			Month:         json.Number(strconv.Itoa(o.Month)),
			Precipitation: o.Precipitation,
			PET:           o.PET,
		}
	}
	return records
}

func writeRequest(w io.Writer, station string, obs []domain.Observation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(domain.SeriesRequest{StationID: station, Observations: toRecords(obs)})
}

// printStats runs the series through the report builder and prints the
// figures tests assert on.
func printStats(station string, obs []domain.Observation) error {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	req := domain.SeriesRequest{StationID: station, Observations: toRecords(obs)}
	report, err := domain.BuildReport(req, domain.ReportOptions{
		DefaultScale:   domain.ScaleMonthly,
		DefaultIndices: []domain.IndexKind{domain.IndexCZI, domain.IndexMCZI, domain.IndexComposite},
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stderr, "=== Stats for updating test assertions ===")
	fmt.Fprintf(os.Stderr, "Report ID: %s\n", report.ID)
	fmt.Fprintf(os.Stderr, "Observations: %d\n", report.Observations)
	for _, kind := range report.Indices {
		defined, undefined := report.PeriodCounts(kind)
		fmt.Fprintf(os.Stderr, "%s: defined=%d undefined=%d\n", strings.ToUpper(string(kind)), defined, undefined)
	}
	if c := report.Comparison; c != nil {
		fmt.Fprintf(os.Stderr, "Comparison: compared=%d agreement=%.3f max_abs_diff=%.3f\n",
			c.Summary.Compared, c.Summary.AgreementFraction, c.Summary.MaxAbsDifference)
	}
	return nil
}
