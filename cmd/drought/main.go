// Command drought computes drought indices for station observation tables.
//
// Each input is a CSV table (optionally gzip-compressed) with year, month,
// precipitation and optional potential_evapotranspiration columns. One result
// table is written per input, named <stem>_<index>.<csv|parquet>.
//
// Usage:
//
//	go run ./cmd/drought -index mczi -scale seasonal -format parquet -out out/ data/*.csv.gz
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/drought-index-etl/internal/adapter/table"
	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/couchcryptid/drought-index-etl/internal/observability"
	"github.com/schollz/progressbar/v3"
)

const indexCompare = "compare"

type options struct {
	index    string
	scale    domain.Scale
	format   string
	outDir   string
	petRatio float64
}

func main() {
	index := flag.String("index", "czi", "index to compute: czi, mczi, ci or compare")
	scale := flag.String("scale", "monthly", "aggregation scale: monthly, seasonal or annual")
	format := flag.String("format", "csv", "output format: csv or parquet")
	outDir := flag.String("out", ".", "output directory")
	petRatio := flag.Float64("pet-ratio", 0, "fill missing PET as ratio*precipitation (0 disables)")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := observability.NewLogger(*logLevel, "text")

	opts, err := parseOptions(*index, *scale, *format, *outDir, *petRatio)
	if err == nil && flag.NArg() == 0 {
		err = errors.New("no input files")
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
		logger.Error("create output directory", "error", err)
		os.Exit(1)
	}

	if failed := run(flag.Args(), opts, logger); failed > 0 {
		logger.Error("some inputs failed", "failed", failed, "total", flag.NArg())
		os.Exit(1)
	}
}

func parseOptions(index, scale, format, outDir string, petRatio float64) (options, error) {
	opts := options{
		index:    strings.ToLower(strings.TrimSpace(index)),
		format:   strings.ToLower(strings.TrimSpace(format)),
		outDir:   outDir,
		petRatio: petRatio,
	}

	s, err := domain.ParseScale(scale)
	if err != nil {
		return options{}, err
	}
	opts.scale = s

	if opts.index != indexCompare {
		kind, err := domain.ParseIndexKind(opts.index)
		if err != nil {
			return options{}, err
		}
		if kind == domain.IndexComposite && s != domain.ScaleMonthly {
			return options{}, domain.ErrCompositeScale
		}
		opts.index = string(kind)
	}
	if opts.format != "csv" && opts.format != "parquet" {
		return options{}, fmt.Errorf("unknown format %q", format)
	}
	if petRatio < 0 || petRatio > 2 {
		return options{}, fmt.Errorf("pet-ratio %g outside [0, 2]", petRatio)
	}
	return opts, nil
}

// run processes every input and returns how many failed.
func run(paths []string, opts options, logger *slog.Logger) int {
	bar := progressbar.Default(int64(len(paths)), "computing "+opts.index)
	var failed int
	for _, path := range paths {
		out, err := processFile(path, opts, logger.With("path", path))
		if err != nil {
			failed++
			logger.Error("process table", "path", path, "error", err)
		} else {
			logger.Debug("wrote table", "path", path, "out", out)
		}
		_ = bar.Add(1)
	}
	return failed
}

func processFile(path string, opts options, logger *slog.Logger) (string, error) {
	obs, err := table.OpenObservations(path)
	if err != nil {
		return "", err
	}
	series, err := domain.NewSeries(obs)
	if err != nil {
		return "", err
	}

	out := filepath.Join(opts.outDir, stem(path)+"_"+opts.index+"."+opts.format)
	f, err := os.Create(out)
	if err != nil {
		return "", err
	}
	if err := writeIndex(f, series, opts, logger); err != nil {
		_ = f.Close()
		_ = os.Remove(out)
		return "", err
	}
	return out, f.Close()
}

func writeIndex(w io.Writer, series domain.Series, opts options, logger *slog.Logger) error {
	parquet := opts.format == "parquet"

	switch opts.index {
	case indexCompare:
		czi, err := domain.CalculateCZI(series, opts.scale)
		if err != nil {
			return err
		}
		mczi, err := domain.CalculateMCZI(series, opts.scale)
		if err != nil {
			return err
		}
		cmp := domain.CompareIndices(czi, mczi)
		logger.Info("index comparison",
			"scale", opts.scale,
			"aligned", cmp.Summary.Aligned,
			"compared", cmp.Summary.Compared,
			"agreement_fraction", cmp.Summary.AgreementFraction,
			"mean_abs_difference", cmp.Summary.MeanAbsDifference,
			"max_abs_difference", cmp.Summary.MaxAbsDifference,
		)
		if parquet {
			return table.WriteComparisonParquet(w, cmp.Rows)
		}
		return table.WriteComparisonCSV(w, cmp.Rows)

	case string(domain.IndexComposite):
		if opts.petRatio > 0 {
			series = domain.FillPET(series, opts.petRatio)
		}
		rows, err := domain.CalculateComposite(series)
		if err != nil {
			return err
		}
		if parquet {
			return table.WriteCompositeParquet(w, rows)
		}
		return table.WriteCompositeCSV(w, rows)
	}

	kind := domain.IndexKind(opts.index)
	calc := domain.CalculateCZI
	if kind == domain.IndexMCZI {
		calc = domain.CalculateMCZI
	}
	rows, err := calc(series, opts.scale)
	if err != nil {
		return err
	}
	if parquet {
		return table.WriteIndexParquet(w, kind, rows)
	}
	return table.WriteIndexCSV(w, kind, rows)
}

// stem strips the directory and table extensions from path.
func stem(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, ".gz")
	return strings.TrimSuffix(base, filepath.Ext(base))
}
