// Command validate checks station observation tables before they are fed to
// the drought index pipeline. For every file it verifies the table shape, the
// chronological order of the series, calendar coverage, and that the computed
// indices are well formed.
//
// Usage:
//
//	go run ./cmd/validate -scale monthly data/USW00013904.csv data/*.csv.gz
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/drought-index-etl/internal/adapter/table"
	"github.com/couchcryptid/drought-index-etl/internal/domain"
)

// minGroupValues is the smallest per-month sample that gives a defined index.
const minGroupValues = 2

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	scale := flag.String("scale", "monthly", "aggregation scale to check indices at")
	allowGaps := flag.Bool("allow-gaps", false, "do not fail on missing calendar months")
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}
	s, err := domain.ParseScale(*scale)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	code := 0
	for _, path := range flag.Args() {
		if !report(path, validateFile(path, s, *allowGaps)) {
			code = 1
		}
	}
	os.Exit(code)
}

// report prints the phase results for one file and reports whether all passed.
func report(path string, phases []*phase) bool {
	fmt.Printf("=== %s ===\n", path)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-32s %s\n", p.name, status)
	}
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}
	fmt.Println()
	return allPassed
}

func validateFile(path string, scale domain.Scale, allowGaps bool) []*phase {
	shape := &phase{name: "Table shape"}
	obs, err := table.OpenObservations(path)
	if err != nil {
		shape.errorf("%v", err)
		return []*phase{shape}
	}
	if len(obs) == 0 {
		shape.errorf("no data rows")
		return []*phase{shape}
	}

	order := &phase{name: "Series order"}
	series, err := domain.NewSeries(obs)
	if err != nil {
		order.errorf("%v", err)
		return []*phase{shape, order}
	}

	return []*phase{shape, order, validateCoverage(series, allowGaps), validateIndices(series, scale)}
}

// validateCoverage reports missing calendar months and calendar months with
// too few values for a defined index.
func validateCoverage(s domain.Series, allowGaps bool) *phase {
	p := &phase{name: "Coverage"}
	if !allowGaps {
		for _, g := range s.Gaps() {
			p.errorf("%d month(s) missing from %04d-%02d", g.Months, g.FromYear, g.FromMonth)
		}
	}
	for i, n := range s.MonthCounts() {
		if n < minGroupValues {
			p.errorf("%s has %d value(s), need at least %d", time.Month(i+1), n, minGroupValues)
		}
	}
	return p
}

// validateIndices computes CZI and MCZI and checks that every defined value
// is finite and carries the class of its value.
func validateIndices(s domain.Series, scale domain.Scale) *phase {
	p := &phase{name: fmt.Sprintf("Indices (%s)", scale)}

	czi, err := domain.CalculateCZI(s, scale)
	if err != nil {
		p.errorf("CZI: %v", err)
		return p
	}
	mczi, err := domain.CalculateMCZI(s, scale)
	if err != nil {
		p.errorf("MCZI: %v", err)
		return p
	}

	check := func(name string, rows []domain.IndexResult) {
		var defined int
		for _, r := range rows {
			if r.Value == nil {
				if r.Class != domain.ClassNoData {
					p.errorf("%s %d/%d: undefined value classed %q", name, r.Year, r.Period, r.Class)
				}
				continue
			}
			defined++
			if math.IsNaN(*r.Value) || math.IsInf(*r.Value, 0) {
				p.errorf("%s %d/%d: non-finite value", name, r.Year, r.Period)
			}
			if want := domain.Classify(*r.Value); r.Class != want {
				p.errorf("%s %d/%d: class %q, want %q", name, r.Year, r.Period, r.Class, want)
			}
		}
		if defined == 0 {
			p.errorf("%s: no period has a defined value", name)
		}
	}
	check("CZI", czi)
	check("MCZI", mczi)

	cmp := domain.CompareIndices(czi, mczi)
	fmt.Printf("  %d periods, %d compared, agreement %.1f%%\n",
		cmp.Summary.Aligned, cmp.Summary.Compared, 100*cmp.Summary.AgreementFraction)
	return p
}
