package main

import (
	"bytes"
	"testing"

	"github.com/couchcryptid/drought-index-etl/internal/adapter/table"
	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Deterministic(t *testing.T) {
	cfg := genConfig{station: "S", startYear: 2000, years: 3, seed: 42, withPET: true}
	a := generate(cfg)
	b := generate(cfg)
	assert.Equal(t, a, b)

	cfg.seed = 43
	assert.NotEqual(t, a, generate(cfg))
}

func TestGenerate_MissingMonthKeepsRestOfSeries(t *testing.T) {
	gaps, err := parseMonths("2001-07, 2002-01")
	require.NoError(t, err)

	full := generate(genConfig{startYear: 2000, years: 3, seed: 7, withPET: true})
	holed := generate(genConfig{startYear: 2000, years: 3, seed: 7, withPET: true, missing: gaps})
	require.Len(t, holed, 36)

	for i := range full {
		switch i {
		case 18, 24:
			assert.Nil(t, holed[i].Precipitation)
			assert.Nil(t, holed[i].PET)
		default:
			assert.Equal(t, full[i], holed[i])
		}
	}

	_, err = domain.NewSeries(holed)
	assert.NoError(t, err)
}

func TestParseMonths_Invalid(t *testing.T) {
	_, err := parseMonths("2001-13")
	assert.Error(t, err)
}

func TestWriteCSV_ReadsBack(t *testing.T) {
	gaps, err := parseMonths("2000-02")
	require.NoError(t, err)
	obs := generate(genConfig{startYear: 2000, years: 2, seed: 1, withPET: false, missing: gaps})

	var buf bytes.Buffer
	require.NoError(t, writeCSV(&buf, obs))

	got, err := table.ReadObservations(&buf)
	require.NoError(t, err)
	assert.Equal(t, obs, got)
}
