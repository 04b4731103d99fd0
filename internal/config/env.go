package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	minBatchSize = 1
	maxBatchSize = 1000
)

// envOrDefault returns the value of key, or fallback when unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseBrokers splits a comma-separated broker list, dropping empty entries.
func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// parsePositiveDuration reads a duration that must be greater than zero.
func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, raw)
	}
	return d, nil
}

func parseBatchSize() (int, error) {
	raw := envOrDefault("BATCH_SIZE", "50")
	n, err := strconv.Atoi(raw)
	if err != nil || n < minBatchSize || n > maxBatchSize {
		return 0, fmt.Errorf("invalid BATCH_SIZE %q: must be between %d and %d", raw, minBatchSize, maxBatchSize)
	}
	return n, nil
}

// parseRatio reads a float in [lo, hi].
func parseRatio(key, fallback string, lo, hi float64) (float64, error) {
	raw := envOrDefault(key, fallback)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < lo || v > hi {
		return 0, fmt.Errorf("invalid %s %q: must be between %g and %g", key, raw, lo, hi)
	}
	return v, nil
}

func parseNonNegativeInt(key, fallback string) (int, error) {
	raw := envOrDefault(key, fallback)
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, raw)
	}
	return n, nil
}
