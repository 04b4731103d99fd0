package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/drought-index-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Index defaults applied when a request leaves scale or indices empty.
	DefaultScale   domain.Scale
	DefaultIndices []domain.IndexKind
	// PETRatio fills missing potential evapotranspiration as PETRatio·P. Zero disables it.
	PETRatio float64

	// ReportCacheSize bounds the HTTP report cache. Zero disables it.
	ReportCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parsePositiveDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := parsePositiveDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	scale, err := domain.ParseScale(envOrDefault("DEFAULT_SCALE", "monthly"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_SCALE: %w", err)
	}

	indices, err := domain.ParseIndexList(envOrDefault("DEFAULT_INDICES", "czi,mczi,ci"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_INDICES: %w", err)
	}

	petRatio, err := parseRatio("PET_FALLBACK_RATIO", "0", 0, 2)
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseNonNegativeInt("REPORT_CACHE_SIZE", "256")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "precipitation-series"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "drought-indices"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "drought-index-etl"),
		HTTPAddr:           envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		LogFormat:          envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		DefaultScale:       scale,
		DefaultIndices:     indices,
		PETRatio:           petRatio,
		ReportCacheSize:    cacheSize,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if len(cfg.DefaultIndices) == 0 {
		return nil, errors.New("DEFAULT_INDICES must name at least one index")
	}

	return cfg, nil
}

// ReportOptions converts the index defaults into the form BuildReport takes.
func (c *Config) ReportOptions() domain.ReportOptions {
	return domain.ReportOptions{
		DefaultScale:   c.DefaultScale,
		DefaultIndices: c.DefaultIndices,
		PETRatio:       c.PETRatio,
	}
}
