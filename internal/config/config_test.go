package config

import (
	"testing"
	"time"

	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "precipitation-series", cfg.KafkaSourceTopic)
	assert.Equal(t, "drought-indices", cfg.KafkaSinkTopic)
	assert.Equal(t, "drought-index-etl", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)
	assert.Equal(t, domain.ScaleMonthly, cfg.DefaultScale)
	assert.Equal(t, []domain.IndexKind{domain.IndexCZI, domain.IndexMCZI, domain.IndexComposite}, cfg.DefaultIndices)
	assert.Zero(t, cfg.PETRatio)
	assert.Equal(t, 256, cfg.ReportCacheSize)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("DEFAULT_SCALE", "seasonal")
	t.Setenv("DEFAULT_INDICES", "mczi")
	t.Setenv("PET_FALLBACK_RATIO", "0.75")
	t.Setenv("REPORT_CACHE_SIZE", "0")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, domain.ScaleSeasonal, cfg.DefaultScale)
	assert.Equal(t, []domain.IndexKind{domain.IndexMCZI}, cfg.DefaultIndices)
	assert.Equal(t, 0.75, cfg.PETRatio)
	assert.Zero(t, cfg.ReportCacheSize)

	opts := cfg.ReportOptions()
	assert.Equal(t, domain.ScaleSeasonal, opts.DefaultScale)
	assert.Equal(t, 0.75, opts.PETRatio)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration"},
		{"SHUTDOWN_TIMEOUT", "-1s"},
		{"BATCH_SIZE", "0"},
		{"BATCH_SIZE", "9999"},
		{"BATCH_SIZE", "ten"},
		{"BATCH_FLUSH_INTERVAL", "not-a-duration"},
		{"DEFAULT_SCALE", "weekly"},
		{"DEFAULT_INDICES", "czi,pdsi"},
		{"DEFAULT_INDICES", ","},
		{"PET_FALLBACK_RATIO", "-0.1"},
		{"PET_FALLBACK_RATIO", "3"},
		{"KAFKA_BROKERS", " , "},
		{"REPORT_CACHE_SIZE", "-5"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}
