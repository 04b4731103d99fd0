package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/couchcryptid/drought-index-etl/internal/observability"
)

// IndexTransformer implements Transformer by computing drought indices with
// the domain package. It is also used directly by the HTTP API.
type IndexTransformer struct {
	opts    domain.ReportOptions
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewTransformer creates an IndexTransformer applying opts to every request.
func NewTransformer(opts domain.ReportOptions, metrics *observability.Metrics, logger *slog.Logger) *IndexTransformer {
	return &IndexTransformer{opts: opts, metrics: metrics, logger: logger}
}

// Transform parses a source-topic message and computes its report.
func (t *IndexTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.IndexReport, error) {
	req, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.IndexReport{}, err
	}
	if req.StationID == "" && len(raw.Key) > 0 {
		req.StationID = string(raw.Key)
	}
	return t.Compute(ctx, req)
}

// Compute validates req and builds its index report, recording per-index metrics.
func (t *IndexTransformer) Compute(_ context.Context, req domain.SeriesRequest) (domain.IndexReport, error) {
	timings := make(map[domain.IndexKind]time.Duration, 3)
	opts := t.opts
	opts.OnIndex = func(kind domain.IndexKind, elapsed time.Duration) {
		timings[kind] = elapsed
	}

	report, err := domain.BuildReport(req, opts)
	if err != nil {
		return domain.IndexReport{}, err
	}

	t.metrics.ObservationsProcessed.Add(float64(report.Observations))
	for _, kind := range report.Indices {
		defined, undefined := report.PeriodCounts(kind)
		t.metrics.ObserveIndex(string(kind), defined, undefined, timings[kind])
	}

	t.logger.Debug("index report computed",
		"station_id", report.StationID,
		"scale", report.Scale,
		"indices", report.Indices,
		"observations", report.Observations,
		"gaps", len(report.Gaps),
	)
	return report, nil
}
