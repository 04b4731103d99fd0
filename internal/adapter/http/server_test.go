package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/couchcryptid/drought-index-etl/internal/adapter/http"
	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/couchcryptid/drought-index-etl/internal/observability"
	"github.com/couchcryptid/drought-index-etl/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func newTestServer(readyErr error) *httpadapter.Server {
	computer := pipeline.NewTransformer(domain.ReportOptions{
		DefaultScale:   domain.ScaleMonthly,
		DefaultIndices: []domain.IndexKind{domain.IndexCZI, domain.IndexMCZI, domain.IndexComposite},
	}, observability.NewMetricsForTesting(), slog.Default())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, computer, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestIndicesComputesReport(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/indices", strings.NewReader(seriesBody("ST-1", "", 24)))

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report domain.IndexReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "ST-1", report.StationID)
	assert.Equal(t, domain.ScaleMonthly, report.Scale)
	assert.Len(t, report.CZI, 24)
	assert.Len(t, report.MCZI, 24)
	assert.NotNil(t, report.Comparison)
}

func TestIndicesRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		errPart string
	}{
		{"malformed JSON", `{"station_id":`, "unexpected EOF"},
		{"unknown scale", seriesBody("ST-1", "weekly", 12), "unknown scale"},
		{"missing station", seriesBody("", "", 12), "station_id"},
		{"month out of range", `{"station_id":"X","observations":[{"year":2000,"month":0,"precipitation":1}]}`, "month"},
		{"fractional year", `{"station_id":"X","observations":[{"year":2000.5,"month":1,"precipitation":1}]}`, "not an integer"},
		{"negative precipitation", `{"station_id":"X","observations":[{"year":2000,"month":1,"precipitation":-4}]}`, "negative"},
	}

	srv := newTestServer(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/v1/indices", strings.NewReader(tt.body))

			srv.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body["error"], tt.errPart)
		})
	}
}

func TestIndicesRejectsGet(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/indices", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func seriesBody(station, scale string, months int) string {
	var b strings.Builder
	fmt.Fprintf(&b, `{"station_id":%q,"scale":%q,"observations":[`, station, scale)
	for i := range months {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"year":%d,"month":%d,"precipitation":%d,"potential_evapotranspiration":30}`,
			2010+i/12, i%12+1, 10+(i*17)%60)
	}
	b.WriteString("]}")
	return b.String()
}
