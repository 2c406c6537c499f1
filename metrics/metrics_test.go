package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObservers(t *testing.T) {
	m := New()

	m.ObserveUpload(3, 1)
	m.ObserveUpload(2, 0)
	m.ObserveArchiveFailure()
	m.ObserveGeneration("success", 2*time.Second)
	m.ObserveGeneration("InsufficientDataError", time.Millisecond)
	m.ObserveScheduledRun("skipped")
	m.ObserveRequest("GET", "/forecasts/:productId", 404, time.Millisecond)

	assert.Equal(t, 5.0, testutil.ToFloat64(m.uploadRows.WithLabelValues("accepted")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.uploadRows.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.archiveFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.generations.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.scheduledRuns.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/forecasts/:productId", "404")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveGeneration("success", time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `inventory_forecasting_forecast_generations_total{outcome="success"} 1`)
}
