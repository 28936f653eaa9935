package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSchedulerRun(t *testing.T) {
	m := NewMetricsService()

	m.ObserveSchedulerRun("section", 10, 10, time.Millisecond)
	m.ObserveSchedulerRun("section", 7, 10, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runTotal.WithLabelValues("section", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runTotal.WithLabelValues("section", "partial")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.unplaced.WithLabelValues("section")))
}

func TestMetricsServiceCacheRatio(t *testing.T) {
	m := NewMetricsService()

	m.RecordCacheOperation(true, time.Millisecond)
	m.RecordCacheOperation(false, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	assert.InDelta(t, 2.0/3.0, testutil.ToFloat64(m.cacheHitRatio), 0.0001)
}

func TestMetricsServiceHandler(t *testing.T) {
	m := NewMetricsService()
	m.ObserveHTTPRequest(http.MethodGet, "/api/v1/courses", http.StatusOK, time.Millisecond)
	m.RecordBulkYearLevel(false)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), `scheduler_bulk_year_levels_total{status="failed"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveSchedulerRun("section", 1, 2, time.Millisecond)
	m.RecordCacheOperation(true, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
