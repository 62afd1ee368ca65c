package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceSnapshot(t *testing.T) {
	metrics := NewMetricsService()
	metrics.ObserveHTTPRequest(http.MethodGet, "/api/v1/terms/:id/timetable", http.StatusOK, 5*time.Millisecond)
	metrics.RecordReschedule("reschedule", "success", 2)
	metrics.RecordReschedule("reschedule", "conflict", 0)
	metrics.RecordReschedule("undo", "success", 1)
	metrics.ObserveConflicts(0)
	metrics.ObserveConflicts(3)

	snapshot := metrics.Snapshot()
	assert.Equal(t, uint64(1), snapshot.RequestsTotal)
	assert.Equal(t, uint64(1), snapshot.Reschedules)
	assert.Equal(t, uint64(1), snapshot.Undos)
	assert.Equal(t, uint64(1), snapshot.ConflictingHints)
	assert.Zero(t, snapshot.CacheHitRatio)
}

func TestMetricsServiceHandlerExposesCollectors(t *testing.T) {
	metrics := NewMetricsService()
	metrics.RecordReschedule("undo", "rejected", 0)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `timetable_reschedule_total{operation="undo",outcome="rejected"} 1`)
}

func TestMetricsServiceNilSafe(t *testing.T) {
	var metrics *MetricsService
	metrics.RecordReschedule("reschedule", "success", 1)
	metrics.ObserveDBQuery("occurrences.list", time.Millisecond)
	assert.Zero(t, metrics.Snapshot().Reschedules)

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
