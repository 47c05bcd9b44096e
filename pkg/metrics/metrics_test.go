package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/kpis/{session}", http.StatusOK, 20*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/kpis/{session}", http.StatusOK, 5*time.Millisecond)
	m.ObserveNormalization("ok")
	m.ObserveRows(10, 2, 3)
	m.ObservePurge(4, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/kpis/{session}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.normalizations.WithLabelValues("ok")))
	assert.Equal(t, 10.0, testutil.ToFloat64(m.normalizedRows.WithLabelValues("kept")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.normalizedRows.WithLabelValues("invalid")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.sessionsPurged.WithLabelValues("session")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", 200, time.Second)
		m.ObserveNormalization("ok")
		m.ObserveRows(1, 1, 1)
		m.ObservePurge(1, 1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveNormalization("decode_error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `sheet_insights_normalizations_total{result="decode_error"} 1`)
}
