package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/auth-service/internal/config"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	m := NewMetrics(nil)

	m.RecordRequest("/api/v1/auth/login", http.MethodPost, 200, 20*time.Millisecond)
	m.RecordRequest("/api/v1/auth/login", http.MethodPost, 200, 10*time.Millisecond)
	m.RecordError("/api/v1/auth/login", http.MethodPost, "BAD_CREDENTIALS")
	m.RecordAuthEvent("login_failed")
	m.SetBreakerState("redis-audit", 2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.TotalRequests.WithLabelValues("/api/v1/auth/login", http.MethodPost, "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ErrorTotal.WithLabelValues("/api/v1/auth/login", http.MethodPost, "BAD_CREDENTIALS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthEvents.WithLabelValues("login_failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("redis-audit")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "auth_http_requests_total")
	assert.Contains(t, string(body), `auth_events_total{type="login_failed"} 1`)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest("/", http.MethodGet, 200, time.Millisecond)
		m.RecordError("/", http.MethodGet, "X")
		m.RecordAuthEvent("login_succeeded")
		m.SetBreakerState("x", 0)
	})
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "loud"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(0))
	assert.False(t, logger.Core().Enabled(-1))
}
