package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

func TestObserveLoginAndRegister(t *testing.T) {
	m := newTestMetrics()

	m.ObserveLogin(LoginSuccess)
	m.ObserveLogin(LoginSuccess)
	m.ObserveLogin(LoginRejected)
	m.ObserveRegister(RegisterRejected)
	m.ObserveLogout()

	require.Equal(t, 2.0, testutil.ToFloat64(m.Logins.WithLabelValues(LoginSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues(LoginRejected)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Registrations.WithLabelValues(RegisterRejected)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.Logouts))
}

func TestObserveSweep(t *testing.T) {
	m := newTestMetrics()

	m.ObserveSweep(3, nil)
	m.ObserveSweep(0, nil)
	m.ObserveSweep(0, errors.New("down"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.ReaperSweeps.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ReaperSweeps.WithLabelValues("error")))
	require.Equal(t, 3.0, testutil.ToFloat64(m.ReapedSessions))
}

func TestObserveHTTP(t *testing.T) {
	m := newTestMetrics()
	m.ObserveHTTP(http.MethodGet, http.StatusOK, 20*time.Millisecond)

	require.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveLogin(LoginSuccess)
	m.ObserveRegister(RegisterSuccess)
	m.ObserveLogout()
	m.ObserveSweep(1, nil)
	m.ObserveHTTP(http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.ObserveLogin(LoginSuccess)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.True(t, strings.Contains(body, `board_logins_total{outcome="success"} 1`), body)
	require.Contains(t, body, "go_goroutines")
}
