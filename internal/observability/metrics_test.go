package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	m.ObserveHTTP(http.MethodGet, "/api/roles", http.StatusOK, 25*time.Millisecond)
	m.ObserveBind("ok")
	m.ObserveBind("error")
	m.ObserveDiscard("bind")
	m.ObservePermission("roles:create", false)
	m.ObserveLogin("success")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/roles", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionBinds.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionBinds.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionDiscards.WithLabelValues("bind")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PermissionChecks.WithLabelValues("roles:create", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTP(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.ObserveBind("ok")
		m.ObserveDiscard("panic")
		m.ObservePermission("x", true)
		m.ObserveLogin("failure")
	})
}

func TestHandler(t *testing.T) {
	reg, m := NewRegistry()
	m.ObserveBind("ok")

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `tenancy_session_binds_total{result="ok"} 1`))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}

func TestNewLogger(t *testing.T) {
	t.Run("json logger", func(t *testing.T) {
		logger, err := NewLogger("info", "json")
		require.NoError(t, err)
		require.NotNil(t, logger)
		_ = logger.Sync()
	})

	t.Run("console logger", func(t *testing.T) {
		logger, err := NewLogger("debug", "console")
		require.NoError(t, err)
		require.NotNil(t, logger)
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := NewLogger("loud", "json")
		assert.Error(t, err)
	})
}
