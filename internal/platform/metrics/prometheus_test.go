package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsManager_Counters(t *testing.T) {
	m := NewMetricsManager("account_service")

	m.IncRegistration()
	m.IncLogin(ResultSuccess)
	m.IncLogin(ResultRejected)
	m.IncLogin(ResultRejected)
	m.IncResetRequest(ResultSuccess)
	m.IncReset(ResultError)
	m.ObserveHTTP("POST", "/api/login", "200", 15*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues(ResultRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LoginsTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PasswordResetRequestTotal.WithLabelValues(ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PasswordResetsTotal.WithLabelValues(ResultError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/login", "200")))
}

func TestMetricsManager_NilSafe(t *testing.T) {
	var m *MetricsManager
	assert.NotPanics(t, func() {
		m.IncRegistration()
		m.IncLogin(ResultSuccess)
		m.IncResetRequest(ResultRejected)
		m.IncReset(ResultSuccess)
		m.ObserveHTTP("GET", "/", "200", time.Millisecond)
	})
}

func TestMetricsManager_Exposition(t *testing.T) {
	m := NewMetricsManager("account_service")
	m.IncLogin(ResultSuccess)

	rec := httptest.NewRecorder()
	promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `account_service_logins_total{result="success"} 1`))
}

func TestServer_DisabledWithoutPort(t *testing.T) {
	s := NewServer("", logger.NewNop(), NewMetricsManager("x").Registry)
	assert.Nil(t, s)
	assert.NoError(t, s.Start())
	assert.NoError(t, s.Shutdown(context.Background()))
}
