package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Abdurahmanit/GroupProject/account-service/internal/platform/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Result label values shared by the account counters.
const (
	ResultSuccess  = "success"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// MetricsManager holds the service's Prometheus collectors on a private registry.
type MetricsManager struct {
	Registry *prometheus.Registry

	RegistrationsTotal        prometheus.Counter
	LoginsTotal               *prometheus.CounterVec
	PasswordResetRequestTotal *prometheus.CounterVec
	PasswordResetsTotal       *prometheus.CounterVec
	HTTPRequestsTotal         *prometheus.CounterVec
	HTTPRequestDuration       *prometheus.HistogramVec
}

// NewMetricsManager creates and registers the collectors under the given namespace.
func NewMetricsManager(namespace string) *MetricsManager {
	registry := prometheus.NewRegistry()

	m := &MetricsManager{
		Registry: registry,
		RegistrationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Total number of accounts registered.",
		}),
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result.",
		}, []string{"result"}),
		PasswordResetRequestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_reset_requests_total",
			Help:      "Forgot-password requests by result.",
		}, []string{"result"}),
		PasswordResetsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_resets_total",
			Help:      "Password reset confirmations by result.",
		}, []string{"result"}),
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	registry.MustRegister(
		m.RegistrationsTotal,
		m.LoginsTotal,
		m.PasswordResetRequestTotal,
		m.PasswordResetsTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// IncLogin records a login attempt. Safe on a nil manager.
func (m *MetricsManager) IncLogin(result string) {
	if m == nil {
		return
	}
	m.LoginsTotal.WithLabelValues(result).Inc()
}

// IncRegistration records a successful registration. Safe on a nil manager.
func (m *MetricsManager) IncRegistration() {
	if m == nil {
		return
	}
	m.RegistrationsTotal.Inc()
}

// IncResetRequest records a forgot-password request. Safe on a nil manager.
func (m *MetricsManager) IncResetRequest(result string) {
	if m == nil {
		return
	}
	m.PasswordResetRequestTotal.WithLabelValues(result).Inc()
}

// IncReset records a reset-password confirmation. Safe on a nil manager.
func (m *MetricsManager) IncReset(result string) {
	if m == nil {
		return
	}
	m.PasswordResetsTotal.WithLabelValues(result).Inc()
}

// ObserveHTTP records one finished HTTP request. Safe on a nil manager.
func (m *MetricsManager) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Server exposes /metrics on its own port.
type Server struct {
	srv    *http.Server
	logger *logger.Logger
}

// NewServer returns nil when port is empty, which disables the metrics listener.
func NewServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) *Server {
	if port == "" {
		appLogger.Info("Prometheus metrics server port not configured, server will not start")
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	return &Server{
		srv:    &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: appLogger.Named("MetricsServer"),
	}
}

// Start blocks serving metrics until Shutdown is called.
func (s *Server) Start() error {
	if s == nil {
		return nil
	}
	s.logger.Info("Prometheus metrics server starting", zap.String("addr", s.srv.Addr), zap.String("path", "/metrics"))
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the metrics listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
