package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gnuowned/intersight-exporter/internal/config"
	"github.com/gnuowned/intersight-exporter/internal/health"
	"github.com/gnuowned/intersight-exporter/internal/metrics"
	"github.com/gnuowned/intersight-exporter/internal/middleware"
	"github.com/gnuowned/intersight-exporter/internal/poller"
)

func testConfig() config.ServerConfig {
	return config.ServerConfig{
		Port:            8000,
		MetricsPath:     "/metrics",
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig) (*Server, *metrics.Registry, *health.HealthCheck) {
	t.Helper()
	reg := metrics.NewRegistry()
	hc := health.NewHealthCheck(zap.NewNop())
	return NewServer(cfg, reg.Handler(), hc, zap.NewNop()), reg, hc
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestServer_Metrics(t *testing.T) {
	srv, reg, _ := newTestServer(t, testConfig())
	reg.SetPhysicalSummary(metrics.DeviceTypeBlades, 7)
	reg.SetClusterCount(2)

	w := get(t, srv.Handler(), "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `physical_summary{deviceType="blades"} 7`)
	assert.Contains(t, body, "hx_clusters 2")
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
}

func TestServer_CustomMetricsPath(t *testing.T) {
	cfg := testConfig()
	cfg.MetricsPath = "/probe/metrics"
	srv, _, _ := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/probe/metrics").Code)
	assert.Equal(t, http.StatusNotFound, get(t, srv.Handler(), "/metrics").Code)
}

func TestServer_Probes(t *testing.T) {
	srv, _, hc := newTestServer(t, testConfig())

	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, srv.Handler(), "/ready").Code)

	hc.ReportCycle(poller.CycleResult{Started: time.Now(), Step: poller.StepDone})
	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/ready").Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/metrics", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_RateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{Enabled: true, RequestsPerSecond: 0.001, BurstSize: 1}
	srv, _, _ := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, get(t, srv.Handler(), "/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, get(t, srv.Handler(), "/health").Code)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	srv, _, _ := newTestServer(t, testConfig())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "hx_clusters"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))
	assert.NoError(t, <-errCh)
}
