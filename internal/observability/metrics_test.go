package observability

import (
	"context"
	"dbprobe/internal/models"
	"dbprobe/internal/version"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMetricsProvider(t *testing.T) *Provider {
	t.Helper()
	metrics := models.MetricsConfig{Enabled: true, Path: "/metrics", Port: 9090}
	obs := models.ObservabilityConfig{
		ServiceName: "dbprobe-test",
		Tracing:     models.TracingConfig{Enabled: false},
	}

	provider, err := Setup(metrics, obs, version.Info{Version: "1.0.0"})
	require.NoError(t, err)
	t.Cleanup(func() { provider.Shutdown(context.Background()) })
	return provider
}

func TestMetricsServer_ServesRegistry(t *testing.T) {
	provider := setupMetricsProvider(t)
	ms := NewMetricsServer(9090, "/metrics", provider)

	recorder := httptest.NewRecorder()
	ms.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "go_goroutines")
}

func TestMetricsServer_OtherPathsNotServed(t *testing.T) {
	provider := setupMetricsProvider(t)
	ms := NewMetricsServer(9090, "/metrics", provider)

	recorder := httptest.NewRecorder()
	ms.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestMetricsServer_StartAndShutdown(t *testing.T) {
	provider := setupMetricsProvider(t)
	ms := NewMetricsServer(0, "/metrics", provider)

	errCh := make(chan error, 1)
	go func() {
		errCh <- ms.Start()
	}()

	// Give the server time to start
	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, ms.Shutdown(ctx))

	assert.Equal(t, http.ErrServerClosed, <-errCh)
}

func TestNewMetricsServer_NilProvider(t *testing.T) {
	ms := NewMetricsServer(9090, "/metrics", nil)
	require.NotNil(t, ms)

	recorder := httptest.NewRecorder()
	ms.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
