package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes the provider's registry on its own listener, away
// from the probe route and its rate limiter.
type MetricsServer struct {
	server *http.Server
}

// NewMetricsServer mounts the registry at path on :port. With a nil
// provider, or metrics disabled, every path answers 404.
func NewMetricsServer(port int, path string, provider *Provider) *MetricsServer {
	mux := http.NewServeMux()
	if provider != nil && provider.registry != nil {
		mux.Handle(path, promhttp.HandlerFor(provider.registry, promhttp.HandlerOpts{
			ErrorLog: slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		}))
	}

	return &MetricsServer{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the mux so tests can scrape without listening.
func (ms *MetricsServer) Handler() http.Handler {
	return ms.server.Handler
}

// Start blocks until the server stops; after Shutdown it returns
// http.ErrServerClosed.
func (ms *MetricsServer) Start() error {
	slog.Info("Serving metrics", "addr", ms.server.Addr)
	return ms.server.ListenAndServe()
}

func (ms *MetricsServer) Shutdown(ctx context.Context) error {
	return ms.server.Shutdown(ctx)
}
