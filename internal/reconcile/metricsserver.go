package reconcile

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/systmms/accountsync/internal/logging"
)

// MetricsServer exposes the run counters over HTTP while a batch is in
// flight. The server lives only as long as the run that started it;
// a scraper polling during the batch sees the counters advance.
type MetricsServer struct {
	server *http.Server
}

// StartMetricsServer registers the engine counters and serves them on
// /metrics at the given port until Stop is called. Serving is best
// effort; a busy port logs a warning and the run continues.
func StartMetricsServer(port int, logger *logging.Logger) *MetricsServer {
	InitMetrics()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &MetricsServer{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("Metrics endpoint unavailable: %v", err)
		}
	}()

	return s
}

// Stop shuts the exposition endpoint down.
func (s *MetricsServer) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
