package observability

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/tphakala/swingcam/internal/errors"
	"github.com/tphakala/swingcam/internal/logging"
)

// Endpoint serves the Prometheus-compatible telemetry over HTTP.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
	log           *slog.Logger
}

// NewEndpoint creates a telemetry endpoint serving the given metrics on
// listenAddress. The endpoint does not create metrics; the Metrics instance
// must be initialized before calling this function.
func NewEndpoint(listenAddress string, metrics *Metrics) (*Endpoint, error) {
	if listenAddress == "" {
		return nil, errors.Newf("telemetry listen address is empty").
			Component("observability").
			Category(errors.CategoryValidation).
			Build()
	}

	log := logging.ForService("telemetry")
	if log == nil {
		log = slog.Default().With("service", "telemetry")
	}

	return &Endpoint{
		listenAddress: listenAddress,
		metrics:       metrics,
		log:           log,
	}, nil
}

// Start runs the HTTP server in its own goroutine and shuts it down
// gracefully when quitChan is closed.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	e.server = &http.Server{
		Addr:              e.listenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		e.log.Info("telemetry endpoint starting", "address", e.listenAddress)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			e.log.Error("telemetry HTTP server error", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-quitChan
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.server.Shutdown(ctx); err != nil {
			e.log.Error("telemetry endpoint shutdown failed", "error", err)
		}
	}()
}
