// Package metrics contains the prometheus infrastructure.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/basilisk-nexus/eventnexus/log"
)

const (
	moduleName = "metrics"

	shutdownTimeout = 5 * time.Second
)

// PullService serves metrics for Prometheus to scrape.
type PullService struct {
	pullEndpoint string
	router       *chi.Mux
	logger       *log.Logger
}

// NewPullService creates a new Prometheus pull service.
func NewPullService(pullEndpoint string, logger *log.Logger) (*PullService, error) {
	if pullEndpoint == "" {
		return nil, errors.New("metrics: empty pull endpoint")
	}
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	return &PullService{
		pullEndpoint: pullEndpoint,
		router:       r,
		logger:       logger.WithModule(moduleName),
	}, nil
}

// Handler is the service's HTTP handler.
func (s *PullService) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled.
func (s *PullService) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.pullEndpoint,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving metrics", "endpoint", s.pullEndpoint)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		s.logger.Error("metrics server stopped", "err", err)
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
