// Package httpapi exposes the explorer service over HTTP: versioned JSON
// routes for entity reads, detection, search, and analytics, plus health and
// Prometheus metrics endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gabapcia/chainlens/internal/chains"
	"github.com/gabapcia/chainlens/internal/explorer"
	"github.com/gabapcia/chainlens/internal/pkg/logger"
)

// shutdownTimeout bounds how long an exiting server waits for in-flight
// requests.
const shutdownTimeout = 10 * time.Second

// Server serves the explorer API.
type Server struct {
	service  *explorer.Service
	registry *chains.Registry
}

// NewServer builds the HTTP surface on top of the explorer service.
func NewServer(service *explorer.Service, registry *chains.Registry) *Server {
	return &Server{
		service:  service,
		registry: registry,
	}
}

// Router assembles the route tree with logging, recovery, and metrics
// middleware applied to every request.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(requestMetrics)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/chains", s.handleListChains)
		r.Get("/detect", s.handleDetect)
		r.Get("/search", s.handleSearch)

		r.Route("/chains/{chain}", func(r chi.Router) {
			r.Get("/address/{address}", s.handleAddressInfo)
			r.Get("/tx/{hash}", s.handleTransactionInfo)
			r.Get("/block/{number}", s.handleBlockInfo)
			r.Get("/token/{address}", s.handleTokenInfo)
			r.Get("/transactions", s.handleLatestTransactions)
			r.Get("/transactions/large", s.handleLargeTransactions)
			r.Get("/analytics", s.handleAnalytics)
			r.Get("/key/validate", s.handleValidateKey)
		})
	})

	return r
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "http server listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}
