package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/quantegy/tradepulse/internal/application"
	"github.com/quantegy/tradepulse/internal/cache"
	"github.com/quantegy/tradepulse/internal/persistence"
	"github.com/quantegy/tradepulse/internal/risk"
)

// CycleView exposes the engine's latest result to the read surface.
type CycleView interface {
	Last() *application.CycleResult
}

// Config tunes the read-only HTTP server.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server is the read-only HTTP surface: latest classification, latest cycle,
// risk preview, health and metrics. It never mutates engine state.
type Server struct {
	config Config
	http   *http.Server
}

// Deps carries the server's data sources. Cache and repo may be nil; the
// classification endpoint falls through cache to repo to the in-memory
// cycle view.
type Deps struct {
	Cycle    CycleView
	Cache    *cache.Classifications
	Repo     persistence.ClassificationRepo
	Risk     *risk.Engine
	Registry *prometheus.Registry

	Symbol    string
	Timeframe string
}

// NewServer builds the router and wraps it in an http.Server.
func NewServer(config Config, deps Deps) *Server {
	r := mux.NewRouter()
	r.HandleFunc("/health", healthHandler()).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/regime/latest", latestClassificationHandler(deps)).Methods(http.MethodGet)
	v1.HandleFunc("/cycle/latest", latestCycleHandler(deps.Cycle)).Methods(http.MethodGet)
	v1.HandleFunc("/risk/preview", riskPreviewHandler(deps.Risk)).Methods(http.MethodGet)

	return &Server{
		config: config,
		http: &http.Server{
			Addr:         config.Addr,
			Handler:      r,
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
		},
	}
}

// Handler returns the underlying router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.config.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
