// internal/api/server.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihandler "github.com/polyquant/backtester/internal/api/handler/api"
	"github.com/polyquant/backtester/internal/api/job"
	"github.com/polyquant/backtester/internal/catalog"
	"github.com/polyquant/backtester/internal/metrics"
)

// Server represents the backtester HTTP server.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	router     *mux.Router
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	JobTTL      time.Duration
	MaxJobs     int
	MetricsPath string
}

// NewServer creates a new HTTP server.
func NewServer(cfg Config, runner apihandler.Runner, cat catalog.Catalog, reg *metrics.Registry, logger *zap.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
		router: router,
	}

	s.setupRoutes(cfg, runner, cat, reg)
	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(cfg Config, runner apihandler.Runner, cat catalog.Catalog, reg *metrics.Registry) {
	jobStore := job.NewStore(cfg.MaxJobs, cfg.JobTTL)
	backtestHandler := apihandler.NewBacktestHandler(runner, jobStore, reg, s.logger)
	catalogHandler := apihandler.NewCatalogHandler(cat)

	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/topics", catalogHandler.Topics).Methods(http.MethodGet)
	v1.HandleFunc("/markets", catalogHandler.Markets).Methods(http.MethodGet)
	v1.HandleFunc("/backtest/run", backtestHandler.Run).Methods(http.MethodPost)
	v1.HandleFunc("/backtest/jobs", backtestHandler.CreateJob).Methods(http.MethodPost)
	v1.HandleFunc("/backtest/jobs/{id}", backtestHandler.GetJob).Methods(http.MethodGet)

	if reg != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		s.router.Handle(path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{})).Methods(http.MethodGet)
		s.router.Use(metrics.HTTPMiddleware(reg))
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
