// Package server provides the HTTP gateway for routed, quota-enforced chat.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"codechat-hq/codechat/pkg/config"
	"codechat-hq/codechat/pkg/limits"
	"codechat-hq/codechat/pkg/processing/costs"
	"codechat-hq/codechat/pkg/processing/tokens"
	"codechat-hq/codechat/pkg/providers"
	"codechat-hq/codechat/pkg/routing"
	"codechat-hq/codechat/pkg/telemetry/metrics"
)

// Server is the HTTP gateway. It owns the middleware chain and routes;
// quota enforcement, routing, and provider calls are delegated to the
// injected components.
type Server struct {
	config     config.ServerConfig
	adminToken string

	limiter    *limits.Limiter
	tracker    *limits.CostTracker
	router     *routing.Router
	registry   *providers.Registry
	estimator  *tokens.Estimator
	calculator *costs.Calculator
	metrics    *metrics.Registry
	metricsCfg config.MetricsConfig

	httpServer   *http.Server
	logger       *slog.Logger
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Options carries the components the server wires together. Metrics may be
// nil to disable the /metrics endpoint and HTTP instrumentation.
type Options struct {
	Config     config.ServerConfig
	MetricsCfg config.MetricsConfig
	Limiter    *limits.Limiter
	Tracker    *limits.CostTracker
	Router     *routing.Router
	Registry   *providers.Registry
	Estimator  *tokens.Estimator
	Calculator *costs.Calculator
	Metrics    *metrics.Registry
}

// New creates a server from its components.
func New(opts Options) (*Server, error) {
	if opts.Limiter == nil || opts.Tracker == nil || opts.Router == nil || opts.Registry == nil {
		return nil, fmt.Errorf("limiter, tracker, router, and registry are required")
	}

	estimator := opts.Estimator
	if estimator == nil {
		estimator = tokens.NewEstimator()
	}
	calculator := opts.Calculator
	if calculator == nil {
		calculator = costs.NewCalculator(nil)
	}

	return &Server{
		config:     opts.Config,
		adminToken: opts.Config.AdminToken,
		limiter:    opts.Limiter,
		tracker:    opts.Tracker,
		router:     opts.Router,
		registry:   opts.Registry,
		estimator:  estimator,
		calculator: calculator,
		metrics:    opts.Metrics,
		metricsCfg: opts.MetricsCfg,
		logger:     slog.Default().With("component", "server"),
	}, nil
}

// Handler returns the configured HTTP handler with the full middleware
// chain applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/chat", s.handleChat)
	mux.HandleFunc("GET /v1/status", s.handleStatus)
	mux.HandleFunc("POST /v1/admin/reset", s.handleAdminReset)
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	if s.metrics != nil && s.metricsCfg.Enabled {
		mux.Handle("GET "+s.metricsCfg.Path, s.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = realIPMiddleware(handler)
	handler = loggingMiddleware(s.metrics)(handler)
	handler = requestIDMiddleware(handler)
	handler = recoveryMiddleware(handler)

	return handler
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.mu.Unlock()

	s.httpServer = &http.Server{
		Addr:           s.config.ListenAddress,
		Handler:        s.Handler(),
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully shuts down the server, bounded by the configured
// shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.isRunning
		s.mu.Unlock()
		if !running || s.httpServer == nil {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}
