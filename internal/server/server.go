// Package server provides the ambient HTTP surface edgegate runs
// alongside the data-plane gateway: the admin server (health, ready,
// metrics) and the middleware chain every listener is wrapped in.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// ReadinessChecker verifies that the server is ready to serve traffic.
// Returns nil if ready, an error describing why not otherwise.
type ReadinessChecker func(ctx context.Context) error

// AdminServer exposes the operational surface (liveness, readiness,
// metrics) on its own address, separate from every data-plane listener
// the gateway opens for configured services.
type AdminServer struct {
	httpServer *http.Server
	logger     *zap.Logger
	ready      ReadinessChecker
}

// NewAdminServer builds the admin server. ready may be nil, in which
// case /readyz always reports ready.
func NewAdminServer(addr string, logger *zap.Logger, ready ReadinessChecker) *AdminServer {
	mux := http.NewServeMux()
	s := &AdminServer{logger: logger, ready: ready}

	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := Chain(mux,
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, []string{"/healthz", "/readyz", "/metrics"}),
		SecurityHeadersMiddleware,
	)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins serving HTTP requests. Blocks until Shutdown is called.
func (s *AdminServer) Start() error {
	s.logger.Info("starting admin server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("admin server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the admin server.
func (s *AdminServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down admin server")
	return s.httpServer.Shutdown(ctx)
}

func (s *AdminServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
}

func (s *AdminServer) handleReadyz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
	}

	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// ListenerServer serves one configured listener's data-plane traffic
// through the ambient middleware chain wrapping a gateway handler.
type ListenerServer struct {
	httpServer *http.Server
	logger     *zap.Logger
	name       string
}

// NewListenerServer wraps handler (typically a gateway.Service's
// ServeHTTP) in the standard ambient middleware chain and binds it to
// addr.
func NewListenerServer(name, addr string, handler http.Handler, logger *zap.Logger, rateLimitRPS float64, rateLimitBurst int) *ListenerServer {
	wrapped := Chain(handler,
		RecoveryMiddleware(logger),
		RequestIDMiddleware,
		LoggingMiddleware(logger, nil),
		SecurityHeadersMiddleware,
		RateLimitMiddleware(rateLimitRPS, rateLimitBurst, nil),
	)

	return &ListenerServer{
		name: name,
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      wrapped,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving HTTP requests, or HTTPS if certFile/keyFile are
// non-empty. Blocks until Shutdown is called.
func (s *ListenerServer) Start(certFile, keyFile string) error {
	s.logger.Info("starting listener", zap.String("listener", s.name), zap.String("addr", s.httpServer.Addr))
	var err error
	if certFile != "" && keyFile != "" {
		err = s.httpServer.ListenAndServeTLS(certFile, keyFile)
	} else {
		err = s.httpServer.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listener %s: %w", s.name, err)
	}
	return nil
}

// Shutdown gracefully shuts down the listener.
func (s *ListenerServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down listener", zap.String("listener", s.name))
	return s.httpServer.Shutdown(ctx)
}
