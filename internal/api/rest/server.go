package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/caldermont/data-governance-backend/internal/api/middleware"
	"github.com/caldermont/data-governance-backend/internal/infrastructure/config"
)

// Server hosts the REST API around the gap analysis service
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer builds the router with middleware and wires the handlers
func NewServer(cfg *config.ServerConfig, logger *slog.Logger, handler *Handler) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/analyses", handler.RunAnalysis)
	mux.HandleFunc("GET /api/v1/analyses/{id}", handler.GetAnalysisStatus)
	mux.HandleFunc("POST /api/v1/recommendations", handler.GenerateRecommendations)
	mux.HandleFunc("GET /healthz", handler.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)

	var root http.Handler = mux
	root = rateLimiter.Middleware(root)
	root = middleware.RequestLogger(logger)(root)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      root,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
}

// Start blocks serving HTTP until the listener fails or Shutdown is called
func (s *Server) Start() error {
	s.logger.Info("REST API listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
