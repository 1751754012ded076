// Package server exposes the pipeline over an HTTP API for the browser UI.
// The core never renders UI itself: it hands the caller a status code and a
// payload and expects to be invoked again with updated session state.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/raphaelgruber/datacopilot/internal/config"
	"github.com/raphaelgruber/datacopilot/internal/metrics"
	"github.com/raphaelgruber/datacopilot/internal/pipeline"
)

// sweepInterval is how often idle sessions are collected.
const sweepInterval = 10 * time.Minute

// Server wires the gin engine, the session store and the pipeline controller.
type Server struct {
	engine     *gin.Engine
	sessions   *SessionManager
	controller *pipeline.Controller
	collector  *metrics.Collector
	cfg        config.Config
	logger     *slog.Logger
}

// New creates the HTTP server and registers all routes.
func New(cfg config.Config, controller *pipeline.Controller, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(LoggingMiddleware(logger))

	corsCfg := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	engine.Use(cors.New(corsCfg))

	s := &Server{
		engine:     engine,
		sessions:   NewSessionManager(cfg.SessionTTL, logger),
		controller: controller,
		collector:  collector,
		cfg:        cfg,
		logger:     logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	api.GET("/stats", s.handleStats)
	api.POST("/sessions", s.handleCreateSession)
	api.GET("/sessions/:id", s.handleGetSession)
	api.POST("/sessions/:id/question", s.handleQuestion)
	api.POST("/sessions/:id/clarify", s.handleClarify)
	api.POST("/sessions/:id/dataset", s.handleDataset)
	api.POST("/sessions/:id/reset", s.handleReset)
	api.GET("/sessions/:id/events", s.handleEvents)
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.cfg.ServerPort,
		Handler: s.engine,
	}

	go s.sweepLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "port", s.cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// Handler exposes the engine for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.Sweep()
		}
	}
}
