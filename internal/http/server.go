package http

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"DocketWatch/internal/config"
)

// Server exposes the trigger surface over HTTP.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	logger *slog.Logger
}

// NewServer builds the gin engine with middleware and routes.
func NewServer(cfg config.Config, api *API, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if api.logger == nil {
		api.logger = logger
	}

	engine := gin.New()
	engine.Use(RequestID())
	engine.Use(Recovery(logger))
	engine.Use(RequestLogger(logger))
	registerRoutes(engine, api, cfg.Admin.JWTSecret)

	return &Server{
		engine: engine,
		srv:    &http.Server{Addr: cfg.Server.Addr, Handler: engine},
		logger: logger,
	}
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until Shutdown is called.
func (s *Server) Run() error {
	s.logger.Info("http server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
