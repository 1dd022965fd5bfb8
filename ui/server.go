package ui

import (
	"context"
	"net/http"
	"time"

	"pairstat/app"
	"pairstat/internal"
	"pairstat/internal/config"
	"pairstat/ui/middleware"

	"github.com/gin-gonic/gin"
)

// Server represents the dashboard web server
type Server struct {
	router  *gin.Engine
	service *app.AnalysisService
	cfg     *config.Config
	logger  *internal.Logger
	http    *http.Server
}

// NewServer creates a dashboard server with its routes installed
func NewServer(cfg *config.Config, service *app.AnalysisService, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	gin.SetMode(cfg.Server.GinMode)

	s := &Server{
		router:  gin.New(),
		service: service,
		cfg:     cfg,
		logger:  logger.With("ui"),
	}
	s.http = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.RequestLogger(s.logger))
	s.router.Use(middleware.LimitBody(s.cfg.Server.MaxUploadBytes()))
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	api.POST("/columns", s.handleColumns)
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/analyze/report", s.handleReport)
	api.POST("/export", s.handleExport)
	api.POST("/sweep", s.handleSweep)
}

// Handler exposes the router, for tests and custom listeners
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.logger.Info("starting dashboard on http://%s", addr)
	s.http.Addr = addr
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down dashboard")
	return s.http.Shutdown(ctx)
}
