package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	mw "github.com/tphakala/asteroid-catalog/internal/api/middleware"
	v1 "github.com/tphakala/asteroid-catalog/internal/api/v1"
	"github.com/tphakala/asteroid-catalog/internal/logger"
	"github.com/tphakala/asteroid-catalog/internal/observability"
)

// Server is the HTTP server of the catalog.
type Server struct {
	echo       *echo.Echo
	config     *Config
	log        logger.Logger
	metrics    *observability.Metrics
	controller *v1.Controller
	startTime  time.Time
}

// ServerOption is a functional option for configuring the Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logger.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics enables request metrics and the /metrics endpoint.
func WithMetrics(m *observability.Metrics) ServerOption {
	return func(s *Server) { s.metrics = m }
}

// New creates a server with middleware and routes configured. It does not
// start listening.
func New(cfg *Config, ds v1.CatalogStore, exporter v1.Exporter, files v1.FileServer, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	s := &Server{
		echo:      echo.New(),
		config:    cfg,
		log:       GetLogger(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Server.ReadTimeout = cfg.ReadTimeout
	s.echo.Server.WriteTimeout = cfg.WriteTimeout
	s.echo.Server.IdleTimeout = cfg.IdleTimeout

	s.setupMiddleware()
	if err := s.setupRoutes(ds, exporter, files); err != nil {
		return nil, err
	}
	return s, nil
}

// setupMiddleware configures the Echo middleware stack.
func (s *Server) setupMiddleware() {
	// "/export_votable/7/" and "/export_votable/7" are the same resource.
	s.echo.Pre(echomw.RemoveTrailingSlash())

	// Recovery middleware - should be first
	s.echo.Use(echomw.Recover())
	s.echo.Use(mw.NewRequestLoggerWithSkipper(s.log, func(c echo.Context) bool {
		return c.Path() == "/healthz" || c.Path() == "/metrics"
	}))
	if s.metrics != nil {
		s.echo.Use(mw.NewMetrics(s.metrics.HTTP))
	}

	security := mw.DefaultSecurityConfig()
	s.echo.Use(mw.NewCORS(security))
	s.echo.Use(mw.NewBodyLimit(s.config.BodyLimit))
	s.echo.Use(mw.NewSecureHeaders(security))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(ds v1.CatalogStore, exporter v1.Exporter, files v1.FileServer) error {
	s.echo.GET("/healthz", s.healthCheck)
	if s.metrics != nil && s.config.MetricsEnabled {
		s.echo.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	opts := []v1.Option{
		v1.WithLogger(logger.Global().Module("api")),
		v1.WithPublicURL(s.config.PublicURL),
	}
	if s.metrics != nil {
		opts = append(opts, v1.WithTransferRecorder(s.metrics.HTTP))
	}
	controller, err := v1.New(s.echo, ds, exporter, files, opts...)
	if err != nil {
		return fmt.Errorf("failed to initialize API v1: %w", err)
	}
	s.controller = controller
	return nil
}

// healthCheck handles the server health check endpoint.
func (s *Server) healthCheck(c echo.Context) error {
	uptime := time.Since(s.startTime)
	return c.JSON(http.StatusOK, map[string]any{
		"status":         "healthy",
		"name":           s.config.Name,
		"uptime":         uptime.String(),
		"uptime_seconds": uptime.Seconds(),
		"timestamp":      time.Now().Format(time.RFC3339),
	})
}

// Start serves HTTP requests and blocks until the server is shut down.
func (s *Server) Start() error {
	s.log.Info("starting HTTP server", logger.String("address", s.config.Listen))
	if err := s.echo.Start(s.config.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server within the configured timeout. ctx may
// already be cancelled; only its values are used.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.log.Error("error during server shutdown", logger.Error(err))
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.log.Info("server shutdown complete")
	return nil
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Controller returns the route controller.
func (s *Server) Controller() *v1.Controller {
	return s.controller
}
