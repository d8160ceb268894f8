// Package server is the sync endpoint: one JSON document of boards per user,
// read with GET and overwritten with PUT under an optimistic concurrency check.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/existflow/taskboard/internal/auth"
	"github.com/existflow/taskboard/internal/logger"
	"github.com/existflow/taskboard/internal/model"
	tbsync "github.com/existflow/taskboard/internal/sync"
)

// CustomValidator wraps go-playground validator for echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates a struct
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

// Server is the sync server
type Server struct {
	cfg     Config
	repo    *Repository
	issuer  *auth.Issuer
	metrics *metrics
	echo    *echo.Echo
	now     func() time.Time
}

// New creates a new server
func New(cfg Config) (*Server, error) {
	repo, err := OpenRepository(cfg.Database)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		repo:    repo,
		issuer:  auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiresIn),
		metrics: newMetrics(),
		now:     time.Now,
	}

	// Setup Echo
	s.setupEcho()

	return s, nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &CustomValidator{validator: model.Validator()}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestLogger)
	e.Use(s.metrics.middleware)
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods: []string{http.MethodGet, http.MethodPut},
	}))

	// Health check
	e.GET("/health", s.handleHealth)
	if s.cfg.Metrics.Enabled {
		e.GET("/metrics", s.metrics.handler())
	}

	api := e.Group("/api")
	if rl := s.cfg.RateLimit; rl.Requests > 0 {
		api.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: middleware.NewRateLimiterMemoryStoreWithConfig(
				middleware.RateLimiterMemoryStoreConfig{
					Rate:      rate.Limit(float64(rl.Requests) / rl.Window.Seconds()),
					Burst:     rl.Requests,
					ExpiresIn: rl.Window,
				},
			),
			IdentifierExtractor: func(c echo.Context) (string, error) {
				return c.RealIP(), nil
			},
			DenyHandler: func(c echo.Context, identifier string, err error) error {
				return c.JSON(http.StatusTooManyRequests, tbsync.Response{Message: "rate limit exceeded"})
			},
		}))
	}

	// Protected endpoints
	data := api.Group("/data", s.authMiddleware)
	data.GET("/sync", s.handleSyncGet)
	data.PUT("/sync", s.handleSyncPut)

	s.echo = e
}

// Issuer returns the token issuer the server verifies with
func (s *Server) Issuer() *auth.Issuer {
	return s.issuer
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	addr := s.cfg.Server.Addr()
	logger.Info("Sync server listening", logger.F("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Close closes the database connection
func (s *Server) Close() error {
	return s.repo.Close()
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.repo.Ping(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
