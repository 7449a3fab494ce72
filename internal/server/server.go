// Package server provides the HTTP API for markd.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/halcyonlabs/markd/internal/bookmark"
	"github.com/halcyonlabs/markd/internal/config"
	"github.com/halcyonlabs/markd/internal/syncer"
)

// Ingester stores one bookmark. Satisfied by ingest.Service.
type Ingester interface {
	Ingest(ctx context.Context, content, externalID string) (*bookmark.Record, error)
}

// Searcher runs a similarity search. Satisfied by search.Engine.
type Searcher interface {
	Search(ctx context.Context, query string, threshold float32, limit int) ([]bookmark.SearchResult, error)
}

// Syncer reconciles the source with the store. Satisfied by syncer.Engine.
type Syncer interface {
	Sync(ctx context.Context) (*syncer.Result, error)
}

// Server provides the HTTP endpoints for markd.
type Server struct {
	echo     *echo.Echo
	ingester Ingester
	searcher Searcher
	syncer   Syncer
	metrics  *Metrics
	logger   *zap.Logger
	config   config.ServerConfig
	search   config.SearchConfig
}

// NewServer creates an HTTP server wired to the given engines.
func NewServer(cfg config.ServerConfig, searchCfg config.SearchConfig, ingester Ingester, searcher Searcher, sync Syncer, logger *zap.Logger) (*Server, error) {
	if ingester == nil || searcher == nil || sync == nil {
		return nil, errors.New("ingester, searcher and syncer are required")
	}
	if logger == nil {
		return nil, errors.New("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
			return err
		}
	})

	s := &Server{
		echo:     e,
		ingester: ingester,
		searcher: searcher,
		syncer:   sync,
		metrics:  NewMetrics(),
		logger:   logger,
		config:   cfg,
		search:   searchCfg,
	}

	s.registerRoutes()
	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/", s.handleWelcome)
	s.echo.GET("/healthz", s.handleHealth)
	s.echo.GET("/metrics", s.metrics.Handler())

	s.echo.POST("/add-bookmark", s.handleAddBookmark)
	s.echo.POST("/search", s.handleSearch)
	s.echo.POST("/sync", s.handleSync)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}
