// Package api assembles the collection-watcher HTTP server.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/donaldgifford/collection-watcher/internal/api/handlers"
	"github.com/donaldgifford/collection-watcher/internal/api/middleware"
	"github.com/donaldgifford/collection-watcher/internal/config"
	"github.com/donaldgifford/collection-watcher/internal/state"
)

// Deps are the components the HTTP surface exposes.
type Deps struct {
	Store      state.Store
	Poller     handlers.Poller
	Aggregator handlers.Aggregator
}

// Server wraps the Echo instance and its Huma API.
type Server struct {
	echo *echo.Echo
	api  huma.API
	cfg  *config.ServerConfig
	log  *slog.Logger
}

// NewServer builds the router with health, metrics and the versioned API.
func NewServer(cfg *config.ServerConfig, log *slog.Logger, version string, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	e.Use(middleware.RequestLog(log))
	e.Use(middleware.Recovery(log))
	e.Use(middleware.Tracing())
	e.Use(middleware.Metrics())

	health := handlers.NewHealthHandler(deps.Store)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	humaCfg := huma.DefaultConfig("Collection Watcher API", version)
	humaCfg.Info.Description = "Detects newly published marketplace collections " +
		"and aggregates collection item prices."
	api := humaecho.New(e, humaCfg)

	handlers.RegisterStateRoutes(api, handlers.NewStateHandler(deps.Store))
	if deps.Poller != nil {
		handlers.RegisterPollRoutes(api, handlers.NewPollHandler(deps.Poller))
	}
	if deps.Aggregator != nil {
		handlers.RegisterAggregateRoutes(api, handlers.NewAggregateHandler(deps.Aggregator))
	}

	return &Server{echo: e, api: api, cfg: cfg, log: log}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.api.OpenAPI()
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, fmt.Sprint(s.cfg.Port))
}

// Start listens until the server is shut down. It returns nil on a clean
// shutdown.
func (s *Server) Start() error {
	s.log.Info("starting server", "addr", s.Addr())
	if err := s.echo.Start(s.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within timeout.
func (s *Server) Shutdown(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}
