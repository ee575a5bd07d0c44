// Package server assembles the echo HTTP server with its middleware
// chain and route handlers
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/dylan-buck/UAF-Auto/config"
	"github.com/dylan-buck/UAF-Auto/pkg/middleware"
)

// RouteRegistrar is anything that can attach endpoints to the server
type RouteRegistrar interface {
	RegisterRoutes(e *echo.Echo)
}

// New builds the echo server with the full middleware chain
func New(cfg *config.Config, logger ectologger.Logger, registrars ...RouteRegistrar) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second
	e.Server.MaxHeaderBytes = cfg.MaxHeaderBytes

	e.HTTPErrorHandler = middleware.Error(logger)

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(middleware.Context())
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Logger(logger))
	e.Use(middleware.APIKey(cfg.APIKey, logger))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	for _, r := range registrars {
		r.RegisterRoutes(e)
	}

	return e
}

// Dependency runs the HTTP server as a startup dependency
type Dependency struct {
	e         *echo.Echo
	port      int
	dependsOn []string
	logger    ectologger.Logger
}

func NewDependency(e *echo.Echo, port int, logger ectologger.Logger, dependsOn ...string) *Dependency {
	return &Dependency{e: e, port: port, dependsOn: dependsOn, logger: logger}
}

func (d *Dependency) GetName() string     { return "http-server" }
func (d *Dependency) DependsOn() []string { return d.dependsOn }

func (d *Dependency) Start(ctx context.Context) error {
	go func() {
		addr := fmt.Sprintf(":%d", d.port)
		d.logger.Infof("HTTP server listening on %s", addr)
		if err := d.e.Start(addr); err != nil && err != http.ErrServerClosed {
			d.logger.WithError(err).Error("HTTP server stopped unexpectedly")
		}
	}()
	return nil
}

func (d *Dependency) Stop(ctx context.Context) error {
	return d.e.Shutdown(ctx)
}
