// Package server exposes the worker import pipeline over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const (
	bodyLimit       = "20M"
	shutdownTimeout = 10 * time.Second
)

type Options struct {
	// JWTSecret enables bearer authentication on /api routes when set.
	JWTSecret []byte
	Logger    zerolog.Logger
}

// New builds the echo instance with middleware and routes registered.
func New(handler *ImportHandler, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(Recovery(opts.Logger))
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(ctxRequestID, id)
		},
	}))
	e.Use(Logger(opts.Logger))
	e.Use(echomw.BodyLimit(bodyLimit))

	RegisterRoutes(e, handler, opts.JWTSecret)
	return e
}

func RegisterRoutes(e *echo.Echo, h *ImportHandler, jwtSecret []byte) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api/v1")
	if len(jwtSecret) > 0 {
		api.Use(JWTAuth(jwtSecret))
	}
	api.GET("/imports/template", h.Template)
	api.POST("/imports/preview", h.Preview)
	api.POST("/imports", h.Import)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, e *echo.Echo, addr string, logger zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("server starting")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
