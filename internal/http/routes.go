package http

import (
	"strings"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	middleware "clinic-queue.com/clinic-queue/internal/http/middlewares"
	"clinic-queue.com/clinic-queue/internal/metrics"
)

type RouteOptions struct {
	RateLimitPerMinute int
	StaticDir          string
	Debug              bool
	Logger             *logrus.Logger
	Metrics            *metrics.Metrics
}

func Register(e *echo.Echo, h *Handler, opts RouteOptions) {
	e.HTTPErrorHandler = ErrorHandler(opts.Logger, opts.Debug)

	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.BodyLimit("10K"))
	e.Use(middleware.RateLimiter(opts.RateLimitPerMinute, func(c echo.Context) bool {
		return !strings.HasPrefix(c.Path(), "/api/tokens")
	}))

	api := e.Group("/api")
	api.GET("/health", h.Health)

	tokens := api.Group("/tokens")
	tokens.GET("", h.ListTokens)
	tokens.POST("", h.CreateToken)
	tokens.GET("/waiting", h.ListWaiting)
	tokens.GET("/current", h.Current)
	tokens.PATCH("/next", h.AdvanceNext)
	tokens.PATCH("/reorder/:id", h.SetVIP)
	tokens.PATCH("/:id", h.UpdateStatus)

	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics.Handler()))
	}

	if opts.StaticDir != "" {
		e.Use(echoMiddleware.StaticWithConfig(echoMiddleware.StaticConfig{
			Root:  opts.StaticDir,
			HTML5: true,
		}))
	}
}
