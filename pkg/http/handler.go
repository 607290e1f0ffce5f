package http

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler mounts a group of routes on the shared echo instance.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

// HandlerFunc lets a plain function act as a Handler.
type HandlerFunc func(e *echo.Echo)

// RegisterRoutes calls f(e).
func (f HandlerFunc) RegisterRoutes(e *echo.Echo) { f(e) }

// metricsHandler exposes the default prometheus registry at path.
func metricsHandler(path string) Handler {
	return HandlerFunc(func(e *echo.Echo) {
		e.GET(path, echo.WrapHandler(promhttp.Handler()))
	})
}
