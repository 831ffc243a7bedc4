package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payload-codec-go/internal/config"
	"payload-codec-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// The metrics endpoint is only mounted when enabled in config.
func RegisterRoutes(e *echo.Echo, codec *CodecHandler, health *HealthHandler, cfg *config.Config, m *metrics.Metrics) {
	e.GET("/healthz", health.Healthz)
	e.GET("/status", health.Status)

	v1 := e.Group("/v1")
	v1.POST("/params", codec.Params)
	v1.POST("/request", codec.Request)
	v1.POST("/response", codec.Response)
	v1.POST("/url", codec.URL)
	v1.GET("/id", codec.ID)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
