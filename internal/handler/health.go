package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"payload-codec-go/internal/config"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns build and configuration details.
func (h *HealthHandler) Status(c echo.Context) error {
	configFile := h.cfg.FilePath()
	if configFile == "" {
		configFile = "defaults"
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "ok",
		"version":     string(h.version),
		"config_file": configFile,
		"max_depth":   h.cfg.Codec.MaxDepth,
	})
}
