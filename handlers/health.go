package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const pingTimeout = 3 * time.Second

type welcome struct {
	Message   string            `json:"message"`
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type health struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Uptime    float64 `json:"uptime"`
	Database  string  `json:"database"`
}

// Welcome describes the API.
func (h *Handler) Welcome(c echo.Context) error {
	return c.JSON(http.StatusOK, welcome{
		Message: "Welcome to Horse Racing API",
		Status:  "running",
		Version: h.opts.Version,
		Endpoints: map[string]string{
			"guest": "/api/guest",
			"admin": "/api/admin",
		},
	})
}

// Health reports 200 while the database answers a ping, 503 otherwise.
func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	now := h.now()
	resp := health{
		Status:    "healthy",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
		Uptime:    now.Sub(h.started).Seconds(),
		Database:  "connected",
	}
	if err := h.gw.Ping(ctx); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		resp.Status = "unhealthy"
		resp.Database = "unreachable"
		return c.JSON(http.StatusServiceUnavailable, resp)
	}
	return c.JSON(http.StatusOK, resp)
}
