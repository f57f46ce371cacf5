package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
)

// ReadyCheck reports whether a dependency can serve a run. A non-nil error
// marks the server as not ready.
type ReadyCheck func(ctx context.Context) error

// HealthHandler provides health and readiness endpoints.
type HealthHandler struct {
	checks map[string]ReadyCheck
}

// NewHealthHandler creates a new HealthHandler. Each named check must pass
// for Readyz to report ready.
func NewHealthHandler(checks map[string]ReadyCheck) *HealthHandler {
	return &HealthHandler{checks: checks}
}

// Healthz returns 200 if the process is running.
//
// @Summary Liveness check
// @Description Returns 200 if the process is running.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /healthz [get]
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz returns 200 if every readiness check passes, 503 otherwise.
//
// @Summary Readiness check
// @Description Returns 200 if every readiness check passes, 503 otherwise.
// @Tags health
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 503 {object} StatusResponse
// @Router /readyz [get]
func (h *HealthHandler) Readyz(c echo.Context) error {
	for _, check := range h.checks {
		if err := check(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, StatusResponse{Status: "unavailable"})
		}
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
