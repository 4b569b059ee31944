package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// readyTimeout bounds the state backend ping so a hung database fails the
// probe instead of stalling it.
const readyTimeout = 2 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	state Pinger
}

// NewHealthHandler creates a HealthHandler whose readiness follows the state
// store.
func NewHealthHandler(p Pinger) *HealthHandler {
	return &HealthHandler{state: p}
}

// Healthz reports that the process is serving.
func (*HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, StatusResponse{Status: "ok"})
}

// Readyz reports whether the state store can be reached. A watcher that
// cannot read its cursor would re-announce collections, so it is not ready.
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()

	if err := h.state.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, StatusResponse{
			Status: "unavailable",
			Detail: "state backend unreachable",
		})
	}
	return c.JSON(http.StatusOK, StatusResponse{Status: "ready"})
}
