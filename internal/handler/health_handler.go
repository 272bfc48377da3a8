package handler

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/middleware"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// DBなど依存先の疎通確認
type Pinger func(ctx context.Context) error

type HealthHandler struct {
	ping Pinger
}

func NewHealthHandler(ping Pinger) *HealthHandler {
	return &HealthHandler{ping: ping}
}

func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.healthz)
}

type healthStatus struct {
	Status string `json:"status"`
}

func (h *HealthHandler) healthz(c echo.Context) error {
	if h.ping != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.ping(ctx); err != nil {
			middleware.Logger(c).Warn("health check failed", zap.Error(err))
			return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "unavailable", Code: "UNAVAILABLE"})
		}
	}
	return ok(c, healthStatus{Status: "ok"})
}
