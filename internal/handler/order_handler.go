package handler

import (
	"strings"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc       *usecase.OrderUsecase
	sessions Sessions
}

func NewOrderHandler(uc *usecase.OrderUsecase, sessions Sessions) *OrderHandler {
	return &OrderHandler{uc: uc, sessions: sessions}
}

// 一覧はログイン必須、詳細はゲスト（同じcookie）でも見られる
func (h *OrderHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/orders")

	g.GET("", h.list, middleware.RequireAuth())
	g.GET("/:number", h.detail)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, _ := middleware.UserID(c)

	page, valid := queryInt(c, "page", 1)
	if !valid {
		return badRequest(c, "invalid page")
	}
	limit, valid := queryInt(c, "limit", 20)
	if !valid {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.ListOrders(c.Request().Context(), userID, page, limit)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	number := strings.TrimSpace(c.Param("number"))
	if number == "" {
		return badRequest(c, "invalid order number")
	}

	out, err := h.uc.GetOrder(c.Request().Context(), h.sessions.identity(c), number)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
