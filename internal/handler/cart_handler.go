package handler

import (
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /cartのHTTP
type CartHandler struct {
	uc       *usecase.CartService
	sessions Sessions
}

// DI
func NewCartHandler(uc *usecase.CartService, sessions Sessions) *CartHandler {
	return &CartHandler{uc: uc, sessions: sessions}
}

type AddCartRequest struct {
	ProductID int64  `json:"product_id" validate:"required,gt=0"`
	VariantID *int64 `json:"variant_id" validate:"omitempty,gt=0"`
	Quantity  int64  `json:"quantity" validate:"required,gte=1,lte=99"`
}

type UpdateCartItemRequest struct {
	Quantity *int64 `json:"quantity" validate:"required,gte=0,lte=99"`
}

type ApplyDiscountRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// /cart, /cart/items/:id, /cart/discount, /cart/merge を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/cart")

	g.GET("", h.getCart)
	g.POST("", h.addToCart)
	g.DELETE("", h.clear)
	g.PATCH("/items/:id", h.patchItem)
	g.DELETE("/items/:id", h.deleteItem)
	g.POST("/discount", h.applyDiscount)
	g.DELETE("/discount", h.removeDiscount)
	g.POST("/merge", h.merge, middleware.RequireAuth())
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), h.sessions.identity(c))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	//ゲストの初回はここでcookieを発行
	id, err := h.sessions.ensure(c)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AddItem(c.Request().Context(), id, usecase.AddItemInput{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	itemID, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, "invalid id")
	}

	var req UpdateCartItemRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.UpdateItem(c.Request().Context(), h.sessions.identity(c), itemID, *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	itemID, valid := pathID(c, "id")
	if !valid {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), h.sessions.identity(c), itemID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	out, err := h.uc.ClearCart(c.Request().Context(), h.sessions.identity(c))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) applyDiscount(c echo.Context) error {
	var req ApplyDiscountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.ApplyDiscount(c.Request().Context(), h.sessions.identity(c), req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CartHandler) removeDiscount(c echo.Context) error {
	out, err := h.uc.RemoveDiscount(c.Request().Context(), h.sessions.identity(c))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// ログイン直後に呼ぶ。ゲストカートを取り込んでcookieを消す
func (h *CartHandler) merge(c echo.Context) error {
	userID, _ := middleware.UserID(c)

	out, err := h.uc.MergeGuestCart(c.Request().Context(), userID, middleware.SessionID(c))
	if err != nil {
		return writeError(c, err)
	}

	h.sessions.clear(c)
	return ok(c, out)
}
