package handler

import (
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /checkout のHTTP
type CheckoutHandler struct {
	uc       *usecase.CheckoutService
	sessions Sessions
}

func NewCheckoutHandler(uc *usecase.CheckoutService, sessions Sessions) *CheckoutHandler {
	return &CheckoutHandler{uc: uc, sessions: sessions}
}

type ValidateCheckoutRequest struct {
	ShippingOption string `json:"shipping_option" validate:"omitempty,oneof=standard express"`
}

type CreateSessionRequest struct {
	ShippingOption  string         `json:"shipping_option" validate:"required,oneof=standard express"`
	Email           string         `json:"email" validate:"required,email,max=255"`
	ShippingAddress model.Address  `json:"shipping_address"`
	BillingAddress  *model.Address `json:"billing_address" validate:"omitempty"`
}

func (h *CheckoutHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/checkout")

	g.POST("/validate", h.validate)
	g.POST("/shipping-rates", h.shippingRates)
	g.POST("/create-session", h.createSession)
	g.GET("/success", h.success)
}

func (h *CheckoutHandler) validate(c echo.Context) error {
	var req ValidateCheckoutRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.Validate(c.Request().Context(), h.sessions.identity(c), req.ShippingOption)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CheckoutHandler) shippingRates(c echo.Context) error {
	out, err := h.uc.ShippingRates(c.Request().Context(), h.sessions.identity(c))
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *CheckoutHandler) createSession(c echo.Context) error {
	var req CreateSessionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.CreateSession(c.Request().Context(), h.sessions.identity(c), usecase.CheckoutInput{
		ShippingOption:  req.ShippingOption,
		Email:           strings.TrimSpace(req.Email),
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	})
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

// 決済後のリダイレクト先から呼ばれる。webhookより先に来ることもある
func (h *CheckoutHandler) success(c echo.Context) error {
	sessionID := strings.TrimSpace(c.QueryParam("session_id"))
	if sessionID == "" {
		return badRequest(c, "session_id is required")
	}

	out, err := h.uc.Confirm(c.Request().Context(), sessionID)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}
