package handler

import (
	"io"
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 署名検証に生のbodyが要るので上限だけ決めてそのまま読む
const maxWebhookBody = 64 << 10

type WebhookHandler struct {
	uc *usecase.WebhookService
}

func NewWebhookHandler(uc *usecase.WebhookService) *WebhookHandler {
	return &WebhookHandler{uc: uc}
}

func (h *WebhookHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/webhooks/stripe", h.stripe)
	e.POST("/webhooks/payment-provider", h.stripe)
}

type webhookAck struct {
	Received bool `json:"received"`
}

func (h *WebhookHandler) stripe(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody+1))
	if err != nil {
		return badRequest(c, "invalid body")
	}
	if len(body) > maxWebhookBody {
		return writeError(c, usecase.NewHTTPError(usecase.KindValidation, "payload too large"))
	}

	//エラーを返すとプロバイダが再送する
	if err := h.uc.Handle(c.Request().Context(), body, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, webhookAck{Received: true})
}
