package handlers

import (
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"arogya_api_echo/internal/services"
)

// HeaderRazorpaySignature carries the webhook body HMAC.
const HeaderRazorpaySignature = "X-Razorpay-Signature"

type WebhookHandler struct {
	webhooks *services.WebhookService
}

func NewWebhookHandler(webhooks *services.WebhookService) *WebhookHandler {
	return &WebhookHandler{webhooks: webhooks}
}

// HandleRazorpayWebhook handles POST /webhooks/razorpay. The body is read
// raw because the signature covers the exact bytes the gateway sent; the
// service verifies it before anything is parsed. Always responds 200 for
// duplicates and unknown event types so the gateway stops redelivering;
// 4xx only on signature failure, malformed payload or unknown order; 5xx
// when settlement could not be committed, which invites a redelivery.
func (h *WebhookHandler) HandleRazorpayWebhook(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to read request body")
	}

	signature := c.Request().Header.Get(HeaderRazorpaySignature)

	result, err := h.webhooks.ProcessWebhook(c.Request().Context(), "", body, signature)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":            "ok",
		"already_processed": result.AlreadyProcessed,
	})
}
