package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"arogya_api_echo/internal/services"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// JSONErrorHandler maps service sentinel errors and echo errors onto JSON
// API responses. Gateway failures surface as upstream errors so the client
// can retry from the UI; webhook rejections stay 4xx so the gateway stops
// redelivering only when it should.
func JSONErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		label := "internal_error"
		message := "Something went wrong. Please try again later."

		switch {
		case errors.Is(err, services.ErrInvalidAmount):
			code, label, message = http.StatusBadRequest, "invalid_amount", services.ErrInvalidAmount.Error()
		case errors.Is(err, services.ErrUserNotFound):
			code, label, message = http.StatusNotFound, "user_not_found", services.ErrUserNotFound.Error()
		case errors.Is(err, services.ErrPaymentNotFound):
			code, label, message = http.StatusNotFound, "payment_not_found", services.ErrPaymentNotFound.Error()
		case errors.Is(err, services.ErrVerificationFailed):
			code, label, message = http.StatusBadRequest, "verification_failed", services.ErrVerificationFailed.Error()
		case errors.Is(err, services.ErrInvalidWebhookSignature):
			code, label, message = http.StatusBadRequest, "invalid_webhook_signature", services.ErrInvalidWebhookSignature.Error()
		case errors.Is(err, services.ErrMalformedPayload):
			code, label, message = http.StatusBadRequest, "malformed_payload", services.ErrMalformedPayload.Error()
		case errors.Is(err, services.ErrGatewayTimeout):
			code, label, message = http.StatusGatewayTimeout, "gateway_timeout", "The payment gateway timed out. Please retry."
		case errors.Is(err, services.ErrGatewayError):
			code, label, message = http.StatusBadGateway, "gateway_error", "The payment gateway is unavailable. Please retry."
		default:
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				code = httpErr.Code
				label = http.StatusText(code)
				if msg, ok := httpErr.Message.(string); ok && msg != "" {
					message = msg
				} else {
					message = http.StatusText(code)
				}
			}
		}

		if code >= http.StatusInternalServerError {
			log.Error("request failed",
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		if writeErr := c.JSON(code, errorResponse{Error: label, Message: message}); writeErr != nil {
			log.Error("failed to write error response", zap.Error(writeErr))
		}
	}
}
