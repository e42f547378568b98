package handlers

import (
	"github.com/labstack/echo/v4"
)

// CreateOrderRequest starts a payment. Amount is in paise; the service
// enforces the gateway minimum.
type CreateOrderRequest struct {
	AmountPaise int64             `json:"amount_paise" validate:"required"`
	Currency    string            `json:"currency" validate:"omitempty,len=3"`
	Purpose     string            `json:"purpose" validate:"required,oneof=CONSULTATION SUBSCRIPTION INTAKE_PAYMENT LAB_ORDER"`
	Metadata    map[string]string `json:"metadata"`
}

// VerifyCheckoutRequest is the gateway's signed checkout callback, submitted
// by the client after completing payment in the gateway UI.
type VerifyCheckoutRequest struct {
	GatewayOrderID   string `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"required"`
	GatewaySignature string `json:"gateway_signature" validate:"required"`
}

// SyncUserRequest upserts the caller's user row from their Firebase identity.
type SyncUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"omitempty,max=50"`
}

func getStringFromContext(c echo.Context, key string) string {
	if val := c.Get(key); val != nil {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func getUintFromContext(c echo.Context, key string) uint {
	if val := c.Get(key); val != nil {
		if n, ok := val.(uint); ok {
			return n
		}
	}
	return 0
}
