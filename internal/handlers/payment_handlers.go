package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"arogya_api_echo/internal/models"
	"arogya_api_echo/internal/services"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// CreateOrder handles POST /api/payments/order
func (h *PaymentHandler) CreateOrder(c echo.Context) error {
	var req CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	userID := getUintFromContext(c, "userID")

	result, err := h.payments.CreateOrder(
		c.Request().Context(),
		userID,
		req.AmountPaise,
		req.Currency,
		models.PaymentPurpose(req.Purpose),
		req.Metadata,
	)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, result)
}

// VerifyCheckout handles POST /api/payments/verify
func (h *PaymentHandler) VerifyCheckout(c echo.Context) error {
	var req VerifyCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	err := h.payments.VerifyCheckout(
		c.Request().Context(),
		req.GatewayOrderID,
		req.GatewayPaymentID,
		req.GatewaySignature,
	)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"verified": true,
	})
}

// ListPayments handles GET /api/payments
func (h *PaymentHandler) ListPayments(c echo.Context) error {
	userID := getUintFromContext(c, "userID")
	if userID == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "user not registered")
	}

	payments, err := h.payments.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"payments": payments,
	})
}
