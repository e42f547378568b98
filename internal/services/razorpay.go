package services

import (
	"errors"
	"fmt"
	"net"

	razorpay "github.com/razorpay/razorpay-go"

	"arogya_api_echo/internal/config"
)

// gatewayTimeoutSeconds bounds every call to the gateway. On timeout the
// operation fails with ErrGatewayTimeout and no local state is committed.
const gatewayTimeoutSeconds = 60

// GatewayOrder is the gateway's view of a created order.
type GatewayOrder struct {
	ID          string
	AmountPaise int64
	Currency    string
	Status      string
}

// GatewaySettlement is the outcome of a payment attempt against an order,
// as reported by the gateway (webhook payload or polled order status).
type GatewaySettlement struct {
	Status           string // "captured" or "failed"
	GatewayPaymentID string
	Method           string
	ErrorDescription string
}

const (
	SettlementCaptured = "captured"
	SettlementFailed   = "failed"
)

// PaymentGateway is the narrow slice of the gateway this system uses.
// Tests substitute a stub.
type PaymentGateway interface {
	// CreateOrder registers an intent to collect amountPaise with the
	// gateway. The receipt string makes order creation idempotent on the
	// gateway side.
	CreateOrder(amountPaise int64, currency, receipt string, notes map[string]interface{}) (*GatewayOrder, error)

	// FetchSettlement polls the gateway for the payment outcome of an
	// order. Returns nil when no attempt has settled yet.
	FetchSettlement(gatewayOrderID string) (*GatewaySettlement, error)
}

// RazorpayService wraps the Razorpay SDK client.
type RazorpayService struct {
	client *razorpay.Client
}

func NewRazorpayService(cfg *config.Config) *RazorpayService {
	client := razorpay.NewClient(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
	client.SetTimeout(gatewayTimeoutSeconds)
	return &RazorpayService{client: client}
}

// CreateOrder creates a gateway order for the exact integer amount in paise.
func (s *RazorpayService) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]interface{}) (*GatewayOrder, error) {
	data := map[string]interface{}{
		"amount":   amountPaise,
		"currency": currency,
		"receipt":  receipt,
		"notes":    notes,
	}

	body, err := s.client.Order.Create(data, nil)
	if err != nil {
		return nil, classifyGatewayError("order create", err)
	}

	order := &GatewayOrder{
		ID:          stringField(body, "id"),
		AmountPaise: int64Field(body, "amount"),
		Currency:    stringField(body, "currency"),
		Status:      stringField(body, "status"),
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%w: order create returned no id", ErrGatewayError)
	}
	return order, nil
}

// FetchSettlement lists payment attempts for the order and returns the first
// captured one, or the most recent failed one when nothing captured.
func (s *RazorpayService) FetchSettlement(gatewayOrderID string) (*GatewaySettlement, error) {
	body, err := s.client.Order.Payments(gatewayOrderID, nil, nil)
	if err != nil {
		return nil, classifyGatewayError("order payments", err)
	}

	items, _ := body["items"].([]interface{})
	var failed *GatewaySettlement
	for _, raw := range items {
		entity, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		settlement := &GatewaySettlement{
			Status:           stringField(entity, "status"),
			GatewayPaymentID: stringField(entity, "id"),
			Method:           stringField(entity, "method"),
			ErrorDescription: stringField(entity, "error_description"),
		}
		switch settlement.Status {
		case SettlementCaptured:
			return settlement, nil
		case SettlementFailed:
			failed = settlement
		}
	}
	return failed, nil
}

func classifyGatewayError(op string, err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %s: %v", ErrGatewayTimeout, op, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrGatewayError, op, err)
}

func stringField(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func int64Field(m map[string]interface{}, key string) int64 {
	// JSON numbers decode as float64
	if f, ok := m[key].(float64); ok {
		return int64(f)
	}
	if n, ok := m[key].(int64); ok {
		return n
	}
	return 0
}
