package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"arogya_api_echo/internal/config"
	"arogya_api_echo/internal/models"
)

// newTestDB opens a per-test in-memory SQLite database. One connection only,
// so every query sees the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access test database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Payment{},
		&models.Consultation{},
		&models.SubscriptionPlan{},
		&models.Subscription{},
		&models.WebhookEvent{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Environment:       "test",
		RazorpayKeyID:     "rzp_test_key",
		RazorpayKeySecret: "checkout_secret",
		WebhookSecret:     "hook_secret",
	}
}

func seedUser(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	user := models.User{
		FirebaseUID: "uid-" + strings.ReplaceAll(t.Name(), "/", "-"),
		Name:        "Asha Rao",
		Email:       strings.ReplaceAll(t.Name(), "/", ".") + "@example.com",
		UserType:    models.UserTypePatient,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

// stubGateway satisfies PaymentGateway without network calls.
type stubGateway struct {
	created     int
	createErr   error
	settlements map[string]*GatewaySettlement
}

func (g *stubGateway) CreateOrder(amountPaise int64, currency, receipt string, notes map[string]interface{}) (*GatewayOrder, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created++
	return &GatewayOrder{
		ID:          fmt.Sprintf("order_stub_%d", g.created),
		AmountPaise: amountPaise,
		Currency:    currency,
		Status:      "created",
	}, nil
}

func (g *stubGateway) FetchSettlement(gatewayOrderID string) (*GatewaySettlement, error) {
	return g.settlements[gatewayOrderID], nil
}

// capturedWebhookBody builds a payment.captured body in the gateway's wire
// shape.
func capturedWebhookBody(t *testing.T, orderID, paymentID, method string) []byte {
	t.Helper()
	return webhookBody(t, "payment.captured", map[string]interface{}{
		"id":       paymentID,
		"order_id": orderID,
		"method":   method,
		"status":   "captured",
	})
}

func failedWebhookBody(t *testing.T, orderID, paymentID, reason string) []byte {
	t.Helper()
	return webhookBody(t, "payment.failed", map[string]interface{}{
		"id":                paymentID,
		"order_id":          orderID,
		"status":            "failed",
		"error_code":        "BAD_REQUEST_ERROR",
		"error_description": reason,
	})
}

func webhookBody(t *testing.T, event string, entity map[string]interface{}) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event": event,
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": entity,
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to marshal webhook body: %v", err)
	}
	return body
}

func newTestWebhookService(t *testing.T, db *gorm.DB) *WebhookService {
	t.Helper()
	cfg := newTestConfig()
	verifier := NewSignatureVerifier(cfg)
	fulfillment := NewFulfillmentService(zap.NewNop())
	return NewWebhookService(db, verifier, fulfillment, nil, nil, nil, zap.NewNop())
}
