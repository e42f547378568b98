package handlers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"arogya_api_echo/internal/config"
	"arogya_api_echo/internal/middleware"
	"arogya_api_echo/internal/models"
	"arogya_api_echo/internal/services"
)

const testWebhookSecret = "hook_secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", name)
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

func newWebhookTestServer(t *testing.T, db *gorm.DB) *echo.Echo {
	t.Helper()
	cfg := &config.Config{
		Environment:       "test",
		RazorpayKeySecret: "checkout_secret",
		WebhookSecret:     testWebhookSecret,
	}
	verifier := services.NewSignatureVerifier(cfg)
	fulfillment := services.NewFulfillmentService(zap.NewNop())
	webhooks := services.NewWebhookService(db, verifier, fulfillment, nil, nil, nil, zap.NewNop())

	e := echo.New()
	e.HTTPErrorHandler = middleware.JSONErrorHandler(zap.NewNop())
	e.POST("/webhooks/razorpay", NewWebhookHandler(webhooks).HandleRazorpayWebhook)
	return e
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func seedPendingPayment(t *testing.T, db *gorm.DB, orderID string) models.Payment {
	t.Helper()
	user := models.User{FirebaseUID: "uid-" + orderID, Email: orderID + "@example.com", UserType: models.UserTypePatient}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	payment := models.Payment{
		UserID:         user.ID,
		AmountPaise:    99900,
		Currency:       "INR",
		Purpose:        models.PaymentPurposeConsultation,
		Gateway:        models.PaymentGatewayRazorpay,
		GatewayOrderID: orderID,
		Status:         models.PaymentStatusPending,
		Metadata:       map[string]string{models.MetaKeyVertical: "dermatology"},
	}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("failed to seed payment: %v", err)
	}
	return payment
}

func capturedBody(t *testing.T, orderID, paymentID string) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"event": "payment.captured",
		"payload": map[string]interface{}{
			"payment": map[string]interface{}{
				"entity": map[string]interface{}{
					"id":       paymentID,
					"order_id": orderID,
					"method":   "upi",
					"status":   "captured",
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return body
}

func postWebhook(e *echo.Echo, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/razorpay", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if signature != "" {
		req.Header.Set(HeaderRazorpaySignature, signature)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandleRazorpayWebhook(t *testing.T) {
	db := newTestDB(t)
	e := newWebhookTestServer(t, db)
	payment := seedPendingPayment(t, db, "order_http_1")

	body := capturedBody(t, payment.GatewayOrderID, "pay_http_1")
	rec := postWebhook(e, body, signBody(testWebhookSecret, body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp["already_processed"] != false {
		t.Fatalf("expected already_processed false, got %v", resp["already_processed"])
	}

	var stored models.Payment
	db.First(&stored, payment.ID)
	if stored.Status != models.PaymentStatusCompleted {
		t.Fatalf("expected COMPLETED after webhook, got %s", stored.Status)
	}
}

func TestHandleRazorpayWebhookDuplicateStays200(t *testing.T) {
	db := newTestDB(t)
	e := newWebhookTestServer(t, db)
	payment := seedPendingPayment(t, db, "order_http_dup")

	body := capturedBody(t, payment.GatewayOrderID, "pay_http_dup")
	sig := signBody(testWebhookSecret, body)

	if rec := postWebhook(e, body, sig); rec.Code != http.StatusOK {
		t.Fatalf("first delivery: expected 200, got %d", rec.Code)
	}
	rec := postWebhook(e, body, sig)
	if rec.Code != http.StatusOK {
		t.Fatalf("redelivery: expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response JSON: %v", err)
	}
	if resp["already_processed"] != true {
		t.Fatalf("expected already_processed true on redelivery, got %v", resp["already_processed"])
	}
}

func TestHandleRazorpayWebhookBadSignature(t *testing.T) {
	db := newTestDB(t)
	e := newWebhookTestServer(t, db)
	payment := seedPendingPayment(t, db, "order_http_bad")

	body := capturedBody(t, payment.GatewayOrderID, "pay_http_bad")

	tests := []struct {
		name string
		sig  string
	}{
		{"missing header", ""},
		{"garbage signature", "deadbeef"},
		{"wrong secret", signBody("some_other_secret", body)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postWebhook(e, body, tt.sig)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	var stored models.Payment
	db.First(&stored, payment.ID)
	if stored.Status != models.PaymentStatusPending {
		t.Fatalf("rejected deliveries must not change state, got %s", stored.Status)
	}
}

func TestHandleRazorpayWebhookUnknownOrder404(t *testing.T) {
	db := newTestDB(t)
	e := newWebhookTestServer(t, db)

	body := capturedBody(t, "order_http_missing", "pay_http_missing")
	rec := postWebhook(e, body, signBody(testWebhookSecret, body))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown order, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleRazorpayWebhookMalformedBody400(t *testing.T) {
	db := newTestDB(t)
	e := newWebhookTestServer(t, db)

	body := []byte(`{"event": "payment.captured"`)
	rec := postWebhook(e, body, signBody(testWebhookSecret, body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestHandleRazorpayWebhookSignatureCheckedBeforeParse(t *testing.T) {
	db := newTestDB(t)
	e := newWebhookTestServer(t, db)

	errorLabel := func(rec *httptest.ResponseRecorder) string {
		var resp map[string]interface{}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid error response JSON: %v", err)
		}
		label, _ := resp["error"].(string)
		return label
	}

	// An unsigned malformed body is rejected as a signature failure; the
	// payload is never parsed.
	body := []byte(`{"event": "payment.captured"`)
	rec := postWebhook(e, body, "deadbeef")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if label := errorLabel(rec); label != "invalid_webhook_signature" {
		t.Fatalf("expected invalid_webhook_signature, got %q", label)
	}

	// Only a properly signed malformed body reaches the parser.
	rec = postWebhook(e, body, signBody(testWebhookSecret, body))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if label := errorLabel(rec); label != "malformed_payload" {
		t.Fatalf("expected malformed_payload, got %q", label)
	}
}
