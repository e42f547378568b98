package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"arogya_api_echo/internal/models"
)

func TestCreateOrderRejectsBelowMinimum(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	gateway := &stubGateway{}
	svc := NewPaymentService(db, gateway, NewSignatureVerifier(newTestConfig()), zap.NewNop())

	_, err := svc.CreateOrder(context.Background(), user.ID, 99, "INR", models.PaymentPurposeConsultation, nil)
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for 99 paise, got %v", err)
	}
	if gateway.created != 0 {
		t.Fatalf("gateway should not be called for a rejected amount")
	}

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no payment rows, got %d", count)
	}
}

func TestCreateOrderAcceptsMinimumAmount(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	svc := NewPaymentService(db, &stubGateway{}, NewSignatureVerifier(newTestConfig()), zap.NewNop())

	result, err := svc.CreateOrder(context.Background(), user.ID, 100, "INR", models.PaymentPurposeIntakePayment, nil)
	if err != nil {
		t.Fatalf("expected 100 paise to pass, got %v", err)
	}
	if result.AmountPaise != 100 {
		t.Fatalf("expected amount 100, got %d", result.AmountPaise)
	}
}

func TestCreateOrderUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewPaymentService(db, &stubGateway{}, NewSignatureVerifier(newTestConfig()), zap.NewNop())

	_, err := svc.CreateOrder(context.Background(), 9999, 50000, "INR", models.PaymentPurposeConsultation, nil)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCreateOrderGatewayFailureWritesNothing(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	gateway := &stubGateway{createErr: ErrGatewayTimeout}
	svc := NewPaymentService(db, gateway, NewSignatureVerifier(newTestConfig()), zap.NewNop())

	_, err := svc.CreateOrder(context.Background(), user.ID, 99900, "INR", models.PaymentPurposeConsultation, nil)
	if !errors.Is(err, ErrGatewayTimeout) {
		t.Fatalf("expected gateway error to propagate, got %v", err)
	}

	var count int64
	db.Model(&models.Payment{}).Count(&count)
	if count != 0 {
		t.Fatalf("gateway failure must not leave a payment row, found %d", count)
	}
}

func TestCreateOrderPersistsPendingPayment(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	svc := NewPaymentService(db, &stubGateway{}, NewSignatureVerifier(newTestConfig()), zap.NewNop())

	metadata := map[string]string{
		models.MetaKeyVertical:       "dermatology",
		models.MetaKeyIntakeResponse: "intake-42",
	}
	result, err := svc.CreateOrder(context.Background(), user.ID, 99900, "", models.PaymentPurposeConsultation, metadata)
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	if result.GatewayOrderID == "" {
		t.Fatalf("expected a gateway order id")
	}
	if result.Currency != "INR" {
		t.Fatalf("expected default currency INR, got %q", result.Currency)
	}

	var payment models.Payment
	if err := db.First(&payment, result.PaymentID).Error; err != nil {
		t.Fatalf("payment row not found: %v", err)
	}
	if payment.Status != models.PaymentStatusPending {
		t.Fatalf("expected PENDING, got %s", payment.Status)
	}
	if payment.AmountPaise != 99900 {
		t.Fatalf("expected 99900 paise, got %d", payment.AmountPaise)
	}
	if payment.Metadata[models.MetaKeyVertical] != "dermatology" {
		t.Fatalf("metadata not persisted: %v", payment.Metadata)
	}
	if payment.GatewayOrderID != result.GatewayOrderID {
		t.Fatalf("gateway order id mismatch: %q vs %q", payment.GatewayOrderID, result.GatewayOrderID)
	}
}

func TestVerifyCheckout(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	cfg := newTestConfig()
	svc := NewPaymentService(db, &stubGateway{}, NewSignatureVerifier(cfg), zap.NewNop())

	result, err := svc.CreateOrder(context.Background(), user.ID, 50000, "INR", models.PaymentPurposeConsultation, nil)
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	paymentID := "pay_checkout_1"
	good := signHex(cfg.RazorpayKeySecret, result.GatewayOrderID+"|"+paymentID)

	if err := svc.VerifyCheckout(context.Background(), result.GatewayOrderID, paymentID, "bogus"); !errors.Is(err, ErrVerificationFailed) {
		t.Fatalf("expected ErrVerificationFailed, got %v", err)
	}
	if err := svc.VerifyCheckout(context.Background(), "order_missing", paymentID, good); !errors.Is(err, ErrPaymentNotFound) {
		t.Fatalf("expected ErrPaymentNotFound, got %v", err)
	}
	if err := svc.VerifyCheckout(context.Background(), result.GatewayOrderID, paymentID, good); err != nil {
		t.Fatalf("expected verification to pass, got %v", err)
	}

	var payment models.Payment
	if err := db.First(&payment, result.PaymentID).Error; err != nil {
		t.Fatalf("payment row not found: %v", err)
	}
	if payment.GatewayPaymentID != paymentID {
		t.Fatalf("expected payment id recorded, got %q", payment.GatewayPaymentID)
	}
	// Settlement stays webhook-owned; verification alone never completes.
	if payment.Status != models.PaymentStatusPending {
		t.Fatalf("verification must not change status, got %s", payment.Status)
	}
}

func TestListByUser(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db)
	other := models.User{FirebaseUID: "uid-other", Email: "other@example.com", UserType: models.UserTypePatient}
	if err := db.Create(&other).Error; err != nil {
		t.Fatalf("failed to seed second user: %v", err)
	}
	svc := NewPaymentService(db, &stubGateway{}, NewSignatureVerifier(newTestConfig()), zap.NewNop())

	for _, uid := range []uint{user.ID, user.ID, other.ID} {
		if _, err := svc.CreateOrder(context.Background(), uid, 10000, "INR", models.PaymentPurposeLabOrder, nil); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}

	payments, err := svc.ListByUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListByUser failed: %v", err)
	}
	if len(payments) != 2 {
		t.Fatalf("expected 2 payments for user, got %d", len(payments))
	}
	for _, p := range payments {
		if p.UserID != user.ID {
			t.Fatalf("payment %d belongs to user %d", p.ID, p.UserID)
		}
	}
}
