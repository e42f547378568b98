package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
)

// PaymentService issues gateway orders and handles the synchronous checkout
// verification path. Settlement itself stays webhook-owned.
type PaymentService struct {
	db       *gorm.DB
	gateway  PaymentGateway
	verifier *SignatureVerifier
	log      *zap.Logger
}

func NewPaymentService(db *gorm.DB, gateway PaymentGateway, verifier *SignatureVerifier, log *zap.Logger) *PaymentService {
	return &PaymentService{
		db:       db,
		gateway:  gateway,
		verifier: verifier,
		log:      log,
	}
}

// CreateOrderResult is returned to the client to open the gateway checkout.
type CreateOrderResult struct {
	PaymentID      uint   `json:"payment_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	AmountPaise    int64  `json:"amount_paise"`
	Currency       string `json:"currency"`
}

// CreateOrder creates a gateway order and persists a PENDING payment row
// before returning. Gateway failures propagate without any row written; the
// client retries from the UI so the server never duplicates orders.
func (s *PaymentService) CreateOrder(ctx context.Context, userID uint, amountPaise int64, currency string, purpose models.PaymentPurpose, metadata map[string]string) (*CreateOrderResult, error) {
	if amountPaise < models.MinAmountPaise {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAmount, amountPaise)
	}
	if currency == "" {
		currency = "INR"
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, userID)
		}
		return nil, err
	}

	receipt := "rcpt_" + uuid.NewString()
	order, err := s.gateway.CreateOrder(amountPaise, currency, receipt, map[string]interface{}{
		"user_id": fmt.Sprintf("%d", user.ID),
		"purpose": string(purpose),
	})
	if err != nil {
		return nil, err
	}

	payment := models.Payment{
		UserID:         user.ID,
		AmountPaise:    amountPaise,
		Currency:       currency,
		Purpose:        purpose,
		Gateway:        models.PaymentGatewayRazorpay,
		Receipt:        receipt,
		GatewayOrderID: order.ID,
		Status:         models.PaymentStatusPending,
		Metadata:       metadata,
	}
	if err := s.db.WithContext(ctx).Create(&payment).Error; err != nil {
		return nil, err
	}

	s.log.Info("payment order created",
		zap.Uint("payment_id", payment.ID),
		zap.String("gateway_order_id", order.ID),
		zap.Int64("amount_paise", amountPaise),
		zap.String("purpose", string(purpose)),
	)

	return &CreateOrderResult{
		PaymentID:      payment.ID,
		GatewayOrderID: order.ID,
		AmountPaise:    amountPaise,
		Currency:       currency,
	}, nil
}

// VerifyCheckout validates the client-submitted checkout callback. On success
// the payment id and signature are recorded on the payment row; the status
// transition itself remains the reconciler's job, so this path performs no
// state change the webhook would not independently make.
func (s *PaymentService) VerifyCheckout(ctx context.Context, gatewayOrderID, gatewayPaymentID, signature string) error {
	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("gateway_order_id = ?", gatewayOrderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: order %s", ErrPaymentNotFound, gatewayOrderID)
		}
		return err
	}

	if !s.verifier.VerifyCheckoutSignature(gatewayOrderID, gatewayPaymentID, signature) {
		// Never log the computed HMAC, only the order reference.
		s.log.Warn("checkout signature mismatch",
			zap.String("gateway_order_id", gatewayOrderID),
		)
		return ErrVerificationFailed
	}

	err := s.db.WithContext(ctx).Model(&payment).Updates(map[string]interface{}{
		"gateway_payment_id": gatewayPaymentID,
		"gateway_signature":  signature,
	}).Error
	if err != nil {
		return err
	}

	s.log.Info("checkout verified",
		zap.Uint("payment_id", payment.ID),
		zap.String("gateway_order_id", gatewayOrderID),
	)
	return nil
}

// ListByUser returns the user's payment history, newest first.
func (s *PaymentService) ListByUser(ctx context.Context, userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&payments).Error
	return payments, err
}
