package services

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
)

// FulfillmentService runs the business action triggered exactly once by a
// payment reaching COMPLETED. Dispatch is a closed set keyed by the payment
// purpose; everything it needs comes from the payment row's stored metadata.
type FulfillmentService struct {
	log *zap.Logger
}

func NewFulfillmentService(log *zap.Logger) *FulfillmentService {
	return &FulfillmentService{log: log}
}

// HandlePaymentSuccess dispatches on purpose inside the caller's transaction.
// Returning an error rolls the whole settlement back, leaving the payment
// PENDING for redelivery or manual reconciliation.
func (f *FulfillmentService) HandlePaymentSuccess(tx *gorm.DB, payment *models.Payment) error {
	switch payment.Purpose {
	case models.PaymentPurposeConsultation:
		return f.createConsultation(tx, payment)
	case models.PaymentPurposeSubscription:
		return f.activateSubscription(tx, payment)
	default:
		// INTAKE_PAYMENT, LAB_ORDER and future purposes settle with no
		// consultation or subscription side effects.
		f.log.Info("payment settled with no fulfillment action",
			zap.Uint("payment_id", payment.ID),
			zap.String("purpose", string(payment.Purpose)),
		)
		return nil
	}
}

// HandlePaymentFailure records the failure for analytics. It never creates
// clinical or billing side effects.
func (f *FulfillmentService) HandlePaymentFailure(payment *models.Payment) {
	f.log.Info("payment failed",
		zap.Uint("payment_id", payment.ID),
		zap.String("gateway_order_id", payment.GatewayOrderID),
		zap.String("reason", payment.FailureReason),
	)
}

func (f *FulfillmentService) createConsultation(tx *gorm.DB, payment *models.Payment) error {
	consultation := models.Consultation{
		PatientID:        payment.UserID,
		PaymentID:        payment.ID,
		Vertical:         payment.Metadata[models.MetaKeyVertical],
		IntakeResponseID: payment.Metadata[models.MetaKeyIntakeResponse],
		Status:           models.ConsultationStatusPendingAssessment,
	}
	if err := tx.Create(&consultation).Error; err != nil {
		return err
	}

	f.log.Info("consultation created",
		zap.Uint("consultation_id", consultation.ID),
		zap.Uint("payment_id", payment.ID),
		zap.String("vertical", consultation.Vertical),
	)
	return nil
}

func (f *FulfillmentService) activateSubscription(tx *gorm.DB, payment *models.Payment) error {
	planID, err := strconv.ParseUint(payment.Metadata[models.MetaKeyPlanID], 10, 32)
	if err != nil {
		return fmt.Errorf("subscription payment %d has no valid plan_id metadata: %w", payment.ID, err)
	}

	var plan models.SubscriptionPlan
	if err := tx.First(&plan, uint(planID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("subscription payment %d references unknown plan %d", payment.ID, planID)
		}
		return err
	}

	// Guards against tampering and against a price change racing the
	// payment. Both values are logged for manual reconciliation.
	if plan.PricePaise != payment.AmountPaise {
		f.log.Error("subscription price mismatch",
			zap.Uint("payment_id", payment.ID),
			zap.Uint("plan_id", plan.ID),
			zap.Int64("paid_paise", payment.AmountPaise),
			zap.Int64("plan_price_paise", plan.PricePaise),
		)
		return fmt.Errorf("%w: paid %d, plan %d", ErrPlanPriceMismatch, payment.AmountPaise, plan.PricePaise)
	}

	now := time.Now()
	subscription := models.Subscription{
		UserID:    payment.UserID,
		PlanID:    plan.ID,
		PaymentID: payment.ID,
		Status:    models.SubscriptionStatusActive,
		StartsAt:  now,
		EndsAt:    plan.ExpiryAfter(now),
	}
	if err := tx.Create(&subscription).Error; err != nil {
		return err
	}

	f.log.Info("subscription activated",
		zap.Uint("subscription_id", subscription.ID),
		zap.Uint("plan_id", plan.ID),
		zap.Uint("payment_id", payment.ID),
		zap.Time("ends_at", subscription.EndsAt),
	)
	return nil
}
