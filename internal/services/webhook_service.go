package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
)

// Gateway webhook event types this system settles on. Anything else is
// acknowledged and ignored so new gateway event types never break us.
const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

const webhookLockTTL = 30 * time.Second

// webhookEnvelope mirrors the gateway's nested wire shape. It is parsed once
// at the boundary into a paymentEvent; nothing downstream touches the raw
// payload.
type webhookEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID               string `json:"id"`
				OrderID          string `json:"order_id"`
				Amount           int64  `json:"amount"`
				Currency         string `json:"currency"`
				Method           string `json:"method"`
				Status           string `json:"status"`
				ErrorCode        string `json:"error_code"`
				ErrorDescription string `json:"error_description"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

type eventKind int

const (
	eventCaptured eventKind = iota
	eventFailed
	eventOther
)

type paymentEvent struct {
	Kind             eventKind
	EventType        string
	GatewayOrderID   string
	GatewayPaymentID string
	Method           string
	ErrorDescription string
}

func parseWebhookEvent(eventType string, body []byte) (*paymentEvent, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if eventType == "" {
		eventType = envelope.Event
	}

	entity := envelope.Payload.Payment.Entity
	event := &paymentEvent{
		Kind:             eventOther,
		EventType:        eventType,
		GatewayOrderID:   entity.OrderID,
		GatewayPaymentID: entity.ID,
		Method:           entity.Method,
		ErrorDescription: entity.ErrorDescription,
	}

	switch eventType {
	case EventPaymentCaptured:
		event.Kind = eventCaptured
	case EventPaymentFailed:
		event.Kind = eventFailed
	default:
		return event, nil
	}

	if event.GatewayOrderID == "" {
		return nil, fmt.Errorf("%w: missing payload.payment.entity.order_id", ErrMalformedPayload)
	}
	return event, nil
}

// WebhookResult acknowledges one delivery. AlreadyProcessed means the payment
// was terminal before this delivery and nothing was written.
type WebhookResult struct {
	AlreadyProcessed bool `json:"already_processed"`
}

// NotificationScheduler enqueues a deferred payment notification for the
// worker when inline delivery fails.
type NotificationScheduler interface {
	SchedulePaymentNotification(ctx context.Context, db *gorm.DB, paymentID uint) error
}

// WebhookService reconciles asynchronous gateway payment notifications with
// the local payment rows. Safe under at-least-once, out-of-order delivery:
// the state transition is a single conditional update and only its winner
// dispatches fulfillment.
type WebhookService struct {
	db          *gorm.DB
	verifier    *SignatureVerifier
	fulfillment *FulfillmentService
	cache       *RedisCache
	mailer      *EmailService
	scheduler   NotificationScheduler
	log         *zap.Logger
}

func NewWebhookService(db *gorm.DB, verifier *SignatureVerifier, fulfillment *FulfillmentService, cache *RedisCache, mailer *EmailService, scheduler NotificationScheduler, log *zap.Logger) *WebhookService {
	return &WebhookService{
		db:          db,
		verifier:    verifier,
		fulfillment: fulfillment,
		cache:       cache,
		mailer:      mailer,
		scheduler:   scheduler,
		log:         log,
	}
}

// ProcessWebhook verifies, parses and applies one webhook delivery.
func (s *WebhookService) ProcessWebhook(ctx context.Context, eventType string, body []byte, signature string) (*WebhookResult, error) {
	if !s.verifier.VerifyWebhookSignature(body, signature) {
		// Possible tampering; reject before reading any state. The computed
		// HMAC is never logged.
		s.log.Warn("webhook signature mismatch",
			zap.String("event", eventType),
		)
		return nil, ErrInvalidWebhookSignature
	}

	event, err := parseWebhookEvent(eventType, body)
	if err != nil {
		return nil, err
	}

	if event.Kind == eventOther {
		s.audit(ctx, event, body, models.WebhookOutcomeIgnored)
		return &WebhookResult{AlreadyProcessed: false}, nil
	}

	// Best-effort serialization of concurrent deliveries for the same
	// order. The conditional update below is the correctness mechanism;
	// this only spares redundant work.
	if s.cache != nil {
		lockKey := "webhook:lock:" + event.GatewayOrderID
		if locked, lockErr := s.cache.SetNX(ctx, lockKey, 1, webhookLockTTL); lockErr == nil && locked {
			defer s.cache.Delete(ctx, lockKey)
		}
	}

	var payment models.Payment
	if err := s.db.WithContext(ctx).Where("gateway_order_id = ?", event.GatewayOrderID).First(&payment).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrPaymentNotFound, event.GatewayOrderID)
		}
		return nil, err
	}

	if payment.IsTerminal() {
		s.audit(ctx, event, body, models.WebhookOutcomeDuplicate)
		return &WebhookResult{AlreadyProcessed: true}, nil
	}

	settlement := &GatewaySettlement{
		GatewayPaymentID: event.GatewayPaymentID,
		Method:           event.Method,
		ErrorDescription: event.ErrorDescription,
	}
	if event.Kind == eventCaptured {
		settlement.Status = SettlementCaptured
	} else {
		settlement.Status = SettlementFailed
	}

	already, err := s.ApplySettlement(ctx, &payment, settlement)
	if err != nil {
		return nil, err
	}

	outcome := models.WebhookOutcomeCompleted
	if already {
		outcome = models.WebhookOutcomeDuplicate
	} else if event.Kind == eventFailed {
		outcome = models.WebhookOutcomeFailed
	}
	s.audit(ctx, event, body, outcome)

	if !already {
		s.notify(ctx, &payment)
	}
	return &WebhookResult{AlreadyProcessed: already}, nil
}

// ApplySettlement moves a payment to its terminal state exactly once. The
// transition is a conditional UPDATE guarded on status = PENDING; concurrent
// duplicates lose the affected-rows check and report alreadyProcessed.
// Fulfillment runs inside the same transaction, so a crash between the state
// write and fulfillment rolls both back. Also used by the reconciliation
// worker, which keeps the single-writer policy on payment state.
func (s *WebhookService) ApplySettlement(ctx context.Context, payment *models.Payment, settlement *GatewaySettlement) (alreadyProcessed bool, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch settlement.Status {
		case SettlementCaptured:
			res := tx.Model(&models.Payment{}).
				Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
				Updates(map[string]interface{}{
					"status":             models.PaymentStatusCompleted,
					"gateway_payment_id": settlement.GatewayPaymentID,
					"payment_method":     settlement.Method,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				alreadyProcessed = true
				return nil
			}

			payment.Status = models.PaymentStatusCompleted
			payment.GatewayPaymentID = settlement.GatewayPaymentID
			payment.PaymentMethod = settlement.Method
			return s.fulfillment.HandlePaymentSuccess(tx, payment)

		case SettlementFailed:
			res := tx.Model(&models.Payment{}).
				Where("id = ? AND status = ?", payment.ID, models.PaymentStatusPending).
				Updates(map[string]interface{}{
					"status":             models.PaymentStatusFailed,
					"gateway_payment_id": settlement.GatewayPaymentID,
					"failure_reason":     settlement.ErrorDescription,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				alreadyProcessed = true
				return nil
			}

			payment.Status = models.PaymentStatusFailed
			payment.GatewayPaymentID = settlement.GatewayPaymentID
			payment.FailureReason = settlement.ErrorDescription
			s.fulfillment.HandlePaymentFailure(payment)
			return nil

		default:
			return fmt.Errorf("unknown settlement status %q for payment %d", settlement.Status, payment.ID)
		}
	})
	return alreadyProcessed, err
}

// audit appends the delivery to the webhook event log. Failures are logged
// and swallowed: the audit trail must never turn an acknowledged delivery
// into a gateway retry.
func (s *WebhookService) audit(ctx context.Context, event *paymentEvent, body []byte, outcome string) {
	record := models.WebhookEvent{
		PaymentGateway: models.PaymentGatewayRazorpay,
		EventType:      event.EventType,
		GatewayOrderID: event.GatewayOrderID,
		Payload:        json.RawMessage(body),
		Outcome:        outcome,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		s.log.Error("failed to record webhook event",
			zap.String("gateway_order_id", event.GatewayOrderID),
			zap.Error(err),
		)
	}
}

// notify emails the user about the payment outcome, best effort after the
// settlement committed.
func (s *WebhookService) notify(ctx context.Context, payment *models.Payment) {
	if s.mailer == nil {
		return
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, payment.UserID).Error; err != nil || user.Email == "" {
		return
	}

	var subject, bodyText string
	if payment.Status == models.PaymentStatusCompleted {
		subject = "Payment received"
		bodyText = fmt.Sprintf("We received your payment of %s %.2f (order %s). Thank you.",
			payment.Currency, float64(payment.AmountPaise)/100, payment.GatewayOrderID)
	} else {
		subject = "Payment failed"
		bodyText = fmt.Sprintf("Your payment for order %s did not go through: %s",
			payment.GatewayOrderID, payment.FailureReason)
	}

	if err := s.mailer.SendEmail([]string{user.Email}, subject, bodyText); err != nil {
		s.log.Warn("payment notification email failed",
			zap.Uint("payment_id", payment.ID),
			zap.Error(err),
		)
		s.deferNotification(ctx, payment.ID)
	}
}

// deferNotification hands the failed mail off to the scheduled-task worker.
func (s *WebhookService) deferNotification(ctx context.Context, paymentID uint) {
	if s.scheduler == nil {
		return
	}
	if err := s.scheduler.SchedulePaymentNotification(ctx, s.db, paymentID); err != nil {
		s.log.Error("failed to schedule notification retry",
			zap.Uint("payment_id", paymentID),
			zap.Error(err),
		)
	}
}
