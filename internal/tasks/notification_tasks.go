package tasks

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
)

// sendPaymentNotification emails a user about a payment outcome. Scheduled
// for deliveries where the inline best-effort mail after settlement failed.
func sendPaymentNotification(deps *Deps) TaskHandler {
	return func(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
		rawID, ok := task.Arguments["payment_id"].(float64)
		if !ok || rawID <= 0 {
			return nil, fmt.Errorf("payment_id argument is required")
		}

		var payment models.Payment
		if err := db.WithContext(ctx).Preload("User").First(&payment, uint(rawID)).Error; err != nil {
			return nil, fmt.Errorf("payment %d not found: %w", int(rawID), err)
		}
		if payment.User.Email == "" {
			return map[string]interface{}{"skipped": "user has no email"}, nil
		}

		var subject, body string
		switch payment.Status {
		case models.PaymentStatusCompleted:
			subject = "Payment received"
			body = fmt.Sprintf("We received your payment of %s %.2f (order %s). Thank you.",
				payment.Currency, float64(payment.AmountPaise)/100, payment.GatewayOrderID)
		case models.PaymentStatusFailed:
			subject = "Payment failed"
			body = fmt.Sprintf("Your payment for order %s did not go through: %s",
				payment.GatewayOrderID, payment.FailureReason)
		default:
			return map[string]interface{}{"skipped": "payment not settled yet"}, nil
		}

		if err := deps.Mailer.SendEmail([]string{payment.User.Email}, subject, body); err != nil {
			return nil, err
		}

		return map[string]interface{}{
			"sent_to": payment.User.Email,
		}, nil
	}
}
