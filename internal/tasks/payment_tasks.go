package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
)

// Defaults for the reconciliation sweep. Overridable via task arguments.
const (
	defaultStaleAfterMinutes = 30
	reconcileBatchSize       = 100
)

// reconcilePendingPayments polls the gateway for payments stuck in PENDING,
// usually because a webhook delivery was lost, and routes any settled
// outcome through the same guarded transition the webhook path uses. The
// payment row keeps a single writer.
func reconcilePendingPayments(deps *Deps) TaskHandler {
	return func(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
		staleAfter := time.Duration(defaultStaleAfterMinutes) * time.Minute
		if v, ok := task.Arguments["older_than_minutes"].(float64); ok && v > 0 {
			staleAfter = time.Duration(v) * time.Minute
		}
		cutoff := time.Now().Add(-staleAfter)

		var pending []models.Payment
		err := db.WithContext(ctx).
			Where("status = ? AND created_at <= ?", models.PaymentStatusPending, cutoff).
			Order("created_at asc").
			Limit(reconcileBatchSize).
			Find(&pending).Error
		if err != nil {
			return nil, err
		}

		checked := 0
		settled := 0
		skipped := 0
		for i := range pending {
			if ctx.Err() != nil {
				break
			}
			payment := &pending[i]
			checked++

			settlement, err := deps.Gateway.FetchSettlement(payment.GatewayOrderID)
			if err != nil {
				deps.Log.Warn("reconciliation gateway check failed",
					zap.String("gateway_order_id", payment.GatewayOrderID),
					zap.Error(err),
				)
				skipped++
				continue
			}
			if settlement == nil {
				// Still unpaid at the gateway; leave it PENDING.
				skipped++
				continue
			}

			already, err := deps.Webhooks.ApplySettlement(ctx, payment, settlement)
			if err != nil {
				deps.Log.Error("reconciliation settlement failed",
					zap.String("gateway_order_id", payment.GatewayOrderID),
					zap.Error(err),
				)
				skipped++
				continue
			}
			if !already {
				settled++
			}
		}

		return map[string]interface{}{
			"checked": checked,
			"settled": settled,
			"skipped": skipped,
		}, nil
	}
}
