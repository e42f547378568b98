package tasks

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
)

// expireSubscriptions marks active subscriptions past their end date as
// expired. One conditional bulk update; safe to run on any schedule.
func expireSubscriptions(deps *Deps) TaskHandler {
	return func(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
		res := db.WithContext(ctx).
			Model(&models.Subscription{}).
			Where("status = ? AND ends_at <= ?", models.SubscriptionStatusActive, time.Now()).
			Update("status", models.SubscriptionStatusExpired)
		if res.Error != nil {
			return nil, res.Error
		}

		if res.RowsAffected > 0 {
			deps.Log.Info("subscriptions expired",
				zap.Int64("count", res.RowsAffected),
			)
		}

		return map[string]interface{}{
			"expired": res.RowsAffected,
		}, nil
	}
}
