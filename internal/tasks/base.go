package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"arogya_api_echo/internal/models"
)

// BuildScheduledTask is a helper to build ScheduledTask records generically
func BuildScheduledTask(taskName string, args interface{}, due time.Time, recurringInterval *string, taskType models.ScheduledTaskType, maxAttempt int) (*models.ScheduledTask, error) {
	argsBytes, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal args: %w", err)
	}

	var mapArgs map[string]interface{}
	if err := json.Unmarshal(argsBytes, &mapArgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal into map: %w", err)
	}

	return &models.ScheduledTask{
		TaskName:          taskName,
		Arguments:         mapArgs,
		Due:               due,
		RecurringInterval: recurringInterval,
		Status:            models.ScheduledTaskStatusActive,
		TaskType:          taskType,
		MaxAttempt:        maxAttempt,
	}, nil
}

const notificationMaxAttempts = 3

// Scheduler enqueues task rows for the worker to pick up. It satisfies
// services.NotificationScheduler so the webhook reconciler can defer a
// notification whose inline delivery failed.
type Scheduler struct{}

// SchedulePaymentNotification enqueues a one-time send_payment_notification
// task due immediately.
func (Scheduler) SchedulePaymentNotification(ctx context.Context, db *gorm.DB, paymentID uint) error {
	task, err := BuildScheduledTask(
		TaskSendPaymentNotification,
		map[string]interface{}{"payment_id": paymentID},
		time.Now(),
		nil,
		models.ScheduledTaskTypeOneTime,
		notificationMaxAttempts,
	)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Create(task).Error
}
