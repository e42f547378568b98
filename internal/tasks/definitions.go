package tasks

import (
	"go.uber.org/zap"

	"arogya_api_echo/internal/services"
)

// Task names accepted by the worker and the schedule_task CLI.
const (
	TaskReconcilePendingPayments = "reconcile_pending_payments"
	TaskExpireSubscriptions      = "expire_subscriptions"
	TaskSendPaymentNotification  = "send_payment_notification"
)

// Deps are the services task handlers close over. The worker builds them
// once at startup.
type Deps struct {
	Log      *zap.Logger
	Gateway  services.PaymentGateway
	Webhooks *services.WebhookService
	Mailer   *services.EmailService
}

// DefineTasks registers all available tasks
func DefineTasks(deps *Deps) {
	RegisterHandler(TaskReconcilePendingPayments, reconcilePendingPayments(deps))
	RegisterHandler(TaskExpireSubscriptions, expireSubscriptions(deps))
	RegisterHandler(TaskSendPaymentNotification, sendPaymentNotification(deps))
}
