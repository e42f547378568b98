package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Outcomes recorded per webhook delivery.
const (
	WebhookOutcomeCompleted = "completed"
	WebhookOutcomeFailed    = "failed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeIgnored   = "ignored"
)

// WebhookEvent is an append-only audit row for every webhook delivery the
// gateway sends, including redeliveries and event types we ignore.
type WebhookEvent struct {
	ID             uint            `gorm:"primaryKey" json:"id"`
	PaymentGateway PaymentGateway  `gorm:"type:varchar(50);not null" json:"payment_gateway"`
	EventType      string          `gorm:"type:varchar(100)" json:"event_type"`
	GatewayOrderID string          `gorm:"type:varchar(100);index" json:"gateway_order_id"`
	Payload        json.RawMessage `gorm:"type:jsonb" json:"payload"`
	Outcome        string          `gorm:"type:varchar(50)" json:"outcome"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	DeletedAt      gorm.DeletedAt  `gorm:"index" json:"deleted_at,omitempty"`
}
