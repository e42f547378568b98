package models

import (
	"time"
)

type PaymentGateway string

const (
	PaymentGatewayRazorpay PaymentGateway = "razorpay"
)

// PaymentPurpose selects the fulfillment action once a payment settles.
type PaymentPurpose string

const (
	PaymentPurposeConsultation  PaymentPurpose = "CONSULTATION"
	PaymentPurposeSubscription  PaymentPurpose = "SUBSCRIPTION"
	PaymentPurposeIntakePayment PaymentPurpose = "INTAKE_PAYMENT"
	PaymentPurposeLabOrder      PaymentPurpose = "LAB_ORDER"
)

// PaymentStatus is the payment lifecycle state. COMPLETED and FAILED are
// terminal; a row never leaves a terminal state.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// MinAmountPaise is the gateway minimum of Rs 1. All amounts are integers in
// paise; no float conversion happens anywhere in the flow.
const MinAmountPaise = 100

// Metadata keys carried from order creation to fulfillment. Fulfillment reads
// only these, never the webhook payload, for clinical routing data.
const (
	MetaKeyVertical       = "vertical"
	MetaKeyPlanID         = "plan_id"
	MetaKeyIntakeResponse = "intake_response_id"
	MetaKeyLabOrder       = "lab_order_id"
)

// Payment is the financial record for one gateway order. Rows are kept
// forever as an audit trail, so there is no soft-delete column.
type Payment struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID      uint           `gorm:"index;not null" json:"user_id"`
	AmountPaise int64          `gorm:"not null" json:"amount_paise"`
	Currency    string         `gorm:"type:varchar(10);default:'INR'" json:"currency"`
	Purpose     PaymentPurpose `gorm:"type:varchar(50);index" json:"purpose"`

	Gateway          PaymentGateway `gorm:"type:varchar(50);default:'razorpay'" json:"gateway"`
	Receipt          string         `gorm:"type:varchar(100)" json:"receipt"`
	GatewayOrderID   string         `gorm:"type:varchar(100);uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID string         `gorm:"type:varchar(100)" json:"gateway_payment_id"`
	GatewaySignature string         `gorm:"type:varchar(255)" json:"-"`
	PaymentMethod    string         `gorm:"type:varchar(50)" json:"payment_method"`

	Status        PaymentStatus `gorm:"type:varchar(20);default:'PENDING';index" json:"status"`
	FailureReason string        `gorm:"type:text" json:"failure_reason,omitempty"`

	// Purpose-specific context (vertical, plan id, intake response id, ...)
	// set at order creation and consumed by fulfillment.
	Metadata map[string]string `gorm:"serializer:json" json:"metadata,omitempty"`

	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsTerminal reports whether the payment reached a final state.
func (p Payment) IsTerminal() bool {
	return p.Status == PaymentStatusCompleted || p.Status == PaymentStatusFailed
}
