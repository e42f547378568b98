package models

import (
	"time"

	"github.com/teambition/rrule-go"
	"gorm.io/gorm"
)

// SubscriptionPlan is a purchasable plan. PricePaise is the integer price in
// minor units and is checked against the paid amount at settlement time.
type SubscriptionPlan struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name         string `gorm:"type:varchar(255)" json:"name"`
	Vertical     string `gorm:"type:varchar(100)" json:"vertical"`
	PricePaise   int64  `gorm:"not null" json:"price_paise"`
	DurationDays int    `gorm:"default:30" json:"duration_days"`

	// RenewalRule is an optional RFC 5545 RRULE string. When set, the
	// subscription runs until the next occurrence after the start date
	// instead of a fixed number of days.
	RenewalRule *string `gorm:"type:text" json:"renewal_interval"`

	IsActive bool `gorm:"default:true" json:"is_active"`
}

// ExpiryAfter calculates when a subscription started at the given time ends.
func (p SubscriptionPlan) ExpiryAfter(start time.Time) time.Time {
	if p.RenewalRule != nil && *p.RenewalRule != "" {
		rule, err := rrule.StrToRRule(*p.RenewalRule)
		if err == nil {
			rule.DTStart(start)
			next := rule.After(start, false)
			if !next.IsZero() {
				return next
			}
		}
	}
	// Fallback to the fixed duration if parsing fails or no occurrence found
	return start.AddDate(0, 0, p.DurationDays)
}

// SubscriptionStatus is the lifecycle state of a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// Subscription is created by fulfillment when a SUBSCRIPTION payment settles.
type Subscription struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	UserID    uint               `gorm:"index" json:"user_id"`
	PlanID    uint               `gorm:"index" json:"plan_id"`
	PaymentID uint               `gorm:"index" json:"payment_id"`
	Status    SubscriptionStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`
	StartsAt  time.Time          `json:"starts_at"`
	EndsAt    time.Time          `gorm:"index" json:"ends_at"`

	// Relationships
	User    User             `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Plan    SubscriptionPlan `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Payment Payment          `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}
