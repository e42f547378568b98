package models

import (
	"time"

	"gorm.io/gorm"
)

// ConsultationStatus tracks a consultation through clinical review.
type ConsultationStatus string

const (
	ConsultationStatusPendingAssessment ConsultationStatus = "PENDING_ASSESSMENT"
	ConsultationStatusInReview          ConsultationStatus = "IN_REVIEW"
	ConsultationStatusCompleted         ConsultationStatus = "COMPLETED"
	ConsultationStatusCancelled         ConsultationStatus = "CANCELLED"
)

// Consultation is created by fulfillment when a CONSULTATION payment settles.
// Patient id, vertical and the intake reference come from the payment's
// stored metadata, never from the gateway webhook payload.
type Consultation struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	PatientID        uint               `gorm:"index" json:"patient_id"`
	PaymentID        uint               `gorm:"index" json:"payment_id"`
	Vertical         string             `gorm:"type:varchar(100)" json:"vertical"`
	IntakeResponseID string             `gorm:"type:varchar(100)" json:"intake_response_id"`
	Status           ConsultationStatus `gorm:"type:varchar(50);default:'PENDING_ASSESSMENT'" json:"status"`

	// Relationships
	Patient User    `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Payment Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
}
