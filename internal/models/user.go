package models

import (
	"time"

	"gorm.io/gorm"
)

// UserType represents the type of user
type UserType string

const (
	UserTypeAdmin   UserType = "Admin"
	UserTypePatient UserType = "Patient"
)

// User represents a patient (or admin) account. Rows are created by the
// Firebase sync endpoint; a payment order can only be issued for an existing
// user row.
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	FirebaseUID string   `gorm:"type:varchar(128);uniqueIndex" json:"firebase_uid"`
	Name        string   `gorm:"type:varchar(255)" json:"name"`
	Phone       string   `gorm:"type:varchar(50)" json:"phone"`
	Email       string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	UserType    UserType `gorm:"type:varchar(20);default:'Patient'" json:"user_type"`

	// Relationships
	Payments      []Payment      `gorm:"foreignKey:UserID" json:"payments,omitempty"`
	Subscriptions []Subscription `gorm:"foreignKey:UserID" json:"subscriptions,omitempty"`
}
