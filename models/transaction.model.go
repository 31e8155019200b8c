package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	TransactionPending   = "PENDING"
	TransactionCompleted = "COMPLETED"
)

// Transactions records a course payment confirmed by the payment provider.
type Transactions struct {
	gorm.Model
	UserID       uint           `json:"user_id" gorm:"index;not null"`
	CourseID     uint           `json:"course_id" gorm:"index;not null"`
	EnrollmentID uint           `json:"enrollment_id" gorm:"index"`
	Amount       int64          `json:"amount" gorm:"not null"` // minor units
	Currency     string         `json:"currency" gorm:"default:'usd'"`
	Provider     string         `json:"provider" gorm:"default:'stripe'"`
	ProviderRef  string         `json:"provider_ref" gorm:"uniqueIndex;not null"`
	Status       string         `json:"status" gorm:"not null"`
	Payload      datatypes.JSON `json:"-"`
}
