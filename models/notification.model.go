package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	NotificationCertificateIssued = "CERTIFICATE_ISSUED"
	NotificationLearnerCompleted  = "LEARNER_COMPLETED"
	NotificationEnrollmentCreated = "ENROLLMENT_CREATED"
)

type Notification struct {
	gorm.Model
	UserID  uint           `json:"user_id" gorm:"index;not null"`
	Type    string         `json:"type" gorm:"not null"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Data    datatypes.JSON `json:"data"`
	IsRead  bool           `json:"is_read" gorm:"default:false"`
}
