package course

import (
	"time"
)

const (
	EnrollmentActive    = "ACTIVE"
	EnrollmentCompleted = "COMPLETED"
	EnrollmentPaused    = "PAUSED"
	EnrollmentCancelled = "CANCELLED"
)

// Enrollment is one learner's registration in one course. At most one row per (user, course).
type Enrollment struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	UserID      uint       `json:"user_id" gorm:"uniqueIndex:idx_enrollment_user_course;not null"`
	CourseID    uint       `json:"course_id" gorm:"uniqueIndex:idx_enrollment_user_course;index;not null"`
	Status      string     `json:"status" gorm:"index;default:'ACTIVE'"` // ACTIVE, COMPLETED, PAUSED, CANCELLED
	EnrolledAt  time.Time  `json:"enrolled_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
