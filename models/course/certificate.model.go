package course

import (
	"time"
)

// Certificate is issued once per enrollment. Names are copied at issuance and never re-joined.
type Certificate struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	EnrollmentID    uint      `json:"enrollment_id" gorm:"uniqueIndex;not null"`
	UserID          uint      `json:"user_id" gorm:"index;not null"`
	CourseID        uint      `json:"course_id" gorm:"index;not null"`
	Code            string    `json:"code" gorm:"uniqueIndex;size:64;not null"`
	IssuedAt        time.Time `json:"issued_at"`
	FinalScore      float64   `json:"final_score"`
	TotalHours      int64     `json:"total_hours"`
	CourseTitle     string    `json:"course_title"`
	CourseDuration  int64     `json:"course_duration"`
	LearnerName     string    `json:"learner_name"`
	EducatorName    string    `json:"educator_name"`
	InstitutionName string    `json:"institution_name"`
	CreatedAt       time.Time `json:"created_at"`
}
