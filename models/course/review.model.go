package course

import "gorm.io/gorm"

// Review is a learner's rating of a course, one per learner and course.
type Review struct {
	gorm.Model
	UserID   uint   `json:"user_id" gorm:"uniqueIndex:idx_review_user_course;not null"`
	CourseID uint   `json:"course_id" gorm:"uniqueIndex:idx_review_user_course;index;not null"`
	Rating   int    `json:"rating" gorm:"not null"` // 1-5
	Comment  string `json:"comment"`
}
