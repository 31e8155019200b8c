package course

import "gorm.io/gorm"

const (
	CourseDraft    = "DRAFT"
	CourseActive   = "ACTIVE"
	CourseArchived = "ARCHIVED"
)

// Course represents a learning course
type Course struct {
	gorm.Model
	Title         string `json:"title" gorm:"not null"`
	Description   string `json:"description"`
	EducatorID    uint   `json:"educator_id" gorm:"index;not null"`
	InstitutionID *uint  `json:"institution_id" gorm:"index"`
	Duration      int64  `json:"duration" gorm:"default:0"` // duration in hours
	Price         int64  `json:"price" gorm:"default:0"`    // minor units, 0 means free
	Status        string `json:"status" gorm:"default:'DRAFT'"`
	IsPublished   bool   `json:"is_published" gorm:"default:false"`
	IsDeleted     bool   `json:"-" gorm:"default:false"`
}
