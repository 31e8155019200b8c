package course

import "gorm.io/gorm"

const (
	MaterialVideo       = "video"
	MaterialDocument    = "document"
	MaterialInteractive = "interactive"
)

// Lesson belongs to a course through its module. Only active lessons count towards progress.
type Lesson struct {
	gorm.Model
	ModuleID     uint   `json:"module_id" gorm:"index;not null"`
	Title        string `json:"title"`
	MaterialKind string `json:"material_kind" gorm:"default:'document'"` // video, document, interactive
	OrderIndex   int    `json:"order_index" gorm:"default:0"`
	IsActive     bool   `json:"is_active" gorm:"default:true"`
	IsDeleted    bool   `json:"-" gorm:"default:false"`
}

// LessonPerformance is one learner attempt on one lesson.
type LessonPerformance struct {
	gorm.Model
	UserID        uint    `json:"user_id" gorm:"uniqueIndex:idx_performance_attempt;not null"`
	LessonID      uint    `json:"lesson_id" gorm:"uniqueIndex:idx_performance_attempt;index;not null"`
	AttemptNumber int     `json:"attempt_number" gorm:"uniqueIndex:idx_performance_attempt;default:1"`
	MaterialKind  string  `json:"material_kind"`
	Score         float64 `json:"score"`
	MaxScore      float64 `json:"max_score"`
	Percentage    float64 `json:"percentage"` // 0-100
	TimeSpent     int64   `json:"time_spent"` // seconds
	Completed     bool    `json:"completed" gorm:"default:false"`
}
