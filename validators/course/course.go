package courseValidator

import (
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

const (
	CourseIDKey     = "courseID"
	ModuleIDKey     = "moduleID"
	LessonIDKey     = "lessonID"
	EnrollmentIDKey = "enrollmentID"

	CourseListKey  = "validatedCourseList"
	CourseKey      = "validatedCourse"
	ModuleKey      = "validatedModule"
	LessonKey      = "validatedLesson"
	ActivationKey  = "validatedActivation"
	PerformanceKey = "validatedPerformance"
	ReviewKey      = "validatedReview"
	PageKey        = "validatedPage"
)

type CourseListQuery struct {
	Page       int    `query:"page" validate:"omitempty,min=1"`
	Limit      int    `query:"limit" validate:"omitempty,min=1,max=100"`
	Status     string `query:"status" validate:"omitempty,oneof=DRAFT ACTIVE ARCHIVED"`
	EducatorID uint   `query:"educator_id"`
	Search     string `query:"search" validate:"max=100"`
}

type CourseRequest struct {
	Title         string `json:"title" validate:"required,notblank,singleline,min=3,max=200"`
	Description   string `json:"description" validate:"max=5000"`
	Duration      int64  `json:"duration" validate:"gte=0"`
	Price         int64  `json:"price" validate:"gte=0"`
	InstitutionID *uint  `json:"institution_id"`
	// EducatorID lets admins assign a course; educators always own what they create.
	EducatorID uint `json:"educator_id"`
}

type ModuleRequest struct {
	Title       string `json:"title" validate:"required,notblank,singleline,max=200"`
	Description string `json:"description" validate:"max=5000"`
	OrderIndex  int    `json:"order_index" validate:"gte=0"`
}

type LessonRequest struct {
	Title        string `json:"title" validate:"required,notblank,singleline,max=200"`
	MaterialKind string `json:"material_kind" validate:"required,oneof=video document interactive"`
	OrderIndex   int    `json:"order_index" validate:"gte=0"`
	IsActive     *bool  `json:"is_active"`
}

type ActivationRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type PerformanceRequest struct {
	Score     float64 `json:"score" validate:"gte=0"`
	MaxScore  float64 `json:"max_score" validate:"gt=0,gtefield=Score"`
	TimeSpent int64   `json:"time_spent" validate:"gte=0"`
	Completed bool    `json:"completed"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func CourseID() fiber.Handler     { return validators.ID("id", CourseIDKey) }
func ModuleID() fiber.Handler     { return validators.ID("id", ModuleIDKey) }
func LessonID() fiber.Handler     { return validators.ID("id", LessonIDKey) }
func EnrollmentID() fiber.Handler { return validators.ID("id", EnrollmentIDKey) }

func CourseList() fiber.Handler {
	return validators.Query[CourseListQuery](CourseListKey)
}

func Page() fiber.Handler {
	return validators.Query[validators.Pagination](PageKey)
}

func Course() fiber.Handler {
	return validators.Body[CourseRequest](CourseKey)
}

func Module() fiber.Handler {
	return validators.Body[ModuleRequest](ModuleKey)
}

func Lesson() fiber.Handler {
	return validators.Body[LessonRequest](LessonKey)
}

func Activation() fiber.Handler {
	return validators.Body[ActivationRequest](ActivationKey)
}

func Performance() fiber.Handler {
	return validators.Body[PerformanceRequest](PerformanceKey)
}

func Review() fiber.Handler {
	return validators.Body[ReviewRequest](ReviewKey)
}
