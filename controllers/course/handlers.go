package controllers

import (
	"context"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/progress"

	"github.com/gofiber/fiber/v2"
)

// EnrollmentNotifier is told about newly created enrollments.
type EnrollmentNotifier interface {
	EnrollmentCreated(ctx context.Context, enrollment *courseModels.Enrollment) error
}

// Handlers carries the services shared by the course endpoints.
type Handlers struct {
	Engine        *progress.Engine
	Notifications EnrollmentNotifier
}

func NewHandlers(engine *progress.Engine, notifications EnrollmentNotifier) *Handlers {
	return &Handlers{Engine: engine, Notifications: notifications}
}

// canManageCourse reports whether the caller is an admin or the course's educator.
func canManageCourse(c *fiber.Ctx, course *courseModels.Course) bool {
	if middleware.HasRole(c, models.RoleAdmin) {
		return true
	}
	userId, _ := c.Locals("userId").(uint)
	return middleware.HasRole(c, models.RoleEducator) && course.EducatorID == userId
}

func findCourse(id uint) (*courseModels.Course, error) {
	var course courseModels.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", id, false).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// findLessonCourse resolves the course a lesson belongs to through its module.
func findLessonCourse(lessonID uint) (*courseModels.Lesson, *courseModels.Course, error) {
	var lesson courseModels.Lesson
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return nil, nil, err
	}
	var module courseModels.Module
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", lesson.ModuleID, false).First(&module).Error; err != nil {
		return nil, nil, err
	}
	course, err := findCourse(module.CourseID)
	if err != nil {
		return nil, nil, err
	}
	return &lesson, course, nil
}

func pagination(total int64, page, limit int) fiber.Map {
	return fiber.Map{
		"total": total,
		"page":  page,
		"limit": limit,
	}
}
