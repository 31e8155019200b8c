package controllers

import (
	"errors"
	"math"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const maxAttemptRetries = 3

// RecordPerformance stores one attempt by the caller on a lesson, then
// reconciles the enrollment so finishing the last lesson completes the course.
func (h *Handlers) RecordPerformance(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	lessonID := c.Locals(courseValidator.LessonIDKey).(uint)
	reqData := c.Locals(courseValidator.PerformanceKey).(*courseValidator.PerformanceRequest)

	lesson, course, err := findLessonCourse(lessonID)
	if err != nil || !lesson.IsActive {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	var enrollment courseModels.Enrollment
	if err := database.Database.Db.Where("user_id = ? AND course_id = ?", userId, course.ID).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}
	if enrollment.Status == courseModels.EnrollmentPaused || enrollment.Status == courseModels.EnrollmentCancelled {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment is "+enrollment.Status+"!", nil)
	}

	performance := courseModels.LessonPerformance{
		UserID:       userId,
		LessonID:     lesson.ID,
		MaterialKind: lesson.MaterialKind,
		Score:        reqData.Score,
		MaxScore:     reqData.MaxScore,
		Percentage:   math.Round(reqData.Score/reqData.MaxScore*10000) / 100,
		TimeSpent:    reqData.TimeSpent,
		Completed:    reqData.Completed,
	}

	// The attempt number comes from the current maximum; a concurrent
	// attempt hitting the unique index just takes the next number.
	for try := 0; ; try++ {
		var last int
		err = database.Database.Db.Model(&courseModels.LessonPerformance{}).
			Where("user_id = ? AND lesson_id = ?", userId, lesson.ID).
			Select("COALESCE(MAX(attempt_number), 0)").Scan(&last).Error
		if err != nil {
			logger.Log.Error("[PERFORMANCE] attempt lookup failed", "user_id", userId, "lesson_id", lesson.ID, "error", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record performance!", nil)
		}
		performance.ID = 0
		performance.AttemptNumber = last + 1

		err = database.Database.Db.Create(&performance).Error
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) || try >= maxAttemptRetries {
			logger.Log.Error("[PERFORMANCE] record failed", "user_id", userId, "lesson_id", lesson.ID, "error", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to record performance!", nil)
		}
	}

	data := fiber.Map{"performance": performance}
	if enrollment.Status == courseModels.EnrollmentActive {
		completion, err := h.Engine.Reconcile(c.UserContext(), enrollment.ID)
		if err != nil {
			// The attempt is stored; the sweep retries the transition later.
			logger.Log.Warn("[PERFORMANCE] reconcile failed", "enrollment_id", enrollment.ID, "error", err)
		}
		if completion != nil {
			data["completion"] = completion
		}
	}
	data["progress"] = h.Engine.Snapshot(c.UserContext(), enrollment.ID, enrollment.UserID, enrollment.CourseID)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Performance recorded successfully!", data)
}
