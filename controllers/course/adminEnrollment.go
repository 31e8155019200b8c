package controllers

import (
	"errors"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/services/progress"
	adminValidator "lms/validators/admin"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// UpdateEnrollmentStatus pauses, resumes or cancels an enrollment.
// Completed enrollments cannot be changed.
func (h *Handlers) UpdateEnrollmentStatus(c *fiber.Ctx) error {
	enrollmentID := c.Locals(courseValidator.EnrollmentIDKey).(uint)
	reqData := c.Locals(adminValidator.EnrollmentStatusKey).(*adminValidator.EnrollmentStatusRequest)

	enrollment, err := findEnrollment(c, enrollmentID)
	if enrollment == nil {
		return err
	}
	course, err := findCourse(enrollment.CourseID)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if !canManageCourse(c, course) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}

	if err := progress.CheckTransition(enrollment.Status, reqData.Status); err != nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Cannot change enrollment from "+enrollment.Status+" to "+reqData.Status+"!", nil)
	}

	// Guard on the old status so a concurrent completion wins.
	res := database.Database.Db.Model(enrollment).
		Where("status = ?", enrollment.Status).
		Update("status", reqData.Status)
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update enrollment!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment changed concurrently, retry!", nil)
	}

	data := fiber.Map{"enrollment": enrollment}
	if reqData.Status == courseModels.EnrollmentActive {
		completion, err := h.Engine.Reconcile(c.UserContext(), enrollment.ID)
		if err != nil && !errors.Is(err, progress.ErrInvalidTransition) {
			logger.Log.Warn("[ENROLLMENT] reconcile after resume failed", "enrollment_id", enrollment.ID, "error", err)
		}
		if completion != nil {
			data["completion"] = completion
			data["enrollment"] = completion.Enrollment
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollment updated successfully!", data)
}
