package controllers

import (
	"errors"
	"strings"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/services/progress"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// canViewEnrollment allows the learner, admins and the course's educator.
func canViewEnrollment(c *fiber.Ctx, enrollment *courseModels.Enrollment) bool {
	userId, _ := c.Locals("userId").(uint)
	if enrollment.UserID == userId || middleware.HasRole(c, models.RoleAdmin) {
		return true
	}
	if !middleware.HasRole(c, models.RoleEducator) {
		return false
	}
	course, err := findCourse(enrollment.CourseID)
	return err == nil && course.EducatorID == userId
}

// EnrollmentProgress returns the live progress snapshot of an enrollment.
func (h *Handlers) EnrollmentProgress(c *fiber.Ctx) error {
	enrollmentID := c.Locals(courseValidator.EnrollmentIDKey).(uint)

	enrollment, err := findEnrollment(c, enrollmentID)
	if enrollment == nil {
		return err
	}
	if !canViewEnrollment(c, enrollment) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}

	snap := h.Engine.Snapshot(c.UserContext(), enrollment.ID, enrollment.UserID, enrollment.CourseID)
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", snap)
}

// IssueCertificate completes the enrollment and returns its certificate.
// Repeated calls return the same certificate with created=false.
func (h *Handlers) IssueCertificate(c *fiber.Ctx) error {
	userId, _ := c.Locals("userId").(uint)
	enrollmentID := c.Locals(courseValidator.EnrollmentIDKey).(uint)

	enrollment, err := findEnrollment(c, enrollmentID)
	if enrollment == nil {
		return err
	}
	if enrollment.UserID != userId && !middleware.HasRole(c, models.RoleAdmin) {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}

	completion, err := h.Engine.Complete(c.UserContext(), enrollment.ID)
	if err != nil {
		return certificateError(c, enrollment.ID, err)
	}

	message := "Certificate already issued."
	if completion.Created {
		message = "Certificate issued successfully!"
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, message, completion)
}

func certificateError(c *fiber.Ctx, enrollmentID uint, err error) error {
	if nc, ok := progress.IsNotComplete(err); ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Course is not complete yet!", fiber.Map{
			"progress_percentage": nc.Snapshot.ProgressPercentage,
			"completed_lessons":   nc.Snapshot.CompletedLessons,
			"total_lessons":       nc.Snapshot.TotalLessons,
		})
	}
	switch {
	case errors.Is(err, progress.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment, course or learner not found!", nil)
	case errors.Is(err, progress.ErrInvalidTransition):
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Enrollment is not active!", nil)
	default:
		logger.Log.Error("[CERTIFICATE] issuance failed", "enrollment_id", enrollmentID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue certificate!", nil)
	}
}

// UserCertificates lists the caller's certificates, newest first.
func UserCertificates(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var certificates []courseModels.Certificate
	if err := database.Database.Db.Where("user_id = ?", userId).Order("issued_at desc").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", fiber.Map{
		"certificates": certificates,
		"total":        len(certificates),
	})
}

// VerifyCertificate is public: anyone holding a code can check it.
func VerifyCertificate(c *fiber.Ctx) error {
	code := strings.ToUpper(strings.TrimSpace(c.Params("code")))
	if code == "" || len(code) > 64 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid certificate code!", nil)
	}

	var cert courseModels.Certificate
	if err := database.Database.Db.Where("code = ?", code).First(&cert).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Certificate not found!", fiber.Map{"valid": false})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate is valid.", fiber.Map{
		"valid":            true,
		"code":             cert.Code,
		"learner_name":     cert.LearnerName,
		"course_title":     cert.CourseTitle,
		"course_duration":  cert.CourseDuration,
		"educator_name":    cert.EducatorName,
		"institution_name": cert.InstitutionName,
		"final_score":      cert.FinalScore,
		"total_hours":      cert.TotalHours,
		"issued_at":        cert.IssuedAt,
	})
}
