package controllers

import (
	"time"

	"lms/database"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
)

// AdminDashboardStats summarises courses, enrollments and certificates.
// Period counters use UTC day, week and month boundaries.
func AdminDashboardStats(c *fiber.Ctx) error {
	db := database.Database.Db
	at := now.With(time.Now().UTC())
	today, week, month := at.BeginningOfDay(), at.BeginningOfWeek(), at.BeginningOfMonth()

	var totalCourses, publishedCourses, totalLearners, totalEducators int64
	db.Model(&courseModels.Course{}).Where("is_deleted = ?", false).Count(&totalCourses)
	db.Model(&courseModels.Course{}).Where("is_deleted = ? AND is_published = ?", false, true).Count(&publishedCourses)
	db.Model(&models.User{}).Where("is_deleted = ? AND role = ?", false, models.RoleLearner).Count(&totalLearners)
	db.Model(&models.User{}).Where("is_deleted = ? AND role = ?", false, models.RoleEducator).Count(&totalEducators)

	var byStatus []struct {
		Status string
		Count  int64
	}
	db.Model(&courseModels.Enrollment{}).Select("status, COUNT(*) AS count").Group("status").Scan(&byStatus)
	enrollments := fiber.Map{
		courseModels.EnrollmentActive:    int64(0),
		courseModels.EnrollmentCompleted: int64(0),
		courseModels.EnrollmentPaused:    int64(0),
		courseModels.EnrollmentCancelled: int64(0),
	}
	var totalEnrollments int64
	for _, s := range byStatus {
		enrollments[s.Status] = s.Count
		totalEnrollments += s.Count
	}

	countSince := func(model interface{}, column string, since time.Time) int64 {
		var n int64
		db.Model(model).Where(column+" >= ?", since).Count(&n)
		return n
	}

	var revenue int64
	db.Model(&models.Transactions{}).Where("status = ?", models.TransactionCompleted).
		Select("COALESCE(SUM(amount), 0)").Scan(&revenue)

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Dashboard stats fetched successfully!", fiber.Map{
		"courses": fiber.Map{
			"total":     totalCourses,
			"published": publishedCourses,
		},
		"users": fiber.Map{
			"learners":  totalLearners,
			"educators": totalEducators,
		},
		"enrollments": fiber.Map{
			"total":      totalEnrollments,
			"by_status":  enrollments,
			"today":      countSince(&courseModels.Enrollment{}, "enrolled_at", today),
			"this_week":  countSince(&courseModels.Enrollment{}, "enrolled_at", week),
			"this_month": countSince(&courseModels.Enrollment{}, "enrolled_at", month),
		},
		"certificates": fiber.Map{
			"total":      countSince(&courseModels.Certificate{}, "issued_at", time.Time{}),
			"today":      countSince(&courseModels.Certificate{}, "issued_at", today),
			"this_week":  countSince(&courseModels.Certificate{}, "issued_at", week),
			"this_month": countSince(&courseModels.Certificate{}, "issued_at", month),
		},
		"revenue": revenue,
	})
}
