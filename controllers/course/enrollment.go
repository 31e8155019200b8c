package controllers

import (
	"errors"
	"time"

	"lms/database"
	"lms/logger"
	"lms/middleware"
	courseModels "lms/models/course"
	"lms/services/progress"
	"lms/validators"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UpsertEnrollment creates the (user, course) enrollment unless one exists and
// returns the stored row. created is false when the row was already there.
func UpsertEnrollment(db *gorm.DB, userID, courseID uint, at time.Time) (*courseModels.Enrollment, bool, error) {
	enrollment := courseModels.Enrollment{
		UserID:     userID,
		CourseID:   courseID,
		Status:     courseModels.EnrollmentActive,
		EnrolledAt: at,
	}
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&enrollment)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected == 1

	var stored courseModels.Enrollment
	if err := db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&stored).Error; err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

// Enroll registers the caller in a free, published course. Paid courses are
// enrolled through the payment webhook.
func (h *Handlers) Enroll(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	courseID := c.Locals(courseValidator.CourseIDKey).(uint)

	course, err := findCourse(courseID)
	if err != nil || !course.IsPublished || course.Status != courseModels.CourseActive {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if course.Price > 0 {
		return middleware.JsonResponse(c, fiber.StatusPaymentRequired, false, "Payment is required to enroll in this course!", fiber.Map{
			"price": course.Price,
		})
	}

	enrollment, created, err := UpsertEnrollment(database.Database.Db.WithContext(c.UserContext()), userId, course.ID, time.Now().UTC())
	if err != nil {
		logger.Log.Error("[ENROLL] upsert failed", "user_id", userId, "course_id", course.ID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll!", nil)
	}

	if !created {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Already enrolled in this course.", fiber.Map{
			"enrollment": enrollment,
			"created":    false,
		})
	}

	if h.Notifications != nil {
		if err := h.Notifications.EnrollmentCreated(c.UserContext(), enrollment); err != nil {
			logger.Log.Warn("[ENROLL] notification failed", "enrollment_id", enrollment.ID, "error", err)
		}
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Enrolled successfully!", fiber.Map{
		"enrollment": enrollment,
		"created":    true,
	})
}

type enrollmentWithProgress struct {
	courseModels.Enrollment
	CourseTitle string            `json:"course_title"`
	Progress    progress.Snapshot `json:"progress"`
}

// UserEnrollments lists the caller's enrollments with live progress.
func (h *Handlers) UserEnrollments(c *fiber.Ctx) error {
	userId, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	reqData, _ := c.Locals(courseValidator.PageKey).(*validators.Pagination)
	page, limit := 0, 0
	if reqData != nil {
		page, limit = reqData.Page, reqData.Limit
	}
	page, limit = database.NormalizePage(page, limit)

	db := database.Database.Db.Model(&courseModels.Enrollment{}).Where("user_id = ?", userId)
	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	var enrollments []courseModels.Enrollment
	if err := db.Scopes(database.Paginate(page, limit)).Order("enrolled_at desc, id desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	courseIDs := make([]uint, len(enrollments))
	for i, e := range enrollments {
		courseIDs[i] = e.CourseID
	}
	titles := map[uint]string{}
	if len(courseIDs) > 0 {
		var courses []courseModels.Course
		if err := database.Database.Db.Select("id", "title").Where("id IN ?", courseIDs).Find(&courses).Error; err != nil {
			logger.Log.Error("[ENROLL] course titles lookup failed", "user_id", userId, "error", err)
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
		}
		for _, course := range courses {
			titles[course.ID] = course.Title
		}
	}

	result := make([]enrollmentWithProgress, len(enrollments))
	for i, e := range enrollments {
		result[i] = enrollmentWithProgress{
			Enrollment:  e,
			CourseTitle: titles[e.CourseID],
			Progress:    h.Engine.Snapshot(c.UserContext(), e.ID, e.UserID, e.CourseID),
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": result,
		"pagination":  pagination(total, page, limit),
	})
}

// findEnrollment loads an enrollment. On a nil enrollment the error response has
// already been written and err is the handler's return value.
func findEnrollment(c *fiber.Ctx, id uint) (*courseModels.Enrollment, error) {
	var enrollment courseModels.Enrollment
	err := database.Database.Db.WithContext(c.UserContext()).First(&enrollment, id).Error
	if err == nil {
		return &enrollment, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Enrollment not found!", nil)
	}
	return nil, middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollment!", nil)
}
