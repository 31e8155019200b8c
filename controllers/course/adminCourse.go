package controllers

import (
	"lms/database"
	"lms/logger"
	"lms/middleware"
	"lms/models"
	courseModels "lms/models/course"
	"lms/validators"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// managedCourse loads the :id course and checks the caller may manage it.
// On a nil course the response has been written and err is the handler's result.
func managedCourse(c *fiber.Ctx, courseID uint) (*courseModels.Course, error) {
	course, err := findCourse(courseID)
	if err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}
	if !canManageCourse(c, course) {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}
	return course, nil
}

// AdminCreateCourse creates a draft course. Educators own what they create;
// admins may assign another educator.
func AdminCreateCourse(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	reqData := c.Locals(courseValidator.CourseKey).(*courseValidator.CourseRequest)

	educatorID := userId
	if reqData.EducatorID != 0 && reqData.EducatorID != userId {
		if !middleware.HasRole(c, models.RoleAdmin) {
			return middleware.JsonResponse(c, fiber.StatusForbidden, false, "Only admins can assign another educator!", nil)
		}
		var educator models.User
		if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND role IN ?", reqData.EducatorID, false,
			[]string{models.RoleEducator, models.RoleAdmin}).First(&educator).Error; err != nil {
			return middleware.ValidationErrorResponse(c, map[string]string{"educator_id": "educator not found"})
		}
		educatorID = educator.ID
	}

	course := courseModels.Course{
		Title:         reqData.Title,
		Description:   reqData.Description,
		EducatorID:    educatorID,
		InstitutionID: reqData.InstitutionID,
		Duration:      reqData.Duration,
		Price:         reqData.Price,
		Status:        courseModels.CourseDraft,
		IsPublished:   false,
	}
	if err := database.Database.Db.Create(&course).Error; err != nil {
		logger.Log.Error("[COURSE] create failed", "educator_id", educatorID, "error", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// AdminUpdateCourse replaces the editable course fields.
func AdminUpdateCourse(c *fiber.Ctx) error {
	courseID := c.Locals(courseValidator.CourseIDKey).(uint)
	reqData := c.Locals(courseValidator.CourseKey).(*courseValidator.CourseRequest)

	course, err := managedCourse(c, courseID)
	if course == nil {
		return err
	}

	updates := map[string]interface{}{
		"title":          reqData.Title,
		"description":    reqData.Description,
		"duration":       reqData.Duration,
		"price":          reqData.Price,
		"institution_id": reqData.InstitutionID,
	}
	if err := database.Database.Db.Model(course).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// AdminPublishCourse makes a course visible and open for enrollment.
func AdminPublishCourse(c *fiber.Ctx) error {
	return setCourseStatus(c, courseModels.CourseActive, true, "Course published successfully!")
}

// AdminArchiveCourse hides a course. Existing enrollments keep working.
func AdminArchiveCourse(c *fiber.Ctx) error {
	return setCourseStatus(c, courseModels.CourseArchived, false, "Course archived successfully!")
}

func setCourseStatus(c *fiber.Ctx, status string, published bool, message string) error {
	courseID := c.Locals(courseValidator.CourseIDKey).(uint)

	course, err := managedCourse(c, courseID)
	if course == nil {
		return err
	}

	if err := database.Database.Db.Model(course).Updates(map[string]interface{}{
		"status":       status,
		"is_published": published,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, message, course)
}

// AdminCourseList lists every course for admins and the caller's own courses for educators.
func AdminCourseList(c *fiber.Ctx) error {
	userId := c.Locals("userId").(uint)
	reqData, _ := c.Locals(courseValidator.PageKey).(*validators.Pagination)
	page, limit := 0, 0
	if reqData != nil {
		page, limit = reqData.Page, reqData.Limit
	}
	page, limit = database.NormalizePage(page, limit)

	db := database.Database.Db.Model(&courseModels.Course{}).Scopes(database.NotDeleted("courses"))
	if !middleware.HasRole(c, models.RoleAdmin) {
		db = db.Scopes(database.WhereEq("courses.educator_id", userId))
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}
	var courses []courseModels.Course
	if err := db.Scopes(database.Paginate(page, limit)).Order("created_at desc").Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses":    courses,
		"pagination": pagination(total, page, limit),
	})
}
