package controllers

import (
	"errors"

	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// CourseList lists published courses. Filters compose through database scopes.
func CourseList(c *fiber.Ctx) error {
	reqData, ok := c.Locals(courseValidator.CourseListKey).(*courseValidator.CourseListQuery)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	page, limit := database.NormalizePage(reqData.Page, reqData.Limit)

	status := reqData.Status
	if status == "" {
		status = courseModels.CourseActive
	}

	db := database.Database.Db.Model(&courseModels.Course{}).Scopes(
		database.NotDeleted("courses"),
		database.WhereEq("courses.is_published", true),
		database.WhereEq("courses.status", status),
		database.WhereEq("courses.educator_id", reqData.EducatorID),
		database.Search(reqData.Search, "courses.title", "courses.description"),
	)

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

type moduleWithLessons struct {
	courseModels.Module
	Lessons []courseModels.Lesson `json:"lessons"`
}

// CourseDetail returns a course with its modules and lessons. Unpublished
// courses are visible to their educator and admins only.
func CourseDetail(c *fiber.Ctx) error {
	courseID := c.Locals(courseValidator.CourseIDKey).(uint)

	course, err := findCourse(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch course!", nil)
	}
	manager := canManageCourse(c, course)
	if !course.IsPublished && !manager {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var modules []courseModels.Module
	if err := database.Database.Db.Where("course_id = ? AND is_deleted = ?", course.ID, false).
		Order("order_index asc, id asc").Find(&modules).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch modules!", nil)
	}

	moduleIDs := make([]uint, len(modules))
	for i, m := range modules {
		moduleIDs[i] = m.ID
	}
	var lessons []courseModels.Lesson
	if len(moduleIDs) > 0 {
		q := database.Database.Db.Where("module_id IN ? AND is_deleted = ?", moduleIDs, false)
		if !manager {
			q = q.Where("is_active = ?", true)
		}
		if err := q.Order("order_index asc, id asc").Find(&lessons).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
		}
	}

	byModule := make(map[uint][]courseModels.Lesson, len(modules))
	for _, l := range lessons {
		byModule[l.ModuleID] = append(byModule[l.ModuleID], l)
	}
	result := make([]moduleWithLessons, len(modules))
	for i, m := range modules {
		result[i] = moduleWithLessons{Module: m, Lessons: byModule[m.ID]}
		if result[i].Lessons == nil {
			result[i].Lessons = []courseModels.Lesson{}
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", fiber.Map{
		"course":  course,
		"modules": result,
	})
}
