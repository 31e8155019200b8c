package controllers

import (
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateLesson adds a lesson to the :id module. Lessons are active unless is_active=false.
func AdminCreateLesson(c *fiber.Ctx) error {
	moduleID := c.Locals(courseValidator.ModuleIDKey).(uint)
	reqData := c.Locals(courseValidator.LessonKey).(*courseValidator.LessonRequest)

	module, err := managedModule(c, moduleID)
	if module == nil {
		return err
	}

	lesson := courseModels.Lesson{
		ModuleID:     module.ID,
		Title:        reqData.Title,
		MaterialKind: reqData.MaterialKind,
		OrderIndex:   reqData.OrderIndex,
		IsActive:     true,
	}
	db := database.Database.Db
	if err := db.Create(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}
	// is_active defaults to true in the schema, so false has to be written explicitly.
	if reqData.IsActive != nil && !*reqData.IsActive {
		if err := db.Model(&lesson).Update("is_active", false).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

// managedLesson loads the lesson and checks the caller may manage its course.
func managedLesson(c *fiber.Ctx, lessonID uint) (*courseModels.Lesson, error) {
	lesson, course, err := findLessonCourse(lessonID)
	if err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}
	if !canManageCourse(c, course) {
		return nil, middleware.JsonResponse(c, fiber.StatusForbidden, false, "Access denied!", nil)
	}
	return lesson, nil
}

func AdminUpdateLesson(c *fiber.Ctx) error {
	lessonID := c.Locals(courseValidator.LessonIDKey).(uint)
	reqData := c.Locals(courseValidator.LessonKey).(*courseValidator.LessonRequest)

	lesson, err := managedLesson(c, lessonID)
	if lesson == nil {
		return err
	}

	updates := map[string]interface{}{
		"title":         reqData.Title,
		"material_kind": reqData.MaterialKind,
		"order_index":   reqData.OrderIndex,
	}
	if reqData.IsActive != nil {
		updates["is_active"] = *reqData.IsActive
	}
	if err := database.Database.Db.Model(lesson).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}

// AdminSetLessonActive toggles whether a lesson counts towards course progress.
// Completed enrollments and issued certificates are not revisited.
func AdminSetLessonActive(c *fiber.Ctx) error {
	lessonID := c.Locals(courseValidator.LessonIDKey).(uint)
	reqData := c.Locals(courseValidator.ActivationKey).(*courseValidator.ActivationRequest)

	lesson, err := managedLesson(c, lessonID)
	if lesson == nil {
		return err
	}

	if err := database.Database.Db.Model(lesson).Update("is_active", *reqData.IsActive).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson updated successfully!", lesson)
}
