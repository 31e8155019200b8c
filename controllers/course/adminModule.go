package controllers

import (
	"lms/database"
	"lms/middleware"
	courseModels "lms/models/course"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// AdminCreateModule adds a module to the :id course.
func AdminCreateModule(c *fiber.Ctx) error {
	courseID := c.Locals(courseValidator.CourseIDKey).(uint)
	reqData := c.Locals(courseValidator.ModuleKey).(*courseValidator.ModuleRequest)

	course, err := managedCourse(c, courseID)
	if course == nil {
		return err
	}

	module := courseModels.Module{
		CourseID:    course.ID,
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  reqData.OrderIndex,
	}
	if err := database.Database.Db.Create(&module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

// managedModule loads the module and checks the caller may manage its course.
func managedModule(c *fiber.Ctx, moduleID uint) (*courseModels.Module, error) {
	var module courseModels.Module
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", moduleID, false).First(&module).Error; err != nil {
		return nil, middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
	}
	course, err := managedCourse(c, module.CourseID)
	if course == nil {
		return nil, err
	}
	return &module, nil
}

func AdminUpdateModule(c *fiber.Ctx) error {
	moduleID := c.Locals(courseValidator.ModuleIDKey).(uint)
	reqData := c.Locals(courseValidator.ModuleKey).(*courseValidator.ModuleRequest)

	module, err := managedModule(c, moduleID)
	if module == nil {
		return err
	}

	if err := database.Database.Db.Model(module).Updates(map[string]interface{}{
		"title":       reqData.Title,
		"description": reqData.Description,
		"order_index": reqData.OrderIndex,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module updated successfully!", module)
}

// AdminDeleteModule soft-deletes a module. Its lessons stop counting towards progress.
func AdminDeleteModule(c *fiber.Ctx) error {
	moduleID := c.Locals(courseValidator.ModuleIDKey).(uint)

	module, err := managedModule(c, moduleID)
	if module == nil {
		return err
	}

	if err := database.Database.Db.Model(module).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Module deleted successfully!", nil)
}
