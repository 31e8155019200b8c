package userRoutes

import (
	courseControllers "lms/controllers/course"
	"lms/controllers/userControllers"
	"lms/middleware"
	"lms/validators"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, h *courseControllers.Handlers) {
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, courseValidator.Page(), h.UserEnrollments)
	userGroup.Get("/certificates", middleware.JWTMiddleware, courseControllers.UserCertificates)

	notificationGroup := app.Group("/notifications")
	notificationGroup.Get("/", middleware.JWTMiddleware, courseValidator.Page(), userControllers.ListNotifications)
	notificationGroup.Patch("/:id/read", middleware.JWTMiddleware, validators.ID("id", userControllers.NotificationIDKey), userControllers.MarkNotificationRead)
}
