package adminRoutes

import (
	controllers "lms/controllers/course"
	"lms/controllers/superAdmin"
	"lms/middleware"
	"lms/models"
	adminValidator "lms/validators/admin"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes sets up course management for educators and admins, plus admin-only user management.
func SetupAdminRoutes(app *fiber.App, h *controllers.Handlers, roles middleware.RoleCache) {
	staff := []fiber.Handler{middleware.JWTMiddleware, middleware.RequireRole(roles, models.RoleAdmin, models.RoleEducator)}
	adminOnly := []fiber.Handler{middleware.JWTMiddleware, middleware.RequireRole(roles, models.RoleAdmin)}
	chain := func(guard []fiber.Handler, handlers ...fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, guard...), handlers...)
	}

	adminGroup := app.Group("/admin")

	adminGroup.Get("/course/list", chain(staff, validators.Page(), controllers.AdminCourseList)...)
	adminGroup.Post("/course", chain(staff, validators.Course(), controllers.AdminCreateCourse)...)
	adminGroup.Put("/course/:id", chain(staff, validators.CourseID(), validators.Course(), controllers.AdminUpdateCourse)...)
	adminGroup.Patch("/course/:id/publish", chain(staff, validators.CourseID(), controllers.AdminPublishCourse)...)
	adminGroup.Patch("/course/:id/archive", chain(staff, validators.CourseID(), controllers.AdminArchiveCourse)...)

	adminGroup.Post("/course/:id/module", chain(staff, validators.CourseID(), validators.Module(), controllers.AdminCreateModule)...)
	adminGroup.Put("/module/:id", chain(staff, validators.ModuleID(), validators.Module(), controllers.AdminUpdateModule)...)
	adminGroup.Delete("/module/:id", chain(staff, validators.ModuleID(), controllers.AdminDeleteModule)...)

	adminGroup.Post("/module/:id/lesson", chain(staff, validators.ModuleID(), validators.Lesson(), controllers.AdminCreateLesson)...)
	adminGroup.Put("/lesson/:id", chain(staff, validators.LessonID(), validators.Lesson(), controllers.AdminUpdateLesson)...)
	adminGroup.Patch("/lesson/:id/active", chain(staff, validators.LessonID(), validators.Activation(), controllers.AdminSetLessonActive)...)

	adminGroup.Patch("/enrollments/:id/status", chain(staff, validators.EnrollmentID(), adminValidator.EnrollmentStatus(), h.UpdateEnrollmentStatus)...)

	adminGroup.Put("/users/:id/role", chain(adminOnly, adminValidator.UserID(), adminValidator.Role(), superAdmin.UpdateUserRole(roles))...)
	adminGroup.Get("/dashboard/stats", chain(adminOnly, controllers.AdminDashboardStats)...)
}
