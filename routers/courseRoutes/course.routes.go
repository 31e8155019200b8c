package courseRoutes

import (
	controllers "lms/controllers/course"
	"lms/middleware"
	validators "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up the learner-facing course, progress and certificate routes.
func SetupCourseRoutes(app *fiber.App, h *controllers.Handlers, roles middleware.RoleCache) {
	auth := []fiber.Handler{middleware.JWTMiddleware, middleware.LoadRoles(roles)}
	with := func(handlers ...fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, auth...), handlers...)
	}

	courseGroup := app.Group("/course")
	courseGroup.Get("/list", validators.CourseList(), controllers.CourseList)
	courseGroup.Get("/:id/rating", validators.CourseID(), controllers.CourseRating)
	courseGroup.Get("/:id", with(validators.CourseID(), controllers.CourseDetail)...)
	courseGroup.Post("/:id/enroll", with(validators.CourseID(), h.Enroll)...)
	courseGroup.Post("/:id/review", with(validators.CourseID(), validators.Review(), controllers.SubmitReview)...)

	app.Post("/lesson/:id/performance", with(validators.LessonID(), validators.Performance(), h.RecordPerformance)...)

	enrollmentGroup := app.Group("/enrollments")
	enrollmentGroup.Get("/:id/progress", with(validators.EnrollmentID(), h.EnrollmentProgress)...)
	enrollmentGroup.Post("/:id/certificate", with(validators.EnrollmentID(), h.IssueCertificate)...)

	// Public so third parties can check a certificate without an account.
	app.Get("/certificates/verify/:code", controllers.VerifyCertificate)
}
