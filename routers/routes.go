// Package routers wires every route group onto a fiber app.
package routers

import (
	controllers "lms/controllers/course"
	"lms/controllers/payment"
	"lms/middleware"
	"lms/routers/adminRoutes"
	"lms/routers/authRoutes"
	"lms/routers/courseRoutes"
	"lms/routers/paymentRoutes"
	"lms/routers/userRoutes"

	"github.com/gofiber/fiber/v2"
)

type Services struct {
	Course  *controllers.Handlers
	Webhook *payment.Webhook
	Roles   middleware.RoleCache
}

func Setup(app *fiber.App, svc Services) {
	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app, svc.Course, svc.Roles)
	userRoutes.SetupUserRoutes(app, svc.Course)
	paymentRoutes.SetupPaymentRoutes(app, svc.Webhook)
	adminRoutes.SetupAdminRoutes(app, svc.Course, svc.Roles)
}
