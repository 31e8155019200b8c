package paymentRoutes

import (
	"lms/controllers/payment"

	"github.com/gofiber/fiber/v2"
)

func SetupPaymentRoutes(app *fiber.App, webhook *payment.Webhook) {
	app.Post("/payments/webhook", webhook.Handle)
}
