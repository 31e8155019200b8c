package adminValidator

import (
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

const (
	UserIDKey           = "targetUserID"
	RoleKey             = "validatedRole"
	EnrollmentStatusKey = "validatedEnrollmentStatus"
)

type RoleRequest struct {
	Role string `json:"role" validate:"required,oneof=LEARNER EDUCATOR ADMIN"`
}

// EnrollmentStatusRequest only names the admin-settable states; COMPLETED is reached through certification.
type EnrollmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE PAUSED CANCELLED"`
}

func UserID() fiber.Handler {
	return validators.ID("id", UserIDKey)
}

func Role() fiber.Handler {
	return validators.Body[RoleRequest](RoleKey)
}

func EnrollmentStatus() fiber.Handler {
	return validators.Body[EnrollmentStatusRequest](EnrollmentStatusKey)
}
