package authValidator

import (
	"lms/validators"

	"github.com/gofiber/fiber/v2"
)

const (
	RegisterKey = "validatedRegister"
	LoginKey    = "validatedLogin"
)

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,min=2,max=120"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func Register() fiber.Handler {
	return validators.Body[RegisterRequest](RegisterKey)
}

func Login() fiber.Handler {
	return validators.Body[LoginRequest](LoginKey)
}
