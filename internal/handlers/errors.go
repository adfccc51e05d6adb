package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/MuthonduG/moti-monolythic/internal/services"
)

// httpError translates service-level sentinel errors into HTTP responses.
// Unrecognized errors propagate to the fiber error handler as 500s.
func httpError(err error) error {
	switch {
	case errors.Is(err, services.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, "email or username already exists")
	case errors.Is(err, services.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, "not found")
	case errors.Is(err, services.ErrCredentialMismatch):
		return fiber.NewError(fiber.StatusBadRequest, "invalid credentials")
	case errors.Is(err, services.ErrExpiredCredential):
		return fiber.NewError(fiber.StatusForbidden, "temporary password expired, please reset your password")
	case errors.Is(err, services.ErrInactiveAccount):
		return fiber.NewError(fiber.StatusBadRequest, "account is inactive")
	case errors.Is(err, services.ErrOtpNotFound):
		return fiber.NewError(fiber.StatusNotFound, "no otp found for this user")
	case errors.Is(err, services.ErrOtpExpired):
		return fiber.NewError(fiber.StatusBadRequest, "otp expired, please request a new one")
	case errors.Is(err, services.ErrOtpMismatch):
		return fiber.NewError(fiber.StatusBadRequest, "invalid otp")
	case errors.Is(err, services.ErrDelivery):
		return fiber.NewError(fiber.StatusInternalServerError, "failed to send email")
	default:
		return err
	}
}
