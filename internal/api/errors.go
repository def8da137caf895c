package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
)

// StatusFor maps a pipeline error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.Is(err, apperr.ErrParse):
		return fiber.StatusBadRequest
	case errors.Is(err, apperr.ErrConfiguration),
		errors.Is(err, apperr.ErrMissingCredential),
		errors.Is(err, apperr.ErrSerialization):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, apperr.ErrUpstream):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}
