package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"sprachwerk/backend/services"
	"sprachwerk/backend/utils"
)

// serviceError maps the progression engine's error taxonomy onto HTTP.
func serviceError(c *fiber.Ctx, err error) error {
	var accessErr *services.AccessError
	switch {
	case errors.Is(err, services.ErrNotFound):
		return utils.NotFound(c, "Not found")
	case errors.Is(err, services.ErrAlreadyCompleted):
		return utils.Conflict(c, "Lesson already completed")
	case errors.Is(err, services.ErrLevelNotSelected):
		return utils.BadRequest(c, "Select a level first")
	case errors.As(err, &accessErr):
		return utils.ErrorWithReason(c, fiber.StatusForbidden, accessErr.Message, string(accessErr.Reason))
	default:
		return utils.InternalServerError(c, "Could not process request")
	}
}
