package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/entrenar-app/backend_entrenadores/internal/domain"
)

// respondError translates a service error into the HTTP response. Handlers
// never branch on status codes themselves.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case domain.IsInvalidTransition(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "invalid input",
		})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "forbidden",
		})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "not found",
		})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "conflict",
		})
	case errors.Is(err, domain.ErrServiceUnavailable):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"success": false,
			"message": "service unavailable for hiring",
		})
	case errors.Is(err, domain.ErrNotEligible):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "not eligible",
		})
	default:
		log.Println("handler error:", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "internal server error",
		})
	}
}
