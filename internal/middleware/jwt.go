package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/entrenar-app/backend_entrenadores/internal/utils"
)

// JWTBearer reads the Authorization header, verifies the token and attaches
// userId/role/email locals for the handlers downstream.
func JWTBearer(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			return fiber.ErrUnauthorized
		}

		claims, err := utils.ParseJWT(secret, strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			return fiber.ErrUnauthorized
		}

		uid := strings.TrimSpace(claims.UserID)
		if uid == "" {
			return fiber.ErrUnauthorized
		}

		c.Locals("userId", uid)
		c.Locals("role", strings.ToLower(strings.TrimSpace(claims.Role)))
		c.Locals("email", claims.Email)
		return c.Next()
	}
}
