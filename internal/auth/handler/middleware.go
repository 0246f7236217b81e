package handler

import (
	"github.com/gofiber/fiber/v2"
)

// RequireRole verifies the bearer access token and checks its role claim.
func (h *AuthHandler) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing bearer token"})
		}

		claims, err := h.tokenService.VerifyAccessToken(token)
		if err != nil {
			return writeError(c, err)
		}

		if claims.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient role"})
		}

		c.Locals("user_id", claims.Subject)

		return c.Next()
	}
}
