package middleware

import (
	"strings"

	"github.com/Freeeeeet/counseling_scheduler/internal/model"
	"github.com/gofiber/fiber/v2"
)

// CallerKey ключ fiber.Locals, под которым лежит model.Caller
const CallerKey = "caller"

// TokenParser проверяет bearer-токен
type TokenParser interface {
	ParseToken(token string) (model.Caller, error)
}

// AuthRequired пропускает только запросы с валидным bearer-токеном
func AuthRequired(parser TokenParser) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Missing authorization header",
			})
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid authorization header format",
			})
		}

		caller, err := parser.ParseToken(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Invalid or expired token",
			})
		}

		c.Locals(CallerKey, caller)
		return c.Next()
	}
}
