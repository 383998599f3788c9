package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// AccountIDKey is the fiber.Ctx locals key the middleware stores the
// authenticated account id under.
const AccountIDKey = "account_id"

// RequireToken guards a route group with bearer-token authentication.
func RequireToken(issuer *TokenIssuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get("Authorization")
		if header == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		if tokenString == header {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization header must be a bearer token",
			})
		}

		accountID, err := issuer.Parse(tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(AccountIDKey, accountID)
		return c.Next()
	}
}
