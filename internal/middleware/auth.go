package middleware

import (
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/dto"
	"github.com/lacrlabs/lacr-backend/internal/identity"
	"github.com/lacrlabs/lacr-backend/internal/services"
)

// Protected verifies the Authorization bearer token against the identity
// provider and resolves the local User record, storing both in locals for
// downstream handlers.
func Protected(verifier *identity.Verifier, identityService *services.IdentityService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "No token provided or invalid format",
			})
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "No token provided",
			})
		}

		claims, err := verifier.VerifyToken(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Invalid token",
			})
		}

		user, err := identityService.Resolve(claims)
		if err != nil {
			slog.Error("identity resolution failed", "error", err, "uid", claims.UID)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
				Error: true, Message: "Failed to resolve user",
			})
		}

		c.Locals("uid", claims.UID)
		c.Locals("user", user)
		return c.Next()
	}
}
