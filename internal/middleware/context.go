package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/models"
)

// GetUID extracts the verified identity-provider uid from context locals.
func GetUID(c *fiber.Ctx) (string, error) {
	uid, ok := c.Locals("uid").(string)
	if !ok || uid == "" {
		return "", errors.New("no verified identity in context")
	}
	return uid, nil
}

// GetUser extracts the resolved User record from context locals.
func GetUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals("user").(*models.User)
	if !ok || user == nil {
		return nil, errors.New("no resolved user in context")
	}
	return user, nil
}
