package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/database"
	"github.com/lacrlabs/lacr-backend/internal/dto"
)

type HealthHandler struct {
	catalog *catalog.Registry
}

func NewHealthHandler(catalog *catalog.Registry) *HealthHandler {
	return &HealthHandler{catalog: catalog}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Models:    len(h.catalog.All()),
	})
}

func (h *HealthHandler) Ping(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message":   "Pong",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
