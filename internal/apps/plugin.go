package apps

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/config"
	"gorm.io/gorm"
)

// Plugin defines the interface every feature module must implement.
// Feature routes are mounted under /api and are device-scoped.
type Plugin interface {
	// ID returns the unique feature identifier (also the route prefix).
	ID() string

	// Models returns the list of GORM model pointers for AutoMigrate.
	Models() []interface{}

	// RegisterRoutes mounts feature routes on the given Fiber group.
	RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config, catalog *catalog.Registry)
}
