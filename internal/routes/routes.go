package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/lacrlabs/lacr-backend/internal/apps"
	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/config"
	"github.com/lacrlabs/lacr-backend/internal/handlers"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	registry *catalog.Registry,
	protect fiber.Handler,
	authHandler *handlers.AuthHandler,
	robotHandler *handlers.RobotHandler,
	esp32Handler *handlers.ESP32Handler,
	healthHandler *handlers.HealthHandler,
	statusHandler *handlers.StatusHandler,
	plugins []apps.Plugin,
) {
	// Health endpoints sit outside the rate-limited group so monitors are
	// never throttled.
	app.Get("/health", healthHandler.Check)
	app.Get("/ping", healthHandler.Ping)

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/status", statusHandler.Status)
	api.Get("/status/detailed", statusHandler.Detailed)

	// Auth — stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/verify", protect, authHandler.Verify)
	auth.Post("/dashboard-lock/set", protect, authHandler.SetDashboardLock)
	auth.Post("/dashboard-lock/validate", protect, authHandler.ValidateDashboardLock)
	auth.Post("/dashboard-lock/toggle", protect, authHandler.ToggleDashboardLock)

	// User profile
	users := api.Group("/users", protect)
	users.Get("/profile", authHandler.GetProfile)
	users.Put("/profile", authHandler.UpdateProfile)

	// Robot provisioning — owner side, all bearer-authenticated
	robot := api.Group("/robot", protect)
	robot.Post("/register", robotHandler.Register)
	robot.Post("/claim", robotHandler.Claim)
	robot.Post("/set-password", robotHandler.SetPassword)
	robot.Post("/verify-password", robotHandler.VerifyPassword)
	robot.Post("/validate-password", robotHandler.ValidatePassword)
	robot.Get("/dashboard", robotHandler.Dashboard)
	robot.Put("/update-ip", robotHandler.UpdateIP)
	robot.Post("/delete", robotHandler.Delete)
	robot.Get("/gem-status/:robot_id", robotHandler.GetStatusConfig)
	robot.Put("/gem-status/:robot_id", robotHandler.UpdateStatusConfig)

	// Device side — robots authenticate with their pairing password, not a
	// bearer token
	esp32 := api.Group("/esp32")
	esp32.Post("/setup", esp32Handler.Setup)
	esp32.Post("/authenticate", esp32Handler.Authenticate)
	esp32.Post("/heartbeat", esp32Handler.Heartbeat)
	esp32.Post("/command", esp32Handler.Command)
	esp32.Get("/status/:robot_id", esp32Handler.Status)

	// Feature plugins mount their routes under /api
	for _, p := range plugins {
		p.RegisterRoutes(api, db, cfg, registry)
	}

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Route not found",
		})
	})
}
