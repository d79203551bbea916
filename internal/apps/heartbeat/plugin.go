package heartbeat

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/config"
	"gorm.io/gorm"
)

type HeartbeatPlugin struct{}

func New() *HeartbeatPlugin {
	return &HeartbeatPlugin{}
}

func (p *HeartbeatPlugin) ID() string { return "heartbeat" }

func (p *HeartbeatPlugin) Models() []interface{} {
	return []interface{}{
		&Reading{},
	}
}

func (p *HeartbeatPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config, _ *catalog.Registry) {
	heartbeatService := NewHeartbeatService(db)
	heartbeatHandler := NewHeartbeatHandler(heartbeatService)

	router.Get("/heartbeat/:device_id/latest", heartbeatHandler.LatestReading)
	router.Get("/heartbeat/:device_id/stats", heartbeatHandler.GetStats)
	router.Get("/heartbeat/:device_id/sessions", heartbeatHandler.ListSessions)
	router.Get("/heartbeat/:device_id/trends", heartbeatHandler.GetTrends)
	router.Post("/heartbeat/:device_id/session/start", heartbeatHandler.StartSession)
	router.Post("/heartbeat/:device_id/session/stop", heartbeatHandler.StopSession)
	router.Get("/heartbeat/:device_id", heartbeatHandler.ListReadings)
	router.Post("/heartbeat/:device_id", heartbeatHandler.CreateReading)
	router.Delete("/heartbeat/:device_id", heartbeatHandler.DeleteReadings)
}
