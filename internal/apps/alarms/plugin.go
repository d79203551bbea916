package alarms

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/config"
	"gorm.io/gorm"
)

type AlarmsPlugin struct{}

func New() *AlarmsPlugin {
	return &AlarmsPlugin{}
}

func (p *AlarmsPlugin) ID() string { return "alarms" }

func (p *AlarmsPlugin) Models() []interface{} {
	return []interface{}{
		&Alarm{},
	}
}

func (p *AlarmsPlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config, _ *catalog.Registry) {
	alarmService := NewAlarmService(db)
	alarmHandler := NewAlarmHandler(alarmService)

	// "next" before the alarm_id routes so it is not swallowed as an ID
	router.Get("/alarms/:device_id/next", alarmHandler.NextAlarm)
	router.Get("/alarms/:device_id", alarmHandler.ListAlarms)
	router.Post("/alarms/:device_id", alarmHandler.CreateAlarm)
	router.Put("/alarms/:device_id/:alarm_id", alarmHandler.UpdateAlarm)
	router.Delete("/alarms/:device_id/:alarm_id", alarmHandler.DeleteAlarm)
	router.Patch("/alarms/:device_id/:alarm_id/toggle", alarmHandler.ToggleAlarm)
}
