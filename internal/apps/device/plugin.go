package device

import (
	"github.com/gofiber/fiber/v2"
	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/config"
	"gorm.io/gorm"
)

type DevicePlugin struct{}

func New() *DevicePlugin {
	return &DevicePlugin{}
}

func (p *DevicePlugin) ID() string { return "device" }

func (p *DevicePlugin) Models() []interface{} {
	return []interface{}{
		&Device{},
		&Setting{},
	}
}

func (p *DevicePlugin) RegisterRoutes(router fiber.Router, db *gorm.DB, cfg *config.Config, registry *catalog.Registry) {
	deviceService := NewDeviceService(db, registry)
	ledService := NewLEDService(deviceService, db)
	buzzerService := NewBuzzerService(deviceService, db)
	wifiService := NewWifiService(deviceService, db)

	settingsHandler := NewSettingsHandler(deviceService)
	ledHandler := NewLEDHandler(ledService)
	buzzerHandler := NewBuzzerHandler(buzzerService)
	wifiHandler := NewWifiHandler(wifiService)

	// Device settings
	router.Get("/settings/:device_id/info", settingsHandler.GetInfo)
	router.Get("/settings/:device_id/firmware/status", settingsHandler.FirmwareStatus)
	router.Post("/settings/:device_id/firmware", settingsHandler.StartFirmwareUpdate)
	router.Post("/settings/:device_id/factory-reset", settingsHandler.FactoryReset)
	router.Post("/settings/:device_id/time", settingsHandler.SyncTime)
	router.Get("/settings/:device_id", settingsHandler.GetSettings)
	router.Put("/settings/:device_id", settingsHandler.UpdateSettings)

	// LED
	router.Get("/led/:device_id/settings", ledHandler.GetSettings)
	router.Post("/led/:device_id/settings", ledHandler.UpdateSettings)
	router.Post("/led/:device_id/control", ledHandler.Control)
	router.Post("/led/:device_id/animation", ledHandler.SetAnimation)
	router.Get("/led/:device_id/presets", ledHandler.GetPresets)
	router.Post("/led/:device_id/preset/:preset_id", ledHandler.ApplyPreset)

	// Buzzer
	router.Get("/buzzer/:device_id/settings", buzzerHandler.GetSettings)
	router.Post("/buzzer/:device_id/settings", buzzerHandler.UpdateSettings)
	router.Post("/buzzer/:device_id/play", buzzerHandler.Play)
	router.Post("/buzzer/:device_id/stop", buzzerHandler.Stop)
	router.Post("/buzzer/:device_id/test", buzzerHandler.Test)
	router.Get("/buzzer/:device_id/patterns", buzzerHandler.GetPatterns)
	router.Post("/buzzer/:device_id/patterns", buzzerHandler.CreatePattern)
	router.Get("/buzzer/:device_id/status", buzzerHandler.GetStatus)
	router.Post("/buzzer/:device_id/volume", buzzerHandler.SetVolume)

	// WiFi
	router.Get("/wifi/:device_id/config", wifiHandler.GetConfig)
	router.Post("/wifi/:device_id/config", wifiHandler.UpdateConfig)
	router.Get("/wifi/:device_id/networks", wifiHandler.ListNetworks)
	router.Post("/wifi/:device_id/test", wifiHandler.TestConnection)
	router.Post("/wifi/:device_id/disconnect", wifiHandler.Disconnect)
}
