package device

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
)

// =============================================================================
// SettingsHandler
// =============================================================================

type SettingsHandler struct {
	deviceService *DeviceService
}

func NewSettingsHandler(deviceService *DeviceService) *SettingsHandler {
	return &SettingsHandler{deviceService: deviceService}
}

func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.deviceService.Settings(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to fetch settings")
	}
	return c.JSON(fiber.Map{"settings": settings})
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req UpdateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	settings, err := h.deviceService.UpdateSettings(c.Params("device_id"), &req)
	if err != nil {
		return deviceError(c, err, "Failed to update settings")
	}
	return c.JSON(fiber.Map{"success": true, "settings": settings, "message": "Settings updated successfully"})
}

func (h *SettingsHandler) FactoryReset(c *fiber.Ctx) error {
	device, err := h.deviceService.FactoryReset(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to reset device")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Device reset to factory settings",
		"device": fiber.Map{
			"device_id":   device.DeviceID,
			"device_name": device.DeviceName,
			"user_name":   device.UserName,
			"status":      device.Status,
		},
	})
}

func (h *SettingsHandler) GetInfo(c *fiber.Ctx) error {
	info, err := h.deviceService.Info(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to fetch device info")
	}
	return c.JSON(fiber.Map{"device_info": info})
}

func (h *SettingsHandler) StartFirmwareUpdate(c *fiber.Ctx) error {
	var req FirmwareUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	if err := h.deviceService.StartFirmwareUpdate(c.Params("device_id"), &req); err != nil {
		if errors.Is(err, ErrFirmwareURL) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return deviceError(c, err, "Failed to start firmware update")
	}

	version := req.Version
	if version == "" {
		version = "latest"
	}
	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Firmware update initiated",
		"firmware_url": req.FirmwareURL,
		"version":      version,
		"status":       "downloading",
	})
}

func (h *SettingsHandler) FirmwareStatus(c *fiber.Ctx) error {
	device, err := h.deviceService.Get(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to fetch firmware status")
	}

	status := "idle"
	if device.CurrentMode == ModeUpdating {
		status = "downloading"
	}
	return c.JSON(fiber.Map{"update_status": fiber.Map{
		"status":          status,
		"progress":        0,
		"current_version": device.FirmwareVersion,
		"last_checked":    time.Now(),
	}})
}

func (h *SettingsHandler) SyncTime(c *fiber.Ctx) error {
	var req TimeSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"time_settings": h.deviceService.SyncTime(&req),
		"message":       "Time synchronization initiated",
	})
}

// =============================================================================
// LEDHandler
// =============================================================================

type LEDHandler struct {
	ledService *LEDService
}

func NewLEDHandler(ledService *LEDService) *LEDHandler {
	return &LEDHandler{ledService: ledService}
}

func (h *LEDHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.ledService.Settings(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to fetch LED settings")
	}
	return c.JSON(fiber.Map{"led_settings": settings})
}

func (h *LEDHandler) UpdateSettings(c *fiber.Ctx) error {
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	settings, err := h.ledService.UpdateSettings(c.Params("device_id"), fields)
	if err != nil {
		return deviceError(c, err, "Failed to update LED settings")
	}
	return c.JSON(fiber.Map{"success": true, "led_settings": settings, "message": "LED settings updated successfully"})
}

func (h *LEDHandler) Control(c *fiber.Ctx) error {
	var req LEDControlRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	response, err := h.ledService.Control(c.Params("device_id"), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidAction) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return deviceError(c, err, "Failed to control LED")
	}
	return c.JSON(response)
}

func (h *LEDHandler) SetAnimation(c *fiber.Ctx) error {
	var req LEDAnimationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	settings, err := h.ledService.SetAnimation(c.Params("device_id"), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidAnimation) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return deviceError(c, err, "Failed to set LED animation")
	}
	return c.JSON(fiber.Map{
		"success":            true,
		"animation_settings": settings,
		"message":            fmt.Sprintf("LED animation set to %s", req.Animation),
	})
}

func (h *LEDHandler) GetPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"presets": h.ledService.Presets()})
}

func (h *LEDHandler) ApplyPreset(c *fiber.Ctx) error {
	presetID := c.Params("preset_id")

	preset, err := h.ledService.ApplyPreset(c.Params("device_id"), presetID)
	if err != nil {
		if errors.Is(err, ErrPresetNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return deviceError(c, err, "Failed to apply preset")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"preset":  preset,
		"message": fmt.Sprintf("Applied %s preset", presetID),
	})
}

// =============================================================================
// BuzzerHandler
// =============================================================================

type BuzzerHandler struct {
	buzzerService *BuzzerService
}

func NewBuzzerHandler(buzzerService *BuzzerService) *BuzzerHandler {
	return &BuzzerHandler{buzzerService: buzzerService}
}

func (h *BuzzerHandler) GetSettings(c *fiber.Ctx) error {
	settings, err := h.buzzerService.Settings(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to fetch buzzer settings")
	}
	return c.JSON(fiber.Map{"buzzer_settings": settings})
}

func (h *BuzzerHandler) UpdateSettings(c *fiber.Ctx) error {
	var fields map[string]interface{}
	if err := c.BodyParser(&fields); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	settings, err := h.buzzerService.UpdateSettings(c.Params("device_id"), fields)
	if err != nil {
		return deviceError(c, err, "Failed to update buzzer settings")
	}
	return c.JSON(fiber.Map{"success": true, "buzzer_settings": settings, "message": "Buzzer settings updated successfully"})
}

func (h *BuzzerHandler) Play(c *fiber.Ctx) error {
	var req BuzzerPlayRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	command, err := h.buzzerService.Play(c.Params("device_id"), &req)
	if err != nil {
		if errors.Is(err, ErrInvalidPattern) || errors.Is(err, ErrPlayParams) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return deviceError(c, err, "Failed to play buzzer pattern")
	}

	name := req.Pattern
	if name == "" {
		name = "custom"
	}
	return c.JSON(fiber.Map{
		"success":        true,
		"buzzer_command": command,
		"message":        fmt.Sprintf("Playing buzzer pattern: %s", name),
	})
}

func (h *BuzzerHandler) Stop(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "message": "Buzzer stopped"})
}

func (h *BuzzerHandler) Test(c *fiber.Ctx) error {
	req := BuzzerTestRequest{Frequency: 800, Duration: 200}
	if err := c.BodyParser(&req); err != nil && len(c.Body()) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"test_command": fiber.Map{
			"frequency": req.Frequency,
			"duration":  req.Duration,
			"repeat":    1,
			"interval":  0,
			"test":      true,
		},
		"message": "Buzzer test initiated",
	})
}

func (h *BuzzerHandler) GetPatterns(c *fiber.Ctx) error {
	patterns, err := h.buzzerService.Patterns(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to fetch buzzer patterns")
	}
	return c.JSON(fiber.Map{"patterns": patterns})
}

func (h *BuzzerHandler) CreatePattern(c *fiber.Ctx) error {
	var req CreatePatternRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	pattern, err := h.buzzerService.CreatePattern(c.Params("device_id"), &req)
	if err != nil {
		if errors.Is(err, ErrPatternFields) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return deviceError(c, err, "Failed to create buzzer pattern")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"pattern": pattern,
		"message": "Custom buzzer pattern created",
	})
}

func (h *BuzzerHandler) GetStatus(c *fiber.Ctx) error {
	status, err := h.buzzerService.Status(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to fetch buzzer status")
	}
	return c.JSON(fiber.Map{"buzzer_status": status})
}

func (h *BuzzerHandler) SetVolume(c *fiber.Ctx) error {
	var req BuzzerVolumeRequest
	if err := c.BodyParser(&req); err != nil || req.Volume == nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Volume is required"})
	}

	if err := h.buzzerService.SetVolume(c.Params("device_id"), *req.Volume); err != nil {
		if errors.Is(err, ErrInvalidVolume) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: err.Error()})
		}
		return deviceError(c, err, "Failed to set buzzer volume")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"volume":  *req.Volume,
		"message": fmt.Sprintf("Buzzer volume set to %d%%", *req.Volume),
	})
}

// =============================================================================
// WifiHandler
// =============================================================================

type WifiHandler struct {
	wifiService *WifiService
}

func NewWifiHandler(wifiService *WifiService) *WifiHandler {
	return &WifiHandler{wifiService: wifiService}
}

func (h *WifiHandler) GetConfig(c *fiber.Ctx) error {
	device, err := h.wifiService.Config(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to fetch wifi configuration")
	}
	return c.JSON(fiber.Map{
		"wifi_status":  device.Wifi.Data(),
		"last_updated": device.UpdatedAt,
	})
}

func (h *WifiHandler) UpdateConfig(c *fiber.Ctx) error {
	var req WifiConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	device, err := h.wifiService.Configure(c.Params("device_id"), &req)
	if err != nil {
		return deviceError(c, err, "Failed to update wifi configuration")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"message": "WiFi configuration updated. Device will attempt to connect.",
		"device": fiber.Map{
			"device_id":   device.DeviceID,
			"wifi_status": device.Wifi.Data(),
		},
	})
}

func (h *WifiHandler) ListNetworks(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"networks": h.wifiService.Networks()})
}

func (h *WifiHandler) TestConnection(c *fiber.Ctx) error {
	var req WifiConfigRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	result, err := h.wifiService.Test(c.Params("device_id"), req.SSID)
	if err != nil {
		return deviceError(c, err, "Failed to test wifi connection")
	}
	return c.JSON(fiber.Map{"success": true, "test_result": result})
}

func (h *WifiHandler) Disconnect(c *fiber.Ctx) error {
	device, err := h.wifiService.Disconnect(c.Params("device_id"))
	if err != nil {
		return deviceError(c, err, "Failed to disconnect wifi")
	}
	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Disconnected from WiFi",
		"wifi_status": device.Wifi.Data(),
	})
}

func deviceError(c *fiber.Ctx, err error, fallback string) error {
	if errors.Is(err, ErrDeviceNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: true, Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: true, Message: fallback})
}
