package device

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrDeviceNotFound   = errors.New("device not found")
	ErrInvalidAction    = errors.New("invalid action")
	ErrInvalidAnimation = errors.New("invalid animation type")
	ErrInvalidPattern   = errors.New("invalid pattern")
	ErrPatternFields    = errors.New("name, frequency, and duration are required")
	ErrPlayParams       = errors.New("either pattern or custom parameters required")
	ErrPresetNotFound   = errors.New("preset not found")
	ErrInvalidVolume    = errors.New("volume must be between 0 and 100")
	ErrFirmwareURL      = errors.New("firmware URL is required")
)

var validAnimations = []string{
	"none", "fade", "blink", "pulse", "rainbow",
	"color_cycle", "breathing", "strobe",
}

var builtinPatterns = []BuzzerPattern{
	{ID: "alarm", Name: "Alarm", Description: "Urgent alarm sound", Frequency: 800, Duration: 500, Repeat: 3, Interval: 200},
	{ID: "notification", Name: "Notification", Description: "General notification", Frequency: 1000, Duration: 200, Repeat: 1},
	{ID: "heartbeat", Name: "Heartbeat", Description: "Heartbeat monitoring sound", Frequency: 600, Duration: 100, Repeat: 2, Interval: 50},
	{ID: "button_press", Name: "Button Press", Description: "UI interaction feedback", Frequency: 1200, Duration: 50, Repeat: 1},
	{ID: "success", Name: "Success", Description: "Positive feedback", Frequency: 800, Duration: 100, Repeat: 2, Interval: 100},
	{ID: "error", Name: "Error", Description: "Error indication", Frequency: 400, Duration: 300, Repeat: 1},
	{ID: "warning", Name: "Warning", Description: "Warning signal", Frequency: 600, Duration: 200, Repeat: 2, Interval: 150},
}

var ledPresets = []LEDPreset{
	{ID: "warm_white", Name: "Warm White", Color: rgb(255, 223, 186), Brightness: 80},
	{ID: "cool_white", Name: "Cool White", Color: rgb(255, 255, 255), Brightness: 100},
	{ID: "red", Name: "Red", Color: rgb(255, 0, 0), Brightness: 70},
	{ID: "green", Name: "Green", Color: rgb(0, 255, 0), Brightness: 70},
	{ID: "blue", Name: "Blue", Color: rgb(0, 0, 255), Brightness: 70},
	{ID: "purple", Name: "Purple", Color: rgb(128, 0, 128), Brightness: 70},
	{ID: "night_mode", Name: "Night Mode", Color: rgb(255, 165, 0), Brightness: 20, Animation: "fade"},
}

func rgb(r, g, b int) map[string]interface{} {
	return map[string]interface{}{"r": r, "g": g, "b": b}
}

type DeviceService struct {
	db      *gorm.DB
	catalog *catalog.Registry
}

func NewDeviceService(db *gorm.DB, registry *catalog.Registry) *DeviceService {
	return &DeviceService{db: db, catalog: registry}
}

func (s *DeviceService) Get(deviceID string) (*Device, error) {
	var device Device
	err := s.db.Where("device_id = ?", deviceID).First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	return &device, nil
}

// Ensure creates the device record on first contact.
func (s *DeviceService) Ensure(deviceID, model string) (*Device, error) {
	device, err := s.Get(deviceID)
	if err == nil {
		return device, nil
	}
	if !errors.Is(err, ErrDeviceNotFound) {
		return nil, err
	}

	created := Device{DeviceID: deviceID, CurrentMode: ModeIdle, Status: "offline", BatteryLevel: 100, FirmwareVersion: "1.0.0"}
	if model != "" {
		created.Model = model
		created.DeviceName = model
	}
	if err := s.db.Create(&created).Error; err != nil {
		return nil, fmt.Errorf("failed to create device: %w", err)
	}
	return &created, nil
}

func (s *DeviceService) SetMode(deviceID, mode string) error {
	return s.db.Model(&Device{}).Where("device_id = ?", deviceID).
		Update("current_mode", mode).Error
}

// Document returns the stored settings value for a kind, seeding the row
// from the catalog default on first read.
func (s *DeviceService) Document(device *Device, kind string) (map[string]interface{}, error) {
	var setting Setting
	err := s.db.Where("device_id = ? AND kind = ?", device.DeviceID, kind).First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load %s settings: %w", kind, err)
		}
		value, version := s.catalog.DefaultSetting(device.Model, kind)
		if value == nil {
			value = json.RawMessage("{}")
			version = 1
		}
		setting = Setting{
			DeviceID:      device.DeviceID,
			Kind:          kind,
			SchemaVersion: version,
			Value:         datatypes.JSON(value),
		}
		if err := s.db.Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("failed to seed %s settings: %w", kind, err)
		}
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(setting.Value, &doc); err != nil {
		return nil, fmt.Errorf("corrupt %s settings document: %w", kind, err)
	}
	return doc, nil
}

// Merge overlays the given fields onto the stored settings document.
func (s *DeviceService) Merge(device *Device, kind string, fields map[string]interface{}) (map[string]interface{}, error) {
	doc, err := s.Document(device, kind)
	if err != nil {
		return nil, err
	}
	for key, value := range fields {
		doc[key] = value
	}
	if err := s.saveDocument(device.DeviceID, kind, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *DeviceService) saveDocument(deviceID, kind string, doc map[string]interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode %s settings: %w", kind, err)
	}
	return s.db.Model(&Setting{}).
		Where("device_id = ? AND kind = ?", deviceID, kind).
		Update("value", datatypes.JSON(raw)).Error
}

// Settings returns the general settings document plus the device identity
// fields kept on the device row itself.
func (s *DeviceService) Settings(deviceID string) (map[string]interface{}, error) {
	device, err := s.Get(deviceID)
	if err != nil {
		return nil, err
	}

	doc, err := s.Document(device, "general")
	if err != nil {
		return nil, err
	}
	doc["device_name"] = device.DeviceName
	doc["user_name"] = device.UserName
	doc["firmware_version"] = device.FirmwareVersion
	return doc, nil
}

func (s *DeviceService) UpdateSettings(deviceID string, req *UpdateSettingsRequest) (map[string]interface{}, error) {
	device, err := s.Get(deviceID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.DeviceName != "" {
		updates["device_name"] = req.DeviceName
		device.DeviceName = req.DeviceName
	}
	if req.UserName != "" {
		updates["user_name"] = req.UserName
		device.UserName = req.UserName
	}
	if len(updates) > 0 {
		if err := s.db.Model(device).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update device: %w", err)
		}
	}

	doc, err := s.Document(device, "general")
	if err != nil {
		return nil, err
	}
	if len(req.General) > 0 {
		doc, err = s.Merge(device, "general", req.General)
		if err != nil {
			return nil, err
		}
	}
	doc["device_name"] = device.DeviceName
	doc["user_name"] = device.UserName
	doc["firmware_version"] = device.FirmwareVersion
	return doc, nil
}

// FactoryReset restores the device row and drops all settings documents so
// the catalog defaults apply again on next read.
func (s *DeviceService) FactoryReset(deviceID string) (*Device, error) {
	device, err := s.Get(deviceID)
	if err != nil {
		return nil, err
	}

	displayName := device.Model
	if displayName == "" {
		displayName = "GEM"
	}
	updates := map[string]interface{}{
		"device_name":   displayName,
		"user_name":     "User",
		"status":        "offline",
		"battery_level": 100,
		"current_mode":  ModeIdle,
		"wifi":          datatypes.NewJSONType(WifiStatus{}),
	}
	if err := s.db.Model(device).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to reset device: %w", err)
	}
	if err := s.db.Where("device_id = ?", deviceID).Delete(&Setting{}).Error; err != nil {
		return nil, fmt.Errorf("failed to reset settings: %w", err)
	}
	return s.Get(deviceID)
}

func (s *DeviceService) Info(deviceID string) (map[string]interface{}, error) {
	device, err := s.Get(deviceID)
	if err != nil {
		return nil, err
	}

	serialSuffix := device.DeviceID
	if len(serialSuffix) > 8 {
		serialSuffix = serialSuffix[len(serialSuffix)-8:]
	}

	return map[string]interface{}{
		"device_id":         device.DeviceID,
		"device_name":       device.DeviceName,
		"firmware_version":  device.FirmwareVersion,
		"hardware_version":  "1.0",
		"serial_number":     fmt.Sprintf("%s-%s", device.Model, serialSuffix),
		"manufactured_date": device.CreatedAt,
		"last_seen":         device.LastSeen,
	}, nil
}

func (s *DeviceService) StartFirmwareUpdate(deviceID string, req *FirmwareUpdateRequest) error {
	if req.FirmwareURL == "" {
		return ErrFirmwareURL
	}
	if _, err := s.Get(deviceID); err != nil {
		return err
	}
	return s.SetMode(deviceID, ModeUpdating)
}

func (s *DeviceService) SyncTime(req *TimeSyncRequest) map[string]interface{} {
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	server := req.NTPServer
	if server == "" {
		server = "pool.ntp.org"
	}
	return map[string]interface{}{
		"timezone":   timezone,
		"ntp_server": server,
		"synced_at":  time.Now(),
	}
}

// =============================================================================
// LEDService
// =============================================================================

type LEDService struct {
	devices *DeviceService
	db      *gorm.DB
}

func NewLEDService(devices *DeviceService, db *gorm.DB) *LEDService {
	return &LEDService{devices: devices, db: db}
}

func (s *LEDService) Settings(deviceID string) (map[string]interface{}, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}
	return s.devices.Document(device, "led")
}

func (s *LEDService) UpdateSettings(deviceID string, fields map[string]interface{}) (map[string]interface{}, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}

	doc, err := s.devices.Merge(device, "led", fields)
	if err != nil {
		return nil, err
	}
	if err := s.devices.SetMode(deviceID, ModeLamp); err != nil {
		return nil, err
	}
	return doc, nil
}

// Control applies a direct on/off/brightness/color command and flips the
// device mode accordingly.
func (s *LEDService) Control(deviceID string, req *LEDControlRequest) (map[string]interface{}, error) {
	if _, err := s.devices.Get(deviceID); err != nil {
		return nil, err
	}

	response := map[string]interface{}{"success": true}
	mode := ModeLamp

	switch req.Action {
	case "on":
		response["state"] = "on"
		response["brightness"] = valueOr(req.Brightness, 100)
		response["color"] = colorOr(req.Color)
	case "off":
		response["state"] = "off"
		mode = ModeIdle
	case "brightness":
		response["brightness"] = valueOr(req.Brightness, 50)
	case "color":
		response["color"] = colorOr(req.Color)
	default:
		return nil, ErrInvalidAction
	}

	if err := s.devices.SetMode(deviceID, mode); err != nil {
		return nil, err
	}
	return response, nil
}

func (s *LEDService) SetAnimation(deviceID string, req *LEDAnimationRequest) (map[string]interface{}, error) {
	valid := false
	for _, animation := range validAnimations {
		if animation == req.Animation {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrInvalidAnimation
	}

	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}

	speed := 1
	if req.Speed != nil {
		speed = *req.Speed
	}
	colors := req.Colors
	if len(colors) == 0 {
		colors = []map[string]interface{}{rgb(255, 255, 255)}
	}

	settings := map[string]interface{}{
		"animation":        req.Animation,
		"animation_speed":  speed,
		"animation_colors": colors,
	}
	if _, err := s.devices.Merge(device, "led", settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (s *LEDService) Presets() []LEDPreset {
	return ledPresets
}

func (s *LEDService) ApplyPreset(deviceID, presetID string) (*LEDPreset, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}

	for _, preset := range ledPresets {
		if preset.ID != presetID {
			continue
		}
		fields := map[string]interface{}{
			"color":      preset.Color,
			"brightness": preset.Brightness,
		}
		if preset.Animation != "" {
			fields["animation"] = preset.Animation
		}
		if _, err := s.devices.Merge(device, "led", fields); err != nil {
			return nil, err
		}
		if err := s.devices.SetMode(deviceID, ModeLamp); err != nil {
			return nil, err
		}
		return &preset, nil
	}
	return nil, ErrPresetNotFound
}

func valueOr(v *int, fallback int) int {
	if v != nil {
		return *v
	}
	return fallback
}

func colorOr(color map[string]interface{}) map[string]interface{} {
	if len(color) > 0 {
		return color
	}
	return rgb(255, 255, 255)
}

// =============================================================================
// BuzzerService
// =============================================================================

type BuzzerService struct {
	devices *DeviceService
	db      *gorm.DB
}

func NewBuzzerService(devices *DeviceService, db *gorm.DB) *BuzzerService {
	return &BuzzerService{devices: devices, db: db}
}

func (s *BuzzerService) Settings(deviceID string) (map[string]interface{}, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}
	return s.devices.Document(device, "buzzer")
}

func (s *BuzzerService) UpdateSettings(deviceID string, fields map[string]interface{}) (map[string]interface{}, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}
	return s.devices.Merge(device, "buzzer", fields)
}

// Play resolves the requested pattern (built-in, custom, or ad hoc) into
// the command the robot will execute and marks the device busy.
func (s *BuzzerService) Play(deviceID string, req *BuzzerPlayRequest) (*BuzzerPattern, error) {
	if _, err := s.devices.Get(deviceID); err != nil {
		return nil, err
	}

	var command *BuzzerPattern
	if req.Pattern != "" {
		patterns, err := s.Patterns(deviceID)
		if err != nil {
			return nil, err
		}
		for i := range patterns {
			if patterns[i].ID == req.Pattern {
				command = &patterns[i]
				break
			}
		}
		if command == nil {
			return nil, ErrInvalidPattern
		}
	} else if req.CustomFrequency > 0 && req.CustomDuration > 0 {
		repeat := req.CustomRepeat
		if repeat == 0 {
			repeat = 1
		}
		command = &BuzzerPattern{
			Frequency: req.CustomFrequency,
			Duration:  req.CustomDuration,
			Repeat:    repeat,
		}
	} else {
		return nil, ErrPlayParams
	}

	if err := s.devices.SetMode(deviceID, ModeAlarm); err != nil {
		return nil, err
	}
	return command, nil
}

// Patterns returns the built-in repertoire plus any custom patterns saved
// for the device.
func (s *BuzzerService) Patterns(deviceID string) ([]BuzzerPattern, error) {
	patterns := make([]BuzzerPattern, len(builtinPatterns))
	copy(patterns, builtinPatterns)

	var setting Setting
	err := s.db.Where("device_id = ? AND kind = ?", deviceID, "buzzer_patterns").First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return patterns, nil
		}
		return nil, fmt.Errorf("failed to load custom patterns: %w", err)
	}

	var custom []BuzzerPattern
	if err := json.Unmarshal(setting.Value, &custom); err != nil {
		return nil, fmt.Errorf("corrupt custom patterns document: %w", err)
	}
	return append(patterns, custom...), nil
}

func (s *BuzzerService) CreatePattern(deviceID string, req *CreatePatternRequest) (*BuzzerPattern, error) {
	if req.Name == "" || req.Frequency == 0 || req.Duration == 0 {
		return nil, ErrPatternFields
	}
	if _, err := s.devices.Get(deviceID); err != nil {
		return nil, err
	}

	repeat := req.Repeat
	if repeat == 0 {
		repeat = 1
	}
	pattern := BuzzerPattern{
		ID:          fmt.Sprintf("custom_%d", time.Now().UnixMilli()),
		Name:        req.Name,
		Description: req.Description,
		Frequency:   req.Frequency,
		Duration:    req.Duration,
		Repeat:      repeat,
		Interval:    req.Interval,
		Custom:      true,
	}

	var setting Setting
	err := s.db.Where("device_id = ? AND kind = ?", deviceID, "buzzer_patterns").First(&setting).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to load custom patterns: %w", err)
		}
		raw, _ := json.Marshal([]BuzzerPattern{pattern})
		setting = Setting{DeviceID: deviceID, Kind: "buzzer_patterns", SchemaVersion: 1, Value: datatypes.JSON(raw)}
		if err := s.db.Create(&setting).Error; err != nil {
			return nil, fmt.Errorf("failed to save custom pattern: %w", err)
		}
		return &pattern, nil
	}

	var custom []BuzzerPattern
	if err := json.Unmarshal(setting.Value, &custom); err != nil {
		return nil, fmt.Errorf("corrupt custom patterns document: %w", err)
	}
	custom = append(custom, pattern)
	raw, _ := json.Marshal(custom)
	err = s.db.Model(&Setting{}).
		Where("device_id = ? AND kind = ?", deviceID, "buzzer_patterns").
		Update("value", datatypes.JSON(raw)).Error
	if err != nil {
		return nil, fmt.Errorf("failed to save custom pattern: %w", err)
	}
	return &pattern, nil
}

func (s *BuzzerService) SetVolume(deviceID string, volume int) error {
	if volume < 0 || volume > 100 {
		return ErrInvalidVolume
	}
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return err
	}
	_, err = s.devices.Merge(device, "buzzer", map[string]interface{}{"volume": volume})
	return err
}

func (s *BuzzerService) Status(deviceID string) (map[string]interface{}, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}

	doc, err := s.devices.Document(device, "buzzer")
	if err != nil {
		return nil, err
	}

	volume := 70
	if v, ok := doc["volume"].(float64); ok {
		volume = int(v)
	}
	return map[string]interface{}{
		"is_playing":      device.CurrentMode == ModeAlarm,
		"current_pattern": nil,
		"volume":          volume,
		"battery_level":   device.BatteryLevel,
	}, nil
}

// =============================================================================
// WifiService
// =============================================================================

type WifiService struct {
	devices *DeviceService
	db      *gorm.DB
}

func NewWifiService(devices *DeviceService, db *gorm.DB) *WifiService {
	return &WifiService{devices: devices, db: db}
}

func (s *WifiService) Config(deviceID string) (*Device, error) {
	return s.devices.Get(deviceID)
}

// Configure stores the target network. The robot picks it up and reports
// back once connected, so connected flips to false here.
func (s *WifiService) Configure(deviceID string, req *WifiConfigRequest) (*Device, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}

	status := device.Wifi.Data()
	status.Connected = false
	status.SSID = req.SSID
	return s.saveStatus(device, status)
}

// Networks is the scan result placeholder until the robot relays real scans.
func (s *WifiService) Networks() []map[string]interface{} {
	return []map[string]interface{}{
		{"ssid": "HomeWiFi", "signal_strength": -45, "security": "WPA2"},
		{"ssid": "OfficeWiFi", "signal_strength": -60, "security": "WPA2"},
		{"ssid": "GuestNetwork", "signal_strength": -70, "security": "WPA2"},
	}
}

func (s *WifiService) Test(deviceID, ssid string) (map[string]interface{}, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}

	result := map[string]interface{}{
		"success":         true,
		"ping":            25,
		"signal_strength": -45,
		"ip_address":      "192.168.1.100",
	}

	status := device.Wifi.Data()
	status.Connected = true
	status.SSID = ssid
	status.SignalStrength = -45
	if _, err := s.saveStatus(device, status); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *WifiService) Disconnect(deviceID string) (*Device, error) {
	device, err := s.devices.Get(deviceID)
	if err != nil {
		return nil, err
	}
	return s.saveStatus(device, WifiStatus{})
}

func (s *WifiService) saveStatus(device *Device, status WifiStatus) (*Device, error) {
	device.Wifi = datatypes.NewJSONType(status)
	if err := s.db.Model(device).Update("wifi", device.Wifi).Error; err != nil {
		return nil, fmt.Errorf("failed to update wifi status: %w", err)
	}
	return device, nil
}
