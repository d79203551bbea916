package device

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ModeIdle      = "idle"
	ModeHeartbeat = "heartbeat"
	ModeLamp      = "lamp"
	ModeAlarm     = "alarm"
	ModeWifiSetup = "wifi_setup"
	ModeChat      = "gemini"
	ModeUpdating  = "updating"
)

// WifiStatus is the connection state last reported by or pushed to a device.
type WifiStatus struct {
	Connected      bool   `json:"connected"`
	SSID           string `json:"ssid"`
	SignalStrength int    `json:"signal_strength"`
}

// Device is the per-unit state record for a companion robot, keyed by the
// same device ID the feature routes use.
type Device struct {
	ID              uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID        string                            `gorm:"uniqueIndex;not null" json:"device_id"`
	DeviceName      string                            `gorm:"default:'GEM'" json:"device_name"`
	UserName        string                            `gorm:"default:'User'" json:"user_name"`
	Model           string                            `gorm:"default:'GEM'" json:"model"`
	Status          string                            `gorm:"default:'offline'" json:"status"`
	LastSeen        time.Time                         `json:"last_seen"`
	BatteryLevel    int                               `gorm:"default:100" json:"battery_level"`
	Wifi            datatypes.JSONType[WifiStatus]    `json:"wifi_status"`
	CurrentMode     string                            `gorm:"default:'idle'" json:"current_mode"`
	FirmwareVersion string                            `gorm:"default:'1.0.0'" json:"firmware_version"`
	CreatedAt       time.Time                         `json:"created_at"`
	UpdatedAt       time.Time                         `json:"updated_at"`
}

func (d *Device) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.LastSeen.IsZero() {
		d.LastSeen = time.Now()
	}
	return nil
}

// Setting is one versioned settings document for a device. Kind is the
// settings family (led, buzzer, general, buzzer_patterns) and Value the
// JSON value object, seeded from the catalog defaults on first read.
type Setting struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID      string         `gorm:"uniqueIndex:idx_settings_device_kind,priority:1;not null" json:"device_id"`
	Kind          string         `gorm:"uniqueIndex:idx_settings_device_kind,priority:2;not null" json:"kind"`
	SchemaVersion int            `gorm:"default:1" json:"schema_version"`
	Value         datatypes.JSON `json:"value"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Setting) TableName() string { return "device_settings" }

func (s *Setting) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

type UpdateSettingsRequest struct {
	DeviceName string                 `json:"device_name"`
	UserName   string                 `json:"user_name"`
	General    map[string]interface{} `json:"general"`
}

type LEDControlRequest struct {
	Action     string                 `json:"action"`
	Brightness *int                   `json:"brightness"`
	Color      map[string]interface{} `json:"color"`
}

type LEDAnimationRequest struct {
	Animation string                   `json:"animation"`
	Speed     *int                     `json:"speed"`
	Colors    []map[string]interface{} `json:"colors"`
}

type BuzzerPlayRequest struct {
	Pattern         string `json:"pattern"`
	CustomFrequency int    `json:"custom_frequency"`
	CustomDuration  int    `json:"custom_duration"`
	CustomRepeat    int    `json:"custom_repeat"`
}

type BuzzerTestRequest struct {
	Frequency int `json:"frequency"`
	Duration  int `json:"duration"`
}

type BuzzerVolumeRequest struct {
	Volume *int `json:"volume"`
}

// BuzzerPattern is a tone sequence the robot can play.
type BuzzerPattern struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Frequency   int    `json:"frequency"`
	Duration    int    `json:"duration"`
	Repeat      int    `json:"repeat"`
	Interval    int    `json:"interval"`
	Custom      bool   `json:"custom,omitempty"`
}

type CreatePatternRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Frequency   int    `json:"frequency"`
	Duration    int    `json:"duration"`
	Repeat      int    `json:"repeat"`
	Interval    int    `json:"interval"`
}

type WifiConfigRequest struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
	Security string `json:"security"`
}

type FirmwareUpdateRequest struct {
	FirmwareURL string `json:"firmware_url"`
	Version     string `json:"version"`
}

type TimeSyncRequest struct {
	Timezone  string `json:"timezone"`
	NTPServer string `json:"ntp_server"`
}

// LEDPreset is a named color/brightness combination.
type LEDPreset struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Color      map[string]interface{} `json:"color"`
	Brightness int                    `json:"brightness"`
	Animation  string                 `json:"animation,omitempty"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
