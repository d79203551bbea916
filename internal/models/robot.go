package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StatusConfig is the owner-tunable status display for models with the
// status_config capability.
type StatusConfig struct {
	BatteryLevel   *int   `json:"battery_level,omitempty"`
	SignalStrength *int   `json:"signal_strength,omitempty"`
	AlertMessage   string `json:"alert_message,omitempty"`
}

// Network modes a robot reports. AP is the on-device setup access point;
// STA means the robot has joined a home network. The only AP→STA transition
// happens on a successful device authentication.
const (
	NetworkModeAP  = "AP"
	NetworkModeSTA = "STA"
)

// Robot is the registry record for a provisioned or self-registered unit.
// RobotID is a single global namespace across both registration paths; the
// unique index resolves concurrent registrations (the loser gets a
// duplicate-key error, mapped to Conflict).
type Robot struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RobotID      string    `gorm:"size:64;not null;uniqueIndex" json:"robot_id"`
	OwnerUID     *string   `gorm:"size:128;index" json:"owner_uid,omitempty"`
	Model        string    `gorm:"size:32;not null" json:"model"`
	LocalIP      string    `gorm:"size:45" json:"local_ip"`
	PasswordHash *string   `gorm:"size:255" json:"-"`
	NetworkMode  string    `gorm:"size:8;not null;default:'AP'" json:"network_mode"`

	// Status fields maintained by device heartbeats.
	Status          string    `gorm:"size:16;default:'offline'" json:"status"`
	BatteryLevel    int       `gorm:"default:100" json:"battery_level"`
	FirmwareVersion string    `gorm:"size:32;default:'1.0.0'" json:"firmware_version"`
	LastSeen        time.Time `json:"last_seen"`

	StatusConfig datatypes.JSONType[StatusConfig] `json:"status_config"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Robot) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.LastSeen.IsZero() {
		r.LastSeen = time.Now().UTC()
	}
	return nil
}

// Claimed reports whether the robot has an owner.
func (r *Robot) Claimed() bool {
	return r.OwnerUID != nil && *r.OwnerUID != ""
}
