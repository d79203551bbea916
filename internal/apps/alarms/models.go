package alarms

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RepeatDays marks which weekdays a repeating alarm fires on. An alarm with
// no day set is a one-time alarm.
type RepeatDays struct {
	Monday    bool `json:"monday"`
	Tuesday   bool `json:"tuesday"`
	Wednesday bool `json:"wednesday"`
	Thursday  bool `json:"thursday"`
	Friday    bool `json:"friday"`
	Saturday  bool `json:"saturday"`
	Sunday    bool `json:"sunday"`
}

// Any reports whether at least one repeat day is enabled.
func (r RepeatDays) Any() bool {
	return r.Monday || r.Tuesday || r.Wednesday || r.Thursday || r.Friday || r.Saturday || r.Sunday
}

// On reports whether the alarm repeats on the given weekday.
func (r RepeatDays) On(day time.Weekday) bool {
	switch day {
	case time.Monday:
		return r.Monday
	case time.Tuesday:
		return r.Tuesday
	case time.Wednesday:
		return r.Wednesday
	case time.Thursday:
		return r.Thursday
	case time.Friday:
		return r.Friday
	case time.Saturday:
		return r.Saturday
	default:
		return r.Sunday
	}
}

type Alarm struct {
	ID               uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID         string                            `gorm:"size:64;not null;index:idx_alarms_device_time,priority:1" json:"device_id"`
	Label            string                            `gorm:"size:255;not null" json:"label"`
	Hour             int                               `gorm:"not null;index:idx_alarms_device_time,priority:2" json:"hour"`
	Minute           int                               `gorm:"not null;index:idx_alarms_device_time,priority:3" json:"minute"`
	Enabled          bool                              `gorm:"default:true" json:"enabled"`
	Repeat           datatypes.JSONType[RepeatDays]    `json:"repeat"`
	SnoozeEnabled    bool                              `gorm:"default:true" json:"snooze_enabled"`
	SnoozeDuration   int                               `gorm:"default:5" json:"snooze_duration"`
	SoundEnabled     bool                              `gorm:"default:true" json:"sound_enabled"`
	VibrationEnabled bool                              `gorm:"default:true" json:"vibration_enabled"`
	CreatedAt        time.Time                         `json:"created_at"`
	UpdatedAt        time.Time                         `json:"updated_at"`
}

func (a *Alarm) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// --- DTOs ---

type CreateAlarmRequest struct {
	Label            string      `json:"label"`
	Hour             *int        `json:"hour"`
	Minute           *int        `json:"minute"`
	Enabled          *bool       `json:"enabled"`
	Repeat           *RepeatDays `json:"repeat"`
	SnoozeEnabled    *bool       `json:"snooze_enabled"`
	SnoozeDuration   *int        `json:"snooze_duration"`
	SoundEnabled     *bool       `json:"sound_enabled"`
	VibrationEnabled *bool       `json:"vibration_enabled"`
}

type UpdateAlarmRequest = CreateAlarmRequest

type NextAlarmResponse struct {
	NextAlarm *Alarm `json:"next_alarm"`
	TimeUntil *int64 `json:"time_until_ms"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
