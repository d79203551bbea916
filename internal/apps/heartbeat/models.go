package heartbeat

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Reading is a single pulse-sensor sample reported by a robot.
type Reading struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeviceID  string    `gorm:"index:idx_heartbeat_device_time,priority:1;not null" json:"device_id"`
	BPM       int       `gorm:"not null" json:"bpm"`
	SessionID string    `gorm:"index" json:"session_id"`
	Quality   string    `gorm:"default:'good'" json:"quality"`
	Notes     string    `json:"notes,omitempty"`
	Timestamp time.Time `gorm:"index:idx_heartbeat_device_time,priority:2" json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

func (Reading) TableName() string { return "heartbeat_readings" }

func (r *Reading) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now()
	}
	return nil
}

type CreateReadingRequest struct {
	BPM       int    `json:"bpm"`
	SessionID string `json:"session_id"`
	Quality   string `json:"quality"`
	Notes     string `json:"notes"`
}

type StopSessionRequest struct {
	SessionID string `json:"session_id"`
}

// Stats aggregates readings over a time window.
type Stats struct {
	Count         int64      `json:"count"`
	AvgBPM        float64    `json:"avg_bpm"`
	MinBPM        int        `json:"min_bpm"`
	MaxBPM        int        `json:"max_bpm"`
	LatestReading *time.Time `json:"latest_reading"`
	Period        string     `json:"period"`
	Zones         *Zones     `json:"zones,omitempty"`
}

// Zones is a rough intensity breakdown derived from the average BPM.
type Zones struct {
	FatBurn Zone `json:"fat_burn"`
	Cardio  Zone `json:"cardio"`
	Peak    Zone `json:"peak"`
}

type Zone struct {
	Min        int     `json:"min"`
	Max        int     `json:"max"`
	Percentage float64 `json:"percentage"`
}

// SessionSummary aggregates all readings sharing a session ID.
type SessionSummary struct {
	SessionID    string    `json:"session_id"`
	ReadingCount int64     `json:"reading_count"`
	AvgBPM       float64   `json:"avg_bpm"`
	MinBPM       int       `json:"min_bpm"`
	MaxBPM       int       `json:"max_bpm"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	DurationMs   int64     `json:"duration_ms"`
}

// DailyTrend is a per-day rollup used by the trends endpoint.
type DailyTrend struct {
	Date   string  `json:"date"`
	AvgBPM float64 `json:"avg_bpm"`
	MinBPM int     `json:"min_bpm"`
	MaxBPM int     `json:"max_bpm"`
	Count  int64   `json:"count"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}
