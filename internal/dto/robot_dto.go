package dto

import (
	"time"

	"github.com/lacrlabs/lacr-backend/internal/models"
)

type DeviceSetupRequest struct {
	RobotID  string `json:"robot_id"`
	Model    string `json:"model"`
	LocalIP  string `json:"local_ip"`
	Password string `json:"password"`
}

type DeviceAuthRequest struct {
	RobotID  string `json:"robot_id"`
	Password string `json:"password"`
}

type DeviceHeartbeatRequest struct {
	RobotID         string `json:"robot_id"`
	Status          string `json:"status"`
	BatteryLevel    *int   `json:"battery_level"`
	FirmwareVersion string `json:"firmware_version"`
}

type DeviceCommandRequest struct {
	RobotID    string                 `json:"robot_id"`
	Command    string                 `json:"command"`
	Parameters map[string]interface{} `json:"parameters"`
}

type RegisterRobotRequest struct {
	RobotID string `json:"robot_id"`
	Model   string `json:"model"`
	LocalIP string `json:"local_ip"`
}

type ClaimRobotRequest struct {
	RobotID  string `json:"robot_id"`
	Password string `json:"password"`
}

type RobotPasswordRequest struct {
	RobotID  string `json:"robot_id"`
	Password string `json:"password"`
}

type SetRobotPasswordRequest struct {
	RobotID     string `json:"robot_id"`
	NewPassword string `json:"new_password"`
}

type UpdateIPRequest struct {
	RobotID string `json:"robot_id"`
	NewIP   string `json:"new_ip"`
}

type DeleteRobotRequest struct {
	RobotID string `json:"robot_id"`
}

// RobotSummary is the public shape of a registry record. The password hash
// never leaves the service layer.
type RobotSummary struct {
	RobotID         string    `json:"robot_id"`
	OwnerUID        *string   `json:"owner_uid,omitempty"`
	Model           string    `json:"model"`
	LocalIP         string    `json:"local_ip"`
	NetworkMode     string    `json:"network_mode"`
	Status          string    `json:"status"`
	BatteryLevel    int       `json:"battery_level"`
	FirmwareVersion string    `json:"firmware_version"`
	LastSeen        time.Time `json:"last_seen"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewRobotSummary(r *models.Robot) RobotSummary {
	return RobotSummary{
		RobotID:         r.RobotID,
		OwnerUID:        r.OwnerUID,
		Model:           r.Model,
		LocalIP:         r.LocalIP,
		NetworkMode:     r.NetworkMode,
		Status:          r.Status,
		BatteryLevel:    r.BatteryLevel,
		FirmwareVersion: r.FirmwareVersion,
		LastSeen:        r.LastSeen,
		CreatedAt:       r.CreatedAt,
	}
}

func NewRobotSummaries(robots []models.Robot) []RobotSummary {
	out := make([]RobotSummary, 0, len(robots))
	for i := range robots {
		out = append(out, NewRobotSummary(&robots[i]))
	}
	return out
}
