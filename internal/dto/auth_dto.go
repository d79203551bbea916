package dto

import "time"

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
	Models    int    `json:"models"`
}

type UserResponse struct {
	UID                  string     `json:"uid"`
	Email                string     `json:"email"`
	Name                 string     `json:"name"`
	PhotoURL             *string    `json:"photo_url,omitempty"`
	DashboardLockEnabled bool       `json:"dashboard_lock_enabled"`
	HasRobot             bool       `json:"has_robot"`
	RobotID              *string    `json:"robot_id,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	LastLogin            *time.Time `json:"last_login,omitempty"`
}

type VerifyResponse struct {
	Success bool           `json:"success"`
	User    UserResponse   `json:"user"`
	Robots  []RobotSummary `json:"robots"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

type DashboardPinRequest struct {
	Pin string `json:"pin"`
}

type DashboardLockToggleRequest struct {
	Enabled *bool `json:"enabled"`
}
