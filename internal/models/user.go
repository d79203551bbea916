package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User mirrors an account at the external identity provider. Records are
// created lazily on the first verified token; the email is the durable merge
// key when the provider-side identity changes.
type User struct {
	ID                   uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FirebaseUID          string     `gorm:"size:128;not null;uniqueIndex" json:"-"`
	Email                string     `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name                 string     `gorm:"size:255" json:"name"`
	PhotoURL             *string    `gorm:"size:512" json:"photo_url,omitempty"`
	DashboardLockEnabled bool       `gorm:"default:true" json:"dashboard_lock_enabled"`
	DashboardPinHash     *string    `gorm:"size:255" json:"-"`
	HasRobot             bool       `gorm:"default:false" json:"has_robot"`
	RobotID              *string    `gorm:"size:64" json:"robot_id,omitempty"`
	LastLogin            *time.Time `json:"last_login,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
