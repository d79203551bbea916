package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lacrlabs/lacr-backend/internal/identity"
	"github.com/lacrlabs/lacr-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrPinNotSet    = errors.New("dashboard PIN not set")
	ErrInvalidPin   = errors.New("invalid dashboard PIN")
	ErrMissingField = errors.New("required field missing")
)

// IdentityService maps verified identity-provider claims onto local User
// records and maintains the derived robot-ownership fields.
type IdentityService struct {
	db          *gorm.DB
	credentials *CredentialStore
}

func NewIdentityService(db *gorm.DB, credentials *CredentialStore) *IdentityService {
	return &IdentityService{db: db, credentials: credentials}
}

// Resolve finds or creates the User for a verified token. Lookup order:
// provider uid first, then email. An email hit under a different uid means
// the provider-side account was re-linked; the uid is rebound onto the
// existing record so history and robot associations survive. Name and photo
// are backfilled only when currently empty.
func (s *IdentityService) Resolve(claims *identity.Claims) (*models.User, error) {
	now := time.Now().UTC()

	var user models.User
	err := s.db.Where("firebase_uid = ?", claims.UID).First(&user).Error
	if err == nil {
		s.db.Model(&user).Update("last_login", now)
		user.LastLogin = &now
		return s.refreshRobotFields(&user)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("identity lookup failed: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(claims.Email))
	if email != "" {
		err = s.db.Where("email = ?", email).First(&user).Error
		if err == nil {
			updates := map[string]interface{}{
				"firebase_uid": claims.UID,
				"last_login":   now,
			}
			if user.Name == "" && claims.Name != "" {
				updates["name"] = claims.Name
				user.Name = claims.Name
			}
			if user.PhotoURL == nil && claims.Picture != "" {
				updates["photo_url"] = claims.Picture
				picture := claims.Picture
				user.PhotoURL = &picture
			}
			if err := s.db.Model(&user).Updates(updates).Error; err != nil {
				return nil, fmt.Errorf("identity rebind failed: %w", err)
			}
			user.FirebaseUID = claims.UID
			user.LastLogin = &now
			return s.refreshRobotFields(&user)
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("email lookup failed: %w", err)
		}
	}

	user = models.User{
		FirebaseUID: claims.UID,
		Email:       email,
		Name:        claims.Name,
		LastLogin:   &now,
	}
	if claims.Picture != "" {
		picture := claims.Picture
		user.PhotoURL = &picture
	}
	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.refreshRobotFields(&user)
}

// refreshRobotFields recomputes has_robot / robot_id from the robot registry
// (first robot owned, by registration order) and persists on change.
func (s *IdentityService) refreshRobotFields(user *models.User) (*models.User, error) {
	var robots []models.Robot
	if err := s.db.Where("owner_uid = ?", user.FirebaseUID).
		Order("created_at ASC").Find(&robots).Error; err != nil {
		return nil, fmt.Errorf("robot lookup failed: %w", err)
	}

	hasRobot := len(robots) > 0
	var primary *string
	if hasRobot {
		primary = &robots[0].RobotID
	}

	changed := hasRobot != user.HasRobot ||
		(primary == nil) != (user.RobotID == nil) ||
		(primary != nil && user.RobotID != nil && *primary != *user.RobotID)
	if changed {
		if err := s.db.Model(user).Updates(map[string]interface{}{
			"has_robot": hasRobot,
			"robot_id":  primary,
		}).Error; err != nil {
			return nil, fmt.Errorf("failed to update robot fields: %w", err)
		}
		user.HasRobot = hasRobot
		user.RobotID = primary
	}

	return user, nil
}

// UpdateProfile changes the mutable profile fields.
func (s *IdentityService) UpdateProfile(uid, name, photoURL string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("firebase_uid = ?", uid).First(&user).Error; err != nil {
		return nil, ErrUserNotFound
	}

	updates := map[string]interface{}{}
	if name != "" {
		updates["name"] = name
		user.Name = name
	}
	if photoURL != "" {
		updates["photo_url"] = photoURL
		user.PhotoURL = &photoURL
	}
	if len(updates) == 0 {
		return &user, nil
	}
	if err := s.db.Model(&user).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &user, nil
}

// SetDashboardPin hashes and stores the secondary dashboard PIN and enables
// the lock.
func (s *IdentityService) SetDashboardPin(uid, pin string) error {
	if pin == "" {
		return ErrMissingField
	}

	var user models.User
	if err := s.db.Where("firebase_uid = ?", uid).First(&user).Error; err != nil {
		return ErrUserNotFound
	}

	hash, err := s.credentials.Hash(pin)
	if err != nil {
		return err
	}

	return s.db.Model(&user).Updates(map[string]interface{}{
		"dashboard_pin_hash":     hash,
		"dashboard_lock_enabled": true,
	}).Error
}

// ValidateDashboardPin checks a PIN against the stored hash.
func (s *IdentityService) ValidateDashboardPin(uid, pin string) error {
	if pin == "" {
		return ErrMissingField
	}

	var user models.User
	if err := s.db.Where("firebase_uid = ?", uid).First(&user).Error; err != nil {
		return ErrUserNotFound
	}
	if user.DashboardPinHash == nil {
		return ErrPinNotSet
	}
	if !s.credentials.Verify(pin, *user.DashboardPinHash) {
		return ErrInvalidPin
	}
	return nil
}

// ToggleDashboardLock flips the lock without touching the stored hash.
func (s *IdentityService) ToggleDashboardLock(uid string, enabled bool) error {
	result := s.db.Model(&models.User{}).
		Where("firebase_uid = ?", uid).
		Update("dashboard_lock_enabled", enabled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
