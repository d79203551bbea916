package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrRobotExists          = errors.New("robot ID already exists")
	ErrRobotNotFound        = errors.New("robot not found")
	ErrRobotNotClaimed      = errors.New("robot not claimed by any user")
	ErrRobotAlreadyClaimed  = errors.New("robot already claimed")
	ErrInvalidRobotPassword = errors.New("invalid password")
	ErrPasswordNotSet       = errors.New("robot password not set")
	ErrInvalidModel         = errors.New("unknown robot model")
	ErrCapabilityMissing    = errors.New("this endpoint is not supported by the robot model")
)

// RobotService implements the provisioning workflow:
// UNCLAIMED -> CLAIMED_NO_PASSWORD / claim -> CLAIMED_ACTIVE. Every
// operation is a single document read or write; the registry's unique index
// on robot_id settles concurrent registrations.
type RobotService struct {
	db          *gorm.DB
	credentials *CredentialStore
	catalog     *catalog.Registry
}

func NewRobotService(db *gorm.DB, credentials *CredentialStore, catalog *catalog.Registry) *RobotService {
	return &RobotService{db: db, credentials: credentials, catalog: catalog}
}

// DeviceSetup self-registers a robot broadcasting in AP mode. The record is
// created unclaimed with the setup password hashed; a user claims it later
// by proving knowledge of that password.
func (s *RobotService) DeviceSetup(robotID, model, localIP, password string) (*models.Robot, error) {
	if robotID == "" || model == "" || localIP == "" || password == "" {
		return nil, ErrMissingField
	}
	if !s.catalog.Exists(model) {
		return nil, ErrInvalidModel
	}

	hash, err := s.credentials.Hash(password)
	if err != nil {
		return nil, err
	}

	robot := models.Robot{
		RobotID:     robotID,
		Model:       model,
		LocalIP:     localIP,
		NetworkMode: models.NetworkModeAP,
	}
	robot.PasswordHash = &hash

	if err := s.db.Create(&robot).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrRobotExists
		}
		return nil, fmt.Errorf("failed to create robot: %w", err)
	}
	return &robot, nil
}

// UserRegister creates a robot already owned by the caller, with no pairing
// password yet. Shares the robot_id namespace with DeviceSetup: whichever
// path registers an id second gets Conflict.
func (s *RobotService) UserRegister(uid, robotID, model, localIP string) (*models.Robot, error) {
	if robotID == "" || model == "" || localIP == "" {
		return nil, ErrMissingField
	}
	if !s.catalog.Exists(model) {
		return nil, ErrInvalidModel
	}

	robot := models.Robot{
		RobotID:     robotID,
		OwnerUID:    &uid,
		Model:       model,
		LocalIP:     localIP,
		NetworkMode: models.NetworkModeAP,
	}

	if err := s.db.Create(&robot).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrRobotExists
		}
		return nil, fmt.Errorf("failed to create robot: %w", err)
	}
	return &robot, nil
}

// Claim assigns an unclaimed, self-registered robot to the caller. Proof of
// physical access is the setup password the device announced in AP mode.
func (s *RobotService) Claim(uid, robotID, password string) (*models.Robot, error) {
	if robotID == "" || password == "" {
		return nil, ErrMissingField
	}

	var robot models.Robot
	if err := s.db.Where("robot_id = ?", robotID).First(&robot).Error; err != nil {
		return nil, ErrRobotNotFound
	}
	if robot.Claimed() {
		return nil, ErrRobotAlreadyClaimed
	}
	if robot.PasswordHash == nil {
		return nil, ErrPasswordNotSet
	}
	if !s.credentials.Verify(password, *robot.PasswordHash) {
		return nil, ErrInvalidRobotPassword
	}

	if err := s.db.Model(&robot).Update("owner_uid", uid).Error; err != nil {
		return nil, fmt.Errorf("failed to claim robot: %w", err)
	}
	robot.OwnerUID = &uid
	return &robot, nil
}

// SetPassword stores a new pairing password for the caller's robot. A robot
// that exists but belongs to someone else reads as not found.
func (s *RobotService) SetPassword(uid, robotID, password string) error {
	if robotID == "" || password == "" {
		return ErrMissingField
	}

	robot, err := s.ownedRobot(uid, robotID)
	if err != nil {
		return err
	}

	hash, err := s.credentials.Hash(password)
	if err != nil {
		return err
	}
	return s.db.Model(robot).Update("password_hash", hash).Error
}

// VerifyPassword checks a password against the caller's robot.
func (s *RobotService) VerifyPassword(uid, robotID, password string) (*models.Robot, error) {
	if robotID == "" || password == "" {
		return nil, ErrMissingField
	}

	robot, err := s.ownedRobot(uid, robotID)
	if err != nil {
		return nil, err
	}
	if robot.PasswordHash == nil {
		return nil, ErrPasswordNotSet
	}
	if !s.credentials.Verify(password, *robot.PasswordHash) {
		return nil, ErrInvalidRobotPassword
	}
	return robot, nil
}

// Authenticate is the device-initiated STA handshake. Order of failures is
// part of the contract: unknown id, then unclaimed, then bad password. The
// successful call is the only AP->STA transition in the system.
func (s *RobotService) Authenticate(robotID, password string) (*models.Robot, error) {
	if robotID == "" || password == "" {
		return nil, ErrMissingField
	}

	var robot models.Robot
	if err := s.db.Where("robot_id = ?", robotID).First(&robot).Error; err != nil {
		return nil, ErrRobotNotFound
	}
	if !robot.Claimed() {
		return nil, ErrRobotNotClaimed
	}
	if robot.PasswordHash == nil || !s.credentials.Verify(password, *robot.PasswordHash) {
		return nil, ErrInvalidRobotPassword
	}

	if err := s.db.Model(&robot).Update("network_mode", models.NetworkModeSTA).Error; err != nil {
		return nil, fmt.Errorf("failed to update network mode: %w", err)
	}
	robot.NetworkMode = models.NetworkModeSTA
	return &robot, nil
}

// Heartbeat updates the last-seen status fields. Unknown robots are an
// error, never silently ignored; network_mode is never touched here.
func (s *RobotService) Heartbeat(robotID, status string, batteryLevel *int, firmwareVersion string) (*models.Robot, error) {
	if robotID == "" {
		return nil, ErrMissingField
	}

	var robot models.Robot
	if err := s.db.Where("robot_id = ?", robotID).First(&robot).Error; err != nil {
		return nil, ErrRobotNotFound
	}

	updates := map[string]interface{}{
		"last_seen": time.Now().UTC(),
	}
	if status != "" {
		updates["status"] = status
		robot.Status = status
	}
	if batteryLevel != nil {
		updates["battery_level"] = *batteryLevel
		robot.BatteryLevel = *batteryLevel
	}
	if firmwareVersion != "" {
		updates["firmware_version"] = firmwareVersion
		robot.FirmwareVersion = firmwareVersion
	}

	if err := s.db.Model(&robot).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return &robot, nil
}

// UpdateIP stores a new last-known address for the caller's robot.
func (s *RobotService) UpdateIP(uid, robotID, newIP string) (*models.Robot, error) {
	if robotID == "" || newIP == "" {
		return nil, ErrMissingField
	}

	robot, err := s.ownedRobot(uid, robotID)
	if err != nil {
		return nil, err
	}
	if err := s.db.Model(robot).Update("local_ip", newIP).Error; err != nil {
		return nil, fmt.Errorf("failed to update IP: %w", err)
	}
	robot.LocalIP = newIP
	return robot, nil
}

// Delete removes the caller's robot outright. Not-owned robots read as not
// found so callers cannot probe for foreign ids.
func (s *RobotService) Delete(uid, robotID string) error {
	if robotID == "" {
		return ErrMissingField
	}

	robot, err := s.ownedRobot(uid, robotID)
	if err != nil {
		return err
	}
	return s.db.Delete(robot).Error
}

// Get returns the registry record for a robot id.
func (s *RobotService) Get(robotID string) (*models.Robot, error) {
	var robot models.Robot
	if err := s.db.Where("robot_id = ?", robotID).First(&robot).Error; err != nil {
		return nil, ErrRobotNotFound
	}
	return &robot, nil
}

// ListByOwner returns the caller's robots in registration order; the first
// one is the primary robot.
func (s *RobotService) ListByOwner(uid string) ([]models.Robot, error) {
	var robots []models.Robot
	if err := s.db.Where("owner_uid = ?", uid).
		Order("created_at ASC").Find(&robots).Error; err != nil {
		return nil, fmt.Errorf("failed to list robots: %w", err)
	}
	return robots, nil
}

// StatusConfig returns the owner-tunable status display for models that
// carry the status_config capability.
func (s *RobotService) StatusConfig(uid, robotID string) (*models.StatusConfig, error) {
	robot, err := s.ownedRobot(uid, robotID)
	if err != nil {
		return nil, err
	}
	if !s.catalog.HasCapability(robot.Model, "status_config") {
		return nil, ErrCapabilityMissing
	}
	cfg := robot.StatusConfig.Data()
	return &cfg, nil
}

// UpdateStatusConfig merges the given fields into the stored status config.
func (s *RobotService) UpdateStatusConfig(uid, robotID string, patch *models.StatusConfig) (*models.StatusConfig, error) {
	robot, err := s.ownedRobot(uid, robotID)
	if err != nil {
		return nil, err
	}
	if !s.catalog.HasCapability(robot.Model, "status_config") {
		return nil, ErrCapabilityMissing
	}

	cfg := robot.StatusConfig.Data()
	if patch.BatteryLevel != nil {
		cfg.BatteryLevel = patch.BatteryLevel
	}
	if patch.SignalStrength != nil {
		cfg.SignalStrength = patch.SignalStrength
	}
	if patch.AlertMessage != "" {
		cfg.AlertMessage = patch.AlertMessage
	}

	robot.StatusConfig = datatypes.NewJSONType(cfg)
	if err := s.db.Model(robot).Update("status_config", robot.StatusConfig).Error; err != nil {
		return nil, fmt.Errorf("failed to update status config: %w", err)
	}
	return &cfg, nil
}

func (s *RobotService) ownedRobot(uid, robotID string) (*models.Robot, error) {
	var robot models.Robot
	err := s.db.Where("robot_id = ? AND owner_uid = ?", robotID, uid).First(&robot).Error
	if err != nil {
		return nil, ErrRobotNotFound
	}
	return &robot, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint")
}
