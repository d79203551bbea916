package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/lacrlabs/lacr-backend/internal/catalog"
	"github.com/lacrlabs/lacr-backend/internal/models"
)

// newTestDB opens an in-memory SQLite database scoped to the test name so
// tests in the package never share state.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps the shared-cache memory DB alive for the
	// whole test.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Robot{}))
	return db
}

func newTestCatalog() *catalog.Registry {
	registry := catalog.NewRegistry()
	registry.Register(&catalog.ModelConfig{
		Model:                 "LAC-R",
		DisplayName:           "LAC-R Companion Robot",
		Capabilities:          []string{"navigation", "voice_control"},
		SettingsSchemaVersion: 1,
	})
	registry.Register(&catalog.ModelConfig{
		Model:                 "GEM",
		DisplayName:           "GEM Desk Companion",
		Capabilities:          []string{"voice_control", "status_config"},
		SettingsSchemaVersion: 1,
	})
	return registry
}

func newTestRobotService(t *testing.T) (*RobotService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	return NewRobotService(db, NewCredentialStore(), newTestCatalog()), db
}

func TestDeviceSetup(t *testing.T) {
	service, _ := newTestRobotService(t)

	robot, err := service.DeviceSetup("GEM-001", "GEM", "192.168.4.1", "setup123")
	require.NoError(t, err)
	assert.Equal(t, "GEM-001", robot.RobotID)
	assert.Equal(t, models.NetworkModeAP, robot.NetworkMode)
	assert.False(t, robot.Claimed())
	assert.NotNil(t, robot.PasswordHash)

	_, err = service.DeviceSetup("GEM-002", "UNKNOWN", "192.168.4.1", "setup123")
	assert.ErrorIs(t, err, ErrInvalidModel)

	_, err = service.DeviceSetup("GEM-003", "GEM", "", "setup123")
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestRegistrationSharesNamespace(t *testing.T) {
	service, _ := newTestRobotService(t)

	_, err := service.DeviceSetup("LACR-100", "LAC-R", "192.168.4.1", "setup123")
	require.NoError(t, err)

	// User registration of the same id conflicts, and vice versa.
	_, err = service.UserRegister("user-1", "LACR-100", "LAC-R", "10.0.0.5")
	assert.ErrorIs(t, err, ErrRobotExists)

	_, err = service.UserRegister("user-1", "LACR-200", "LAC-R", "10.0.0.5")
	require.NoError(t, err)
	_, err = service.DeviceSetup("LACR-200", "LAC-R", "192.168.4.1", "setup123")
	assert.ErrorIs(t, err, ErrRobotExists)
}

func TestClaim(t *testing.T) {
	service, _ := newTestRobotService(t)

	_, err := service.DeviceSetup("GEM-010", "GEM", "192.168.4.1", "setup123")
	require.NoError(t, err)

	_, err = service.Claim("user-1", "missing", "setup123")
	assert.ErrorIs(t, err, ErrRobotNotFound)

	_, err = service.Claim("user-1", "GEM-010", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidRobotPassword)

	robot, err := service.Claim("user-1", "GEM-010", "setup123")
	require.NoError(t, err)
	assert.True(t, robot.Claimed())
	assert.Equal(t, "user-1", *robot.OwnerUID)

	_, err = service.Claim("user-2", "GEM-010", "setup123")
	assert.ErrorIs(t, err, ErrRobotAlreadyClaimed)
}

func TestClaimWithoutPassword(t *testing.T) {
	service, db := newTestRobotService(t)

	// A record without a stored hash cannot be claimed.
	robot := models.Robot{RobotID: "GEM-011", Model: "GEM", LocalIP: "192.168.4.1", NetworkMode: models.NetworkModeAP}
	require.NoError(t, db.Create(&robot).Error)

	_, err := service.Claim("user-1", "GEM-011", "anything")
	assert.ErrorIs(t, err, ErrPasswordNotSet)
}

func TestAuthenticateFailureOrder(t *testing.T) {
	service, _ := newTestRobotService(t)

	_, err := service.Authenticate("missing", "pw")
	assert.ErrorIs(t, err, ErrRobotNotFound)

	_, err = service.DeviceSetup("GEM-020", "GEM", "192.168.4.1", "setup123")
	require.NoError(t, err)

	// Unclaimed wins over bad password.
	_, err = service.Authenticate("GEM-020", "wrong")
	assert.ErrorIs(t, err, ErrRobotNotClaimed)

	_, err = service.Claim("user-1", "GEM-020", "setup123")
	require.NoError(t, err)

	_, err = service.Authenticate("GEM-020", "wrong")
	assert.ErrorIs(t, err, ErrInvalidRobotPassword)
}

func TestAuthenticateSwitchesToSTA(t *testing.T) {
	service, _ := newTestRobotService(t)

	_, err := service.DeviceSetup("GEM-021", "GEM", "192.168.4.1", "setup123")
	require.NoError(t, err)
	_, err = service.Claim("user-1", "GEM-021", "setup123")
	require.NoError(t, err)

	robot, err := service.Authenticate("GEM-021", "setup123")
	require.NoError(t, err)
	assert.Equal(t, models.NetworkModeSTA, robot.NetworkMode)

	stored, err := service.Get("GEM-021")
	require.NoError(t, err)
	assert.Equal(t, models.NetworkModeSTA, stored.NetworkMode)
}

func TestHeartbeat(t *testing.T) {
	service, _ := newTestRobotService(t)

	_, err := service.Heartbeat("missing", "online", nil, "")
	assert.ErrorIs(t, err, ErrRobotNotFound)

	_, err = service.DeviceSetup("GEM-030", "GEM", "192.168.4.1", "setup123")
	require.NoError(t, err)

	battery := 42
	robot, err := service.Heartbeat("GEM-030", "online", &battery, "1.2.0")
	require.NoError(t, err)
	assert.Equal(t, "online", robot.Status)
	assert.Equal(t, 42, robot.BatteryLevel)
	assert.Equal(t, "1.2.0", robot.FirmwareVersion)
	// Heartbeats never touch the provisioning state.
	assert.Equal(t, models.NetworkModeAP, robot.NetworkMode)

	// Omitted fields keep their values.
	robot, err = service.Heartbeat("GEM-030", "", nil, "")
	require.NoError(t, err)
	assert.Equal(t, "online", robot.Status)
	assert.Equal(t, 42, robot.BatteryLevel)
}

func TestOwnershipScoping(t *testing.T) {
	service, _ := newTestRobotService(t)

	_, err := service.UserRegister("user-1", "GEM-040", "GEM", "10.0.0.5")
	require.NoError(t, err)

	// A robot owned by someone else reads as not found.
	err = service.SetPassword("user-2", "GEM-040", "newpw")
	assert.ErrorIs(t, err, ErrRobotNotFound)
	err = service.Delete("user-2", "GEM-040")
	assert.ErrorIs(t, err, ErrRobotNotFound)
	_, err = service.UpdateIP("user-2", "GEM-040", "10.0.0.9")
	assert.ErrorIs(t, err, ErrRobotNotFound)

	require.NoError(t, service.SetPassword("user-1", "GEM-040", "newpw"))
	robot, err := service.VerifyPassword("user-1", "GEM-040", "newpw")
	require.NoError(t, err)
	assert.Equal(t, "GEM-040", robot.RobotID)

	robot, err = service.UpdateIP("user-1", "GEM-040", "10.0.0.9")
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.9", robot.LocalIP)

	require.NoError(t, service.Delete("user-1", "GEM-040"))
	_, err = service.Get("GEM-040")
	assert.ErrorIs(t, err, ErrRobotNotFound)
}

func TestListByOwner(t *testing.T) {
	service, _ := newTestRobotService(t)

	_, err := service.UserRegister("user-1", "GEM-050", "GEM", "10.0.0.5")
	require.NoError(t, err)
	_, err = service.UserRegister("user-1", "LACR-050", "LAC-R", "10.0.0.6")
	require.NoError(t, err)
	_, err = service.UserRegister("user-2", "GEM-051", "GEM", "10.0.0.7")
	require.NoError(t, err)

	robots, err := service.ListByOwner("user-1")
	require.NoError(t, err)
	require.Len(t, robots, 2)
	assert.Equal(t, "GEM-050", robots[0].RobotID)
}

func TestStatusConfigCapabilityGate(t *testing.T) {
	service, _ := newTestRobotService(t)

	_, err := service.UserRegister("user-1", "LACR-060", "LAC-R", "10.0.0.5")
	require.NoError(t, err)
	_, err = service.UserRegister("user-1", "GEM-060", "GEM", "10.0.0.6")
	require.NoError(t, err)

	// LAC-R lacks the status_config capability.
	_, err = service.StatusConfig("user-1", "LACR-060")
	assert.ErrorIs(t, err, ErrCapabilityMissing)
	_, err = service.UpdateStatusConfig("user-1", "LACR-060", &models.StatusConfig{})
	assert.ErrorIs(t, err, ErrCapabilityMissing)

	cfg, err := service.StatusConfig("user-1", "GEM-060")
	require.NoError(t, err)
	assert.Nil(t, cfg.BatteryLevel)
	assert.Empty(t, cfg.AlertMessage)
}

func TestUpdateStatusConfigMerges(t *testing.T) {
	service, _ := newTestRobotService(t)

	_, err := service.UserRegister("user-1", "GEM-061", "GEM", "10.0.0.5")
	require.NoError(t, err)

	battery := 80
	cfg, err := service.UpdateStatusConfig("user-1", "GEM-061", &models.StatusConfig{
		BatteryLevel: &battery,
		AlertMessage: "low water",
	})
	require.NoError(t, err)
	assert.Equal(t, 80, *cfg.BatteryLevel)
	assert.Equal(t, "low water", cfg.AlertMessage)

	// A partial patch keeps fields it does not name.
	signal := -50
	cfg, err = service.UpdateStatusConfig("user-1", "GEM-061", &models.StatusConfig{
		SignalStrength: &signal,
	})
	require.NoError(t, err)
	assert.Equal(t, 80, *cfg.BatteryLevel)
	assert.Equal(t, -50, *cfg.SignalStrength)
	assert.Equal(t, "low water", cfg.AlertMessage)

	cfg, err = service.StatusConfig("user-1", "GEM-061")
	require.NoError(t, err)
	assert.Equal(t, 80, *cfg.BatteryLevel)
}
