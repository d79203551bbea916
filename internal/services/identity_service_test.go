package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lacrlabs/lacr-backend/internal/identity"
	"github.com/lacrlabs/lacr-backend/internal/models"
)

func newTestIdentityService(t *testing.T) (*IdentityService, *RobotService) {
	t.Helper()
	db := newTestDB(t)
	credentials := NewCredentialStore()
	return NewIdentityService(db, credentials), NewRobotService(db, credentials, newTestCatalog())
}

func TestResolveCreatesUser(t *testing.T) {
	service, _ := newTestIdentityService(t)

	user, err := service.Resolve(&identity.Claims{
		UID:   "uid-1",
		Email: "Ada@Example.Com",
		Name:  "Ada",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-1", user.FirebaseUID)
	assert.Equal(t, "ada@example.com", user.Email)
	assert.Equal(t, "Ada", user.Name)
	assert.NotNil(t, user.LastLogin)
	assert.False(t, user.HasRobot)
}

func TestResolveIsIdempotent(t *testing.T) {
	service, _ := newTestIdentityService(t)

	first, err := service.Resolve(&identity.Claims{UID: "uid-2", Email: "bo@example.com"})
	require.NoError(t, err)
	second, err := service.Resolve(&identity.Claims{UID: "uid-2", Email: "bo@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestResolveRebindsByEmail(t *testing.T) {
	service, _ := newTestIdentityService(t)

	original, err := service.Resolve(&identity.Claims{
		UID:   "uid-old",
		Email: "cam@example.com",
		Name:  "Cam",
	})
	require.NoError(t, err)

	// The provider re-linked the account under a new uid; the email hit
	// rebinds the uid onto the existing record.
	rebound, err := service.Resolve(&identity.Claims{
		UID:   "uid-new",
		Email: "cam@example.com",
		Name:  "Someone Else",
	})
	require.NoError(t, err)
	assert.Equal(t, original.ID, rebound.ID)
	assert.Equal(t, "uid-new", rebound.FirebaseUID)
	// An existing name is never overwritten by the rebind.
	assert.Equal(t, "Cam", rebound.Name)
	assert.Equal(t, original.CreatedAt.Unix(), rebound.CreatedAt.Unix())
}

func TestResolveRefreshesRobotFields(t *testing.T) {
	identityService, robotService := newTestIdentityService(t)

	user, err := identityService.Resolve(&identity.Claims{UID: "uid-3", Email: "dee@example.com"})
	require.NoError(t, err)
	assert.False(t, user.HasRobot)

	_, err = robotService.UserRegister("uid-3", "GEM-100", "GEM", "10.0.0.5")
	require.NoError(t, err)
	_, err = robotService.UserRegister("uid-3", "GEM-101", "GEM", "10.0.0.6")
	require.NoError(t, err)

	user, err = identityService.Resolve(&identity.Claims{UID: "uid-3", Email: "dee@example.com"})
	require.NoError(t, err)
	assert.True(t, user.HasRobot)
	require.NotNil(t, user.RobotID)
	// First registered robot is the primary one.
	assert.Equal(t, "GEM-100", *user.RobotID)

	require.NoError(t, robotService.Delete("uid-3", "GEM-100"))
	user, err = identityService.Resolve(&identity.Claims{UID: "uid-3", Email: "dee@example.com"})
	require.NoError(t, err)
	assert.True(t, user.HasRobot)
	assert.Equal(t, "GEM-101", *user.RobotID)
}

func TestUpdateProfile(t *testing.T) {
	service, _ := newTestIdentityService(t)

	_, err := service.UpdateProfile("missing", "Name", "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = service.Resolve(&identity.Claims{UID: "uid-4", Email: "eve@example.com", Name: "Eve"})
	require.NoError(t, err)

	user, err := service.UpdateProfile("uid-4", "Evelyn", "https://example.com/eve.png")
	require.NoError(t, err)
	assert.Equal(t, "Evelyn", user.Name)
	require.NotNil(t, user.PhotoURL)
	assert.Equal(t, "https://example.com/eve.png", *user.PhotoURL)

	// Empty fields leave the profile untouched.
	user, err = service.UpdateProfile("uid-4", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Evelyn", user.Name)
}

func TestDashboardPinLifecycle(t *testing.T) {
	service, _ := newTestIdentityService(t)

	assert.ErrorIs(t, service.SetDashboardPin("missing", "1234"), ErrUserNotFound)
	assert.ErrorIs(t, service.SetDashboardPin("missing", ""), ErrMissingField)

	_, err := service.Resolve(&identity.Claims{UID: "uid-5", Email: "fay@example.com"})
	require.NoError(t, err)

	assert.ErrorIs(t, service.ValidateDashboardPin("uid-5", "1234"), ErrPinNotSet)

	require.NoError(t, service.SetDashboardPin("uid-5", "1234"))
	assert.NoError(t, service.ValidateDashboardPin("uid-5", "1234"))
	assert.ErrorIs(t, service.ValidateDashboardPin("uid-5", "9999"), ErrInvalidPin)
	assert.ErrorIs(t, service.ValidateDashboardPin("uid-5", ""), ErrMissingField)
}

func TestToggleDashboardLock(t *testing.T) {
	service, _ := newTestIdentityService(t)

	assert.ErrorIs(t, service.ToggleDashboardLock("missing", false), ErrUserNotFound)

	_, err := service.Resolve(&identity.Claims{UID: "uid-6", Email: "gil@example.com"})
	require.NoError(t, err)
	require.NoError(t, service.SetDashboardPin("uid-6", "1234"))

	require.NoError(t, service.ToggleDashboardLock("uid-6", false))

	var user models.User
	require.NoError(t, service.db.Where("firebase_uid = ?", "uid-6").First(&user).Error)
	assert.False(t, user.DashboardLockEnabled)
	// Disabling the lock keeps the stored PIN.
	assert.NotNil(t, user.DashboardPinHash)
	assert.NoError(t, service.ValidateDashboardPin("uid-6", "1234"))
}
