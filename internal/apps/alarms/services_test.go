package alarms

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *AlarmService {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Alarm{}))
	return NewAlarmService(db)
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestCreateAlarmValidation(t *testing.T) {
	service := newTestService(t)

	_, err := service.Create("dev-1", &CreateAlarmRequest{Hour: intPtr(7), Minute: intPtr(30)})
	assert.ErrorIs(t, err, ErrLabelRequired)

	_, err = service.Create("dev-1", &CreateAlarmRequest{Label: "Wake up"})
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = service.Create("dev-1", &CreateAlarmRequest{Label: "Wake up", Hour: intPtr(24), Minute: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = service.Create("dev-1", &CreateAlarmRequest{Label: "Wake up", Hour: intPtr(7), Minute: intPtr(60)})
	assert.ErrorIs(t, err, ErrInvalidTime)
}

func TestCreateAlarmDefaults(t *testing.T) {
	service := newTestService(t)

	alarm, err := service.Create("dev-1", &CreateAlarmRequest{Label: "Wake up", Hour: intPtr(7), Minute: intPtr(30)})
	require.NoError(t, err)
	assert.True(t, alarm.Enabled)
	assert.True(t, alarm.SnoozeEnabled)
	assert.Equal(t, 5, alarm.SnoozeDuration)
	assert.True(t, alarm.SoundEnabled)
	assert.True(t, alarm.VibrationEnabled)
	assert.False(t, alarm.Repeat.Data().Any())
}

func TestListOrdersByTime(t *testing.T) {
	service := newTestService(t)

	for _, spec := range []struct{ hour, minute int }{{9, 15}, {7, 30}, {7, 5}} {
		_, err := service.Create("dev-1", &CreateAlarmRequest{
			Label: "Alarm", Hour: intPtr(spec.hour), Minute: intPtr(spec.minute),
		})
		require.NoError(t, err)
	}
	_, err := service.Create("dev-2", &CreateAlarmRequest{Label: "Other device", Hour: intPtr(6), Minute: intPtr(0)})
	require.NoError(t, err)

	alarms, err := service.List("dev-1")
	require.NoError(t, err)
	require.Len(t, alarms, 3)
	assert.Equal(t, 7, alarms[0].Hour)
	assert.Equal(t, 5, alarms[0].Minute)
	assert.Equal(t, 7, alarms[1].Hour)
	assert.Equal(t, 30, alarms[1].Minute)
	assert.Equal(t, 9, alarms[2].Hour)
}

func TestUpdateAlarm(t *testing.T) {
	service := newTestService(t)

	alarm, err := service.Create("dev-1", &CreateAlarmRequest{Label: "Wake up", Hour: intPtr(7), Minute: intPtr(30)})
	require.NoError(t, err)

	updated, err := service.Update("dev-1", alarm.ID, &UpdateAlarmRequest{
		Label:  "Work",
		Minute: intPtr(45),
		Repeat: &RepeatDays{Monday: true, Friday: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "Work", updated.Label)
	assert.Equal(t, 7, updated.Hour)
	assert.Equal(t, 45, updated.Minute)
	assert.True(t, updated.Repeat.Data().Monday)
	assert.True(t, updated.Repeat.Data().Friday)
	assert.False(t, updated.Repeat.Data().Tuesday)

	_, err = service.Update("dev-1", alarm.ID, &UpdateAlarmRequest{Hour: intPtr(25)})
	assert.ErrorIs(t, err, ErrInvalidTime)

	_, err = service.Update("dev-1", uuid.New(), &UpdateAlarmRequest{Label: "Nope"})
	assert.ErrorIs(t, err, ErrAlarmNotFound)
}

func TestDeleteAlarm(t *testing.T) {
	service := newTestService(t)

	alarm, err := service.Create("dev-1", &CreateAlarmRequest{Label: "Wake up", Hour: intPtr(7), Minute: intPtr(30)})
	require.NoError(t, err)

	// Device scoping: another device cannot delete it.
	assert.ErrorIs(t, service.Delete("dev-2", alarm.ID), ErrAlarmNotFound)

	require.NoError(t, service.Delete("dev-1", alarm.ID))
	assert.ErrorIs(t, service.Delete("dev-1", alarm.ID), ErrAlarmNotFound)
}

func TestToggleAlarm(t *testing.T) {
	service := newTestService(t)

	alarm, err := service.Create("dev-1", &CreateAlarmRequest{Label: "Wake up", Hour: intPtr(7), Minute: intPtr(30)})
	require.NoError(t, err)

	toggled, err := service.Toggle("dev-1", alarm.ID)
	require.NoError(t, err)
	assert.False(t, toggled.Enabled)

	toggled, err = service.Toggle("dev-1", alarm.ID)
	require.NoError(t, err)
	assert.True(t, toggled.Enabled)
}

func TestNextAlarm(t *testing.T) {
	service := newTestService(t)

	// Wednesday 10:00.
	now := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

	// One-time alarm whose time already passed today never fires again.
	_, err := service.Create("dev-1", &CreateAlarmRequest{Label: "Passed", Hour: intPtr(9), Minute: intPtr(0)})
	require.NoError(t, err)

	// Repeating Monday alarm fires next week.
	_, err = service.Create("dev-1", &CreateAlarmRequest{
		Label: "Weekly", Hour: intPtr(8), Minute: intPtr(0),
		Repeat: &RepeatDays{Monday: true},
	})
	require.NoError(t, err)

	todayAlarm, err := service.Create("dev-1", &CreateAlarmRequest{Label: "Today", Hour: intPtr(11), Minute: intPtr(0)})
	require.NoError(t, err)

	next, fireAt, err := service.Next("dev-1", now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, todayAlarm.ID, next.ID)
	assert.Equal(t, time.Date(2026, 1, 7, 11, 0, 0, 0, time.UTC), fireAt)
}

func TestNextAlarmAdvancesToRepeatDay(t *testing.T) {
	service := newTestService(t)

	now := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC) // Wednesday

	weekly, err := service.Create("dev-1", &CreateAlarmRequest{
		Label: "Weekly", Hour: intPtr(8), Minute: intPtr(0),
		Repeat: &RepeatDays{Monday: true},
	})
	require.NoError(t, err)

	next, fireAt, err := service.Next("dev-1", now)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, weekly.ID, next.ID)
	// Monday, January 12th.
	assert.Equal(t, time.Date(2026, 1, 12, 8, 0, 0, 0, time.UTC), fireAt)
}

func TestNextAlarmSkipsDisabled(t *testing.T) {
	service := newTestService(t)

	now := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

	_, err := service.Create("dev-1", &CreateAlarmRequest{
		Label: "Disabled", Hour: intPtr(11), Minute: intPtr(0), Enabled: boolPtr(false),
	})
	require.NoError(t, err)

	next, _, err := service.Next("dev-1", now)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestNextAlarmNoneScheduled(t *testing.T) {
	service := newTestService(t)

	now := time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC)

	_, err := service.Create("dev-1", &CreateAlarmRequest{Label: "Passed", Hour: intPtr(9), Minute: intPtr(0)})
	require.NoError(t, err)

	next, _, err := service.Next("dev-1", now)
	require.NoError(t, err)
	assert.Nil(t, next)
}
