package heartbeat

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) (*HeartbeatService, *gorm.DB) {
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

	require.NoError(t, db.AutoMigrate(&Reading{}))
	return NewHeartbeatService(db), db
}

func seedReading(t *testing.T, db *gorm.DB, deviceID, sessionID string, bpm int, at time.Time) {
	t.Helper()
	reading := Reading{DeviceID: deviceID, SessionID: sessionID, BPM: bpm, Quality: "good", Timestamp: at}
	require.NoError(t, db.Create(&reading).Error)
}

func TestRecordValidation(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Record("dev-1", &CreateReadingRequest{BPM: 39})
	assert.ErrorIs(t, err, ErrInvalidBPM)
	_, err = service.Record("dev-1", &CreateReadingRequest{BPM: 201})
	assert.ErrorIs(t, err, ErrInvalidBPM)
	_, err = service.Record("dev-1", &CreateReadingRequest{})
	assert.ErrorIs(t, err, ErrInvalidBPM)
}

func TestRecordDefaults(t *testing.T) {
	service, _ := newTestService(t)

	reading, err := service.Record("dev-1", &CreateReadingRequest{BPM: 72})
	require.NoError(t, err)
	assert.Equal(t, 72, reading.BPM)
	assert.Equal(t, "good", reading.Quality)
	// A session id is issued when the robot does not send one.
	assert.NotEmpty(t, reading.SessionID)
	assert.False(t, reading.Timestamp.IsZero())

	reading, err = service.Record("dev-1", &CreateReadingRequest{BPM: 80, SessionID: "session_abc", Quality: "poor"})
	require.NoError(t, err)
	assert.Equal(t, "session_abc", reading.SessionID)
	assert.Equal(t, "poor", reading.Quality)
}

func TestListScopedAndLimited(t *testing.T) {
	service, db := newTestService(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedReading(t, db, "dev-1", "session_a", 70+i, base.Add(time.Duration(i)*time.Minute))
	}
	seedReading(t, db, "dev-1", "session_b", 90, base.Add(10*time.Minute))
	seedReading(t, db, "dev-2", "session_c", 100, base)

	readings, err := service.List("dev-1", "", 0)
	require.NoError(t, err)
	require.Len(t, readings, 6)
	// Newest first.
	assert.Equal(t, 90, readings[0].BPM)

	readings, err = service.List("dev-1", "session_a", 3)
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, 74, readings[0].BPM)
}

func TestLatest(t *testing.T) {
	service, db := newTestService(t)

	_, err := service.Latest("dev-1")
	assert.ErrorIs(t, err, ErrNoReadings)

	base := time.Now().Add(-time.Hour)
	seedReading(t, db, "dev-1", "session_a", 70, base)
	seedReading(t, db, "dev-1", "session_a", 85, base.Add(5*time.Minute))

	latest, err := service.Latest("dev-1")
	require.NoError(t, err)
	assert.Equal(t, 85, latest.BPM)
}

func TestStats(t *testing.T) {
	service, db := newTestService(t)

	now := time.Now()
	seedReading(t, db, "dev-1", "session_a", 60, now.Add(-2*time.Hour))
	seedReading(t, db, "dev-1", "session_a", 70, now.Add(-time.Hour))
	seedReading(t, db, "dev-1", "session_a", 80, now.Add(-30*time.Minute))
	// Outside the 24h window.
	seedReading(t, db, "dev-1", "session_old", 120, now.Add(-48*time.Hour))

	stats, err := service.Stats("dev-1", "24h")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, 70.0, stats.AvgBPM)
	assert.Equal(t, 60, stats.MinBPM)
	assert.Equal(t, 80, stats.MaxBPM)
	assert.Equal(t, "24h", stats.Period)
	require.NotNil(t, stats.LatestReading)
	require.NotNil(t, stats.Zones)
	assert.InDelta(t, 100, stats.Zones.FatBurn.Percentage, 0.1)
	assert.InDelta(t, 0, stats.Zones.Cardio.Percentage, 0.1)

	stats, err = service.Stats("dev-1", "7d")
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Count)
	assert.Equal(t, "7d", stats.Period)

	// Unknown periods fall back to 24h.
	stats, err = service.Stats("dev-1", "1y")
	require.NoError(t, err)
	assert.Equal(t, "24h", stats.Period)
}

func TestStatsEmpty(t *testing.T) {
	service, _ := newTestService(t)

	stats, err := service.Stats("dev-1", "24h")
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Count)
	assert.Equal(t, 0.0, stats.AvgBPM)
	assert.Nil(t, stats.LatestReading)
	assert.Nil(t, stats.Zones)
}

func TestSessions(t *testing.T) {
	service, db := newTestService(t)

	base := time.Now().Add(-2 * time.Hour)
	seedReading(t, db, "dev-1", "session_a", 60, base)
	seedReading(t, db, "dev-1", "session_a", 80, base.Add(10*time.Minute))
	seedReading(t, db, "dev-1", "session_b", 90, base.Add(time.Hour))

	sessions, err := service.Sessions("dev-1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	// Most recent session first.
	assert.Equal(t, "session_b", sessions[0].SessionID)

	older := sessions[1]
	assert.Equal(t, "session_a", older.SessionID)
	assert.Equal(t, int64(2), older.ReadingCount)
	assert.Equal(t, 70.0, older.AvgBPM)
	assert.Equal(t, 60, older.MinBPM)
	assert.Equal(t, 80, older.MaxBPM)
	assert.Equal(t, int64(10*60*1000), older.DurationMs)
}

func TestSessionStats(t *testing.T) {
	service, db := newTestService(t)

	_, err := service.SessionStats("dev-1", "")
	assert.ErrorIs(t, err, ErrSessionIDMissing)

	summary, err := service.SessionStats("dev-1", "session_missing")
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.ReadingCount)

	base := time.Now().Add(-time.Hour)
	seedReading(t, db, "dev-1", "session_a", 60, base)
	seedReading(t, db, "dev-1", "session_a", 90, base.Add(5*time.Minute))

	summary, err = service.SessionStats("dev-1", "session_a")
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.ReadingCount)
	assert.Equal(t, 75.0, summary.AvgBPM)
	assert.Equal(t, int64(5*60*1000), summary.DurationMs)
}

func TestTrends(t *testing.T) {
	service, db := newTestService(t)

	now := time.Now()
	yesterday := now.AddDate(0, 0, -1)
	seedReading(t, db, "dev-1", "session_a", 60, yesterday)
	seedReading(t, db, "dev-1", "session_a", 80, yesterday.Add(time.Minute))
	seedReading(t, db, "dev-1", "session_b", 100, now)

	trends, err := service.Trends("dev-1", 7)
	require.NoError(t, err)
	require.Len(t, trends, 2)
	// Oldest day first.
	assert.Equal(t, yesterday.Format("2006-01-02"), trends[0].Date)
	assert.Equal(t, 70.0, trends[0].AvgBPM)
	assert.Equal(t, 60, trends[0].MinBPM)
	assert.Equal(t, 80, trends[0].MaxBPM)
	assert.Equal(t, int64(2), trends[0].Count)
	assert.Equal(t, now.Format("2006-01-02"), trends[1].Date)
	assert.Equal(t, int64(1), trends[1].Count)
}

func TestPurge(t *testing.T) {
	service, db := newTestService(t)

	base := time.Now().Add(-time.Hour)
	seedReading(t, db, "dev-1", "session_a", 60, base)
	seedReading(t, db, "dev-1", "session_a", 70, base.Add(10*time.Minute))
	seedReading(t, db, "dev-1", "session_b", 80, base.Add(20*time.Minute))
	seedReading(t, db, "dev-2", "session_c", 90, base)

	cutoff := base.Add(5 * time.Minute)
	deleted, err := service.Purge("dev-1", "session_a", &cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = service.Purge("dev-1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	// Other devices are untouched.
	readings, err := service.List("dev-2", "", 0)
	require.NoError(t, err)
	assert.Len(t, readings, 1)
}
