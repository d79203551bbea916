package heartbeat

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/lacrlabs/lacr-backend/internal/database"
	"gorm.io/gorm"
)

var (
	ErrInvalidBPM       = errors.New("valid BPM value (40-200) is required")
	ErrNoReadings       = errors.New("no heartbeat readings found")
	ErrSessionIDMissing = errors.New("session ID is required")
)

type HeartbeatService struct {
	db *gorm.DB
}

func NewHeartbeatService(db *gorm.DB) *HeartbeatService {
	return &HeartbeatService{db: db}
}

func (s *HeartbeatService) Record(deviceID string, req *CreateReadingRequest) (*Reading, error) {
	if req.BPM < 40 || req.BPM > 200 {
		return nil, ErrInvalidBPM
	}

	reading := Reading{
		DeviceID:  deviceID,
		BPM:       req.BPM,
		SessionID: req.SessionID,
		Quality:   req.Quality,
		Notes:     req.Notes,
	}
	if reading.SessionID == "" {
		reading.SessionID = NewSessionID()
	}
	if reading.Quality == "" {
		reading.Quality = "good"
	}

	if err := s.db.Create(&reading).Error; err != nil {
		return nil, fmt.Errorf("failed to record heartbeat: %w", err)
	}
	return &reading, nil
}

func (s *HeartbeatService) List(deviceID, sessionID string, limit int) ([]Reading, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}

	query := s.db.Scopes(database.ForDevice(deviceID))
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}

	var readings []Reading
	if err := query.Order("timestamp DESC").Limit(limit).Find(&readings).Error; err != nil {
		return nil, fmt.Errorf("failed to list heartbeat readings: %w", err)
	}
	return readings, nil
}

func (s *HeartbeatService) Latest(deviceID string) (*Reading, error) {
	var reading Reading
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Order("timestamp DESC").First(&reading).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoReadings
		}
		return nil, fmt.Errorf("failed to fetch latest reading: %w", err)
	}
	return &reading, nil
}

// Stats aggregates readings for one of the supported periods: 24h, 7d or 30d.
// Unknown periods fall back to 24h.
func (s *HeartbeatService) Stats(deviceID, period string) (*Stats, error) {
	var window time.Duration
	switch period {
	case "7d":
		window = 7 * 24 * time.Hour
	case "30d":
		window = 30 * 24 * time.Hour
	default:
		period = "24h"
		window = 24 * time.Hour
	}
	since := time.Now().Add(-window)

	var row struct {
		Count  int64
		AvgBPM float64
		MinBPM int
		MaxBPM int
	}
	err := s.db.Model(&Reading{}).
		Scopes(database.ForDevice(deviceID)).
		Where("timestamp >= ?", since).
		Select("COUNT(*) as count, COALESCE(AVG(bpm), 0) as avg_bpm, COALESCE(MIN(bpm), 0) as min_bpm, COALESCE(MAX(bpm), 0) as max_bpm").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute heartbeat stats: %w", err)
	}

	stats := &Stats{
		Count:  row.Count,
		AvgBPM: round1(row.AvgBPM),
		MinBPM: row.MinBPM,
		MaxBPM: row.MaxBPM,
		Period: period,
	}

	if row.Count > 0 {
		var latest Reading
		if err := s.db.Scopes(database.ForDevice(deviceID)).
			Where("timestamp >= ?", since).
			Order("timestamp DESC").First(&latest).Error; err == nil {
			stats.LatestReading = &latest.Timestamp
		}
		stats.Zones = computeZones(stats.AvgBPM)
	}
	return stats, nil
}

func (s *HeartbeatService) Sessions(deviceID string) ([]SessionSummary, error) {
	var rows []struct {
		SessionID    string
		ReadingCount int64
		AvgBPM       float64
		MinBPM       int
		MaxBPM       int
		StartTime    time.Time
		EndTime      time.Time
	}
	err := s.db.Model(&Reading{}).
		Scopes(database.ForDevice(deviceID)).
		Select("session_id, COUNT(*) as reading_count, AVG(bpm) as avg_bpm, MIN(bpm) as min_bpm, MAX(bpm) as max_bpm, MIN(timestamp) as start_time, MAX(timestamp) as end_time").
		Group("session_id").
		Order("start_time DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list heartbeat sessions: %w", err)
	}

	sessions := make([]SessionSummary, 0, len(rows))
	for _, row := range rows {
		sessions = append(sessions, SessionSummary{
			SessionID:    row.SessionID,
			ReadingCount: row.ReadingCount,
			AvgBPM:       round1(row.AvgBPM),
			MinBPM:       row.MinBPM,
			MaxBPM:       row.MaxBPM,
			StartTime:    row.StartTime,
			EndTime:      row.EndTime,
			DurationMs:   row.EndTime.Sub(row.StartTime).Milliseconds(),
		})
	}
	return sessions, nil
}

// SessionStats is the rollup returned when a monitoring session stops.
func (s *HeartbeatService) SessionStats(deviceID, sessionID string) (*SessionSummary, error) {
	if sessionID == "" {
		return nil, ErrSessionIDMissing
	}

	var row struct {
		ReadingCount int64
		AvgBPM       float64
		MinBPM       int
		MaxBPM       int
		StartTime    *time.Time
		EndTime      *time.Time
	}
	err := s.db.Model(&Reading{}).
		Scopes(database.ForDevice(deviceID)).
		Where("session_id = ?", sessionID).
		Select("COUNT(*) as reading_count, COALESCE(AVG(bpm), 0) as avg_bpm, COALESCE(MIN(bpm), 0) as min_bpm, COALESCE(MAX(bpm), 0) as max_bpm, MIN(timestamp) as start_time, MAX(timestamp) as end_time").
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute session stats: %w", err)
	}

	summary := &SessionSummary{
		SessionID:    sessionID,
		ReadingCount: row.ReadingCount,
		AvgBPM:       round1(row.AvgBPM),
		MinBPM:       row.MinBPM,
		MaxBPM:       row.MaxBPM,
	}
	if row.StartTime != nil && row.EndTime != nil {
		summary.StartTime = *row.StartTime
		summary.EndTime = *row.EndTime
		summary.DurationMs = row.EndTime.Sub(*row.StartTime).Milliseconds()
	}
	return summary, nil
}

// Trends groups readings into per-day buckets over the last N days.
// Bucketing happens in Go so the query stays portable across drivers.
func (s *HeartbeatService) Trends(deviceID string, days int) ([]DailyTrend, error) {
	if days <= 0 || days > 90 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	var readings []Reading
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Where("timestamp >= ?", since).
		Order("timestamp ASC").Find(&readings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load readings for trends: %w", err)
	}

	type bucket struct {
		sum   int
		min   int
		max   int
		count int64
	}
	buckets := make(map[string]*bucket)
	for _, r := range readings {
		day := r.Timestamp.Format("2006-01-02")
		b, ok := buckets[day]
		if !ok {
			buckets[day] = &bucket{sum: r.BPM, min: r.BPM, max: r.BPM, count: 1}
			continue
		}
		b.sum += r.BPM
		b.count++
		if r.BPM < b.min {
			b.min = r.BPM
		}
		if r.BPM > b.max {
			b.max = r.BPM
		}
	}

	trends := make([]DailyTrend, 0, len(buckets))
	for day, b := range buckets {
		trends = append(trends, DailyTrend{
			Date:   day,
			AvgBPM: round1(float64(b.sum) / float64(b.count)),
			MinBPM: b.min,
			MaxBPM: b.max,
			Count:  b.count,
		})
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return trends, nil
}

// Purge deletes readings, optionally filtered by session and/or cutoff date.
func (s *HeartbeatService) Purge(deviceID, sessionID string, before *time.Time) (int64, error) {
	query := s.db.Scopes(database.ForDevice(deviceID))
	if sessionID != "" {
		query = query.Where("session_id = ?", sessionID)
	}
	if before != nil {
		query = query.Where("timestamp < ?", *before)
	}

	result := query.Delete(&Reading{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete heartbeat readings: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func NewSessionID() string {
	return fmt.Sprintf("session_%d", time.Now().UnixMilli())
}

func computeZones(avgBPM float64) *Zones {
	return &Zones{
		FatBurn: Zone{Min: 50, Max: 69, Percentage: zonePct(avgBPM, 50, 19)},
		Cardio:  Zone{Min: 70, Max: 85, Percentage: zonePct(avgBPM, 70, 15)},
		Peak:    Zone{Min: 85, Max: 100, Percentage: zonePct(avgBPM, 85, 15)},
	}
}

func zonePct(avg, base, span float64) float64 {
	return math.Min(100, math.Max(0, (avg-base)/span*100))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
