package alarms

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lacrlabs/lacr-backend/internal/database"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrAlarmNotFound = errors.New("alarm not found")
	ErrLabelRequired = errors.New("label is required")
	ErrInvalidTime   = errors.New("hour must be 0-23 and minute 0-59")
)

type AlarmService struct {
	db *gorm.DB
}

func NewAlarmService(db *gorm.DB) *AlarmService {
	return &AlarmService{db: db}
}

func (s *AlarmService) Create(deviceID string, req *CreateAlarmRequest) (*Alarm, error) {
	if req.Label == "" {
		return nil, ErrLabelRequired
	}
	if req.Hour == nil || req.Minute == nil || !validTime(*req.Hour, *req.Minute) {
		return nil, ErrInvalidTime
	}

	alarm := Alarm{
		DeviceID:         deviceID,
		Label:            req.Label,
		Hour:             *req.Hour,
		Minute:           *req.Minute,
		Enabled:          true,
		SnoozeEnabled:    true,
		SnoozeDuration:   5,
		SoundEnabled:     true,
		VibrationEnabled: true,
	}
	if req.Enabled != nil {
		alarm.Enabled = *req.Enabled
	}
	if req.Repeat != nil {
		alarm.Repeat = datatypes.NewJSONType(*req.Repeat)
	}
	if req.SnoozeEnabled != nil {
		alarm.SnoozeEnabled = *req.SnoozeEnabled
	}
	if req.SnoozeDuration != nil {
		alarm.SnoozeDuration = *req.SnoozeDuration
	}
	if req.SoundEnabled != nil {
		alarm.SoundEnabled = *req.SoundEnabled
	}
	if req.VibrationEnabled != nil {
		alarm.VibrationEnabled = *req.VibrationEnabled
	}

	if err := s.db.Create(&alarm).Error; err != nil {
		return nil, fmt.Errorf("failed to create alarm: %w", err)
	}
	return &alarm, nil
}

func (s *AlarmService) List(deviceID string) ([]Alarm, error) {
	var alarms []Alarm
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Order("hour ASC, minute ASC").Find(&alarms).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list alarms: %w", err)
	}
	return alarms, nil
}

func (s *AlarmService) Update(deviceID string, alarmID uuid.UUID, req *UpdateAlarmRequest) (*Alarm, error) {
	alarm, err := s.get(deviceID, alarmID)
	if err != nil {
		return nil, err
	}

	if req.Label != "" {
		alarm.Label = req.Label
	}
	if req.Hour != nil || req.Minute != nil {
		hour, minute := alarm.Hour, alarm.Minute
		if req.Hour != nil {
			hour = *req.Hour
		}
		if req.Minute != nil {
			minute = *req.Minute
		}
		if !validTime(hour, minute) {
			return nil, ErrInvalidTime
		}
		alarm.Hour, alarm.Minute = hour, minute
	}
	if req.Enabled != nil {
		alarm.Enabled = *req.Enabled
	}
	if req.Repeat != nil {
		alarm.Repeat = datatypes.NewJSONType(*req.Repeat)
	}
	if req.SnoozeEnabled != nil {
		alarm.SnoozeEnabled = *req.SnoozeEnabled
	}
	if req.SnoozeDuration != nil {
		alarm.SnoozeDuration = *req.SnoozeDuration
	}
	if req.SoundEnabled != nil {
		alarm.SoundEnabled = *req.SoundEnabled
	}
	if req.VibrationEnabled != nil {
		alarm.VibrationEnabled = *req.VibrationEnabled
	}

	if err := s.db.Save(alarm).Error; err != nil {
		return nil, fmt.Errorf("failed to update alarm: %w", err)
	}
	return alarm, nil
}

func (s *AlarmService) Delete(deviceID string, alarmID uuid.UUID) error {
	result := s.db.Scopes(database.ForDevice(deviceID)).
		Where("id = ?", alarmID).Delete(&Alarm{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete alarm: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAlarmNotFound
	}
	return nil
}

func (s *AlarmService) Toggle(deviceID string, alarmID uuid.UUID) (*Alarm, error) {
	alarm, err := s.get(deviceID, alarmID)
	if err != nil {
		return nil, err
	}
	alarm.Enabled = !alarm.Enabled
	if err := s.db.Model(alarm).Update("enabled", alarm.Enabled).Error; err != nil {
		return nil, fmt.Errorf("failed to toggle alarm: %w", err)
	}
	return alarm, nil
}

// Next returns the enabled alarm that fires soonest after now, and when.
// Repeating alarms advance to the next enabled weekday; one-time alarms
// whose time already passed today are skipped.
func (s *AlarmService) Next(deviceID string, now time.Time) (*Alarm, time.Time, error) {
	var alarms []Alarm
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Where("enabled = ?", true).Find(&alarms).Error
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to load alarms: %w", err)
	}

	var next *Alarm
	var soonest time.Time
	for i := range alarms {
		fireAt, ok := nextFiring(&alarms[i], now)
		if !ok {
			continue
		}
		if next == nil || fireAt.Before(soonest) {
			next = &alarms[i]
			soonest = fireAt
		}
	}
	if next == nil {
		return nil, time.Time{}, nil
	}
	return next, soonest, nil
}

func nextFiring(alarm *Alarm, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), alarm.Hour, alarm.Minute, 0, 0, now.Location())
	repeat := alarm.Repeat.Data()

	if !repeat.Any() {
		if today.After(now) {
			return today, true
		}
		return time.Time{}, false
	}

	for i := 0; i <= 7; i++ {
		candidate := today.AddDate(0, 0, i)
		if candidate.After(now) && repeat.On(candidate.Weekday()) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

func (s *AlarmService) get(deviceID string, alarmID uuid.UUID) (*Alarm, error) {
	var alarm Alarm
	err := s.db.Scopes(database.ForDevice(deviceID)).
		Where("id = ?", alarmID).First(&alarm).Error
	if err != nil {
		return nil, ErrAlarmNotFound
	}
	return &alarm, nil
}

func validTime(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}
