package logging

import (
	"log/slog"
	"time"

	"github.com/lacrlabs/lacr-backend/internal/models"
	"gorm.io/gorm"
)

const retentionDays = 30

// StartCleanup prunes system_logs past the retention window once a day.
// Closing done stops the goroutine.
func StartCleanup(db *gorm.DB, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				prune(db)
			case <-done:
				return
			}
		}
	}()
}

func prune(db *gorm.DB) {
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	result := db.Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "error", result.Error)
		return
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
}
