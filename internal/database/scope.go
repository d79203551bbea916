package database

import "gorm.io/gorm"

// ForDevice returns a GORM scope that filters by device_id.
func ForDevice(deviceID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("device_id = ?", deviceID)
	}
}

// ForOwner returns a GORM scope that filters robots by owner_uid.
func ForOwner(uid string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_uid = ?", uid)
	}
}
