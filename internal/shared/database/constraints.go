package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds indexes AutoMigrate cannot express
func MigrateConstraints(db *gorm.DB) error {
	// The stay completion job scans confirmed bookings by checkout date
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_confirmed_checkout
		ON bookings (checkout)
		WHERE status = 'confirmed';
	`).Error
	if err != nil {
		return err
	}

	// Dashboard listing, newest first
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_user_created
		ON bookings (user_id, created_at DESC)
		WHERE user_id IS NOT NULL;
	`).Error
	if err != nil {
		return err
	}

	return nil
}
