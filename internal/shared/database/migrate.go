package database

import (
	"travelenda/internal/auth"
	"travelenda/internal/bookings"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&auth.Profile{},
		&bookings.Booking{},
	)
}
