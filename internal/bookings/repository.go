package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, booking *Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Booking, int64, error)

	// UpdateStatus moves a booking from one status to another. It fails with
	// ErrInvalidTransition when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, fields map[string]interface{}) error
	// MarkCancelled sets a booking cancelled whatever its current status and
	// reports whether the row changed. Only for bookings the provider already cancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error)

	ListFinishedStays(ctx context.Context, before time.Time, limit int) ([]Booking, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, booking *Booking) error {
	err := r.db.WithContext(ctx).Create(booking).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateBooking
	}
	return err
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetByIdempotencyKey(ctx context.Context, key string) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("idempotency_key = ?", key).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	query.normalize()

	db := r.db.WithContext(ctx).Model(&Booking{}).Where("user_id = ?", userID)
	if query.Status != "" {
		db = db.Where("status = ?", query.Status)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	var bookings []Booking
	err := db.Order("created_at DESC").
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&bookings).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}

	return bookings, total, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, fields map[string]interface{}) error {
	if err := ValidateTransition(from, to); err != nil {
		return err
	}

	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: booking %s is no longer %s", ErrInvalidTransition, id, from)
	}
	return nil
}

func (r *repository) MarkCancelled(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     StatusCancelled,
		"updated_at": time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status <> ?", id, StatusCancelled).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListFinishedStays(ctx context.Context, before time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND checkout <= ?", StatusConfirmed, before).
		Order("checkout ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}
