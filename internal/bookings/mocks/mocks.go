package mocks

import (
	"context"
	"time"

	"travelenda/internal/bookings"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, booking *bookings.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Booking), args.Error(1)
}

func (m *MockRepository) GetByIdempotencyKey(ctx context.Context, key string) (*bookings.Booking, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Booking), args.Error(1)
}

func (m *MockRepository) ListByUser(ctx context.Context, userID uuid.UUID, query bookings.ListQuery) ([]bookings.Booking, int64, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]bookings.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to bookings.Status, fields map[string]interface{}) error {
	args := m.Called(ctx, id, from, to, fields)
	return args.Error(0)
}

func (m *MockRepository) MarkCancelled(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (bool, error) {
	args := m.Called(ctx, id, fields)
	return args.Bool(0), args.Error(1)
}

func (m *MockRepository) ListFinishedStays(ctx context.Context, before time.Time, limit int) ([]bookings.Booking, error) {
	args := m.Called(ctx, before, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]bookings.Booking), args.Error(1)
}

type MockService struct {
	mock.Mock
}

func (m *MockService) Submit(ctx context.Context, sub bookings.Submission) (*bookings.Booking, error) {
	args := m.Called(ctx, sub)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Booking), args.Error(1)
}

func (m *MockService) Get(ctx context.Context, id uuid.UUID) (*bookings.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Booking), args.Error(1)
}

func (m *MockService) ListForUser(ctx context.Context, userID uuid.UUID, query bookings.ListQuery) ([]bookings.Booking, int64, error) {
	args := m.Called(ctx, userID, query)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]bookings.Booking), args.Get(1).(int64), args.Error(2)
}

func (m *MockService) Cancel(ctx context.Context, id, userID uuid.UUID, reason string) (*bookings.Booking, error) {
	args := m.Called(ctx, id, userID, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bookings.Booking), args.Error(1)
}

func (m *MockService) CompleteFinishedStays(ctx context.Context, now time.Time, limit int) (int, error) {
	args := m.Called(ctx, now, limit)
	return args.Int(0), args.Error(1)
}

// RecordingPublisher keeps every published event.
type RecordingPublisher struct {
	Events []bookings.Event
	Err    error
}

func (p *RecordingPublisher) Publish(ctx context.Context, event bookings.Event) error {
	p.Events = append(p.Events, event)
	return p.Err
}
