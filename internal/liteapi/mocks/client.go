package mocks

import (
	"context"

	"travelenda/internal/liteapi"

	"github.com/stretchr/testify/mock"
)

// MockClient is a testify mock of liteapi.Client
type MockClient struct {
	mock.Mock
}

func (m *MockClient) SearchHotels(ctx context.Context, req liteapi.SearchRequest) (*liteapi.SearchResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*liteapi.SearchResult), args.Error(1)
}

func (m *MockClient) GetHotel(ctx context.Context, hotelID string) (*liteapi.Hotel, error) {
	args := m.Called(ctx, hotelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*liteapi.Hotel), args.Error(1)
}

func (m *MockClient) GetRoomRates(ctx context.Context, req liteapi.RatesRequest) ([]liteapi.RoomRate, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]liteapi.RoomRate), args.Error(1)
}

func (m *MockClient) CreateBooking(ctx context.Context, req liteapi.BookingRequest, idempotencyKey string) (*liteapi.BookingConfirmation, error) {
	args := m.Called(ctx, req, idempotencyKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*liteapi.BookingConfirmation), args.Error(1)
}

func (m *MockClient) GetBooking(ctx context.Context, bookingID string) (*liteapi.BookingConfirmation, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*liteapi.BookingConfirmation), args.Error(1)
}

func (m *MockClient) CancelBooking(ctx context.Context, bookingID string) (*liteapi.BookingConfirmation, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*liteapi.BookingConfirmation), args.Error(1)
}

func (m *MockClient) SearchDestinations(ctx context.Context, query string, limit int) ([]liteapi.Destination, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]liteapi.Destination), args.Error(1)
}
