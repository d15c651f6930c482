package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"travelenda/internal/liteapi"
	"travelenda/internal/pricing"
	"travelenda/internal/shared/constants"
	"travelenda/pkg/cache"
	"travelenda/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	// Submit creates a booking once per idempotency key. Retries with the same key
	// return the booking created by the first successful attempt.
	Submit(ctx context.Context, sub Submission) (*Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*Booking, error)
	ListForUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Booking, int64, error)
	Cancel(ctx context.Context, id, userID uuid.UUID, reason string) (*Booking, error)
	CompleteFinishedStays(ctx context.Context, now time.Time, limit int) (int, error)
}

type service struct {
	repo      Repository
	inventory liteapi.Client
	cache     cache.Service
	publisher Publisher
	log       *logger.Logger
	now       func() time.Time
}

// NewService creates the booking service. cacheService and publisher may be nil.
func NewService(repo Repository, inventory liteapi.Client, cacheService cache.Service, publisher Publisher, log *logger.Logger) Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		repo:      repo,
		inventory: inventory,
		cache:     cacheService,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

func (s *service) Submit(ctx context.Context, sub Submission) (*Booking, error) {
	if sub.IdempotencyKey == "" {
		return nil, ErrMissingIdempotency
	}
	if sub.Hotel.ID == "" || sub.Rate.RoomID == "" || sub.Guest.Email == "" {
		return nil, ErrIncompleteSubmission
	}

	nights := pricing.Nights(sub.Checkin, sub.Checkout)
	if !pricing.RateTotalConsistent(sub.Rate.NightlyRate, sub.Rate.Taxes, sub.Rate.Fees, sub.Rate.TotalPrice, nights) {
		return nil, ErrRateChanged
	}

	existing, err := s.repo.GetByIdempotencyKey(ctx, sub.IdempotencyKey)
	if err == nil {
		s.log.InfoContext(ctx, "Returning booking for repeated submission",
			slog.String("booking_id", existing.ID.String()),
		)
		return existing, nil
	}
	if !errors.Is(err, ErrBookingNotFound) {
		return nil, fmt.Errorf("lookup booking: %w", err)
	}

	confirmation, err := s.inventory.CreateBooking(ctx, liteapi.BookingRequest{
		Occupancy: liteapi.Occupancy{
			Checkin:  sub.Checkin.Format(liteapi.DateLayout),
			Checkout: sub.Checkout.Format(liteapi.DateLayout),
			Adults:   sub.Adults,
			Children: sub.Children,
			Rooms:    sub.Rooms,
			Currency: sub.Currency,
		},
		HotelID: sub.Hotel.ID,
		RoomID:  sub.Rate.RoomID,
		Guest: liteapi.Guest{
			FirstName: sub.Guest.FirstName,
			LastName:  sub.Guest.LastName,
			Email:     sub.Guest.Email,
			Phone:     sub.Guest.Phone,
		},
		Payment:    sub.Payment,
		TotalPrice: sub.Pricing.Total,
	}, sub.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}

	booking, err := s.newBooking(sub, confirmation, nights)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		if errors.Is(err, ErrDuplicateBooking) {
			// A concurrent attempt with the same key won the insert.
			return s.repo.GetByIdempotencyKey(ctx, sub.IdempotencyKey)
		}
		return nil, fmt.Errorf("save booking: %w", err)
	}

	s.log.LogBookingCreated(ctx, booking.ID.String(), booking.HotelID, booking.ConfirmationNumber, booking.Pricing.Total)
	s.invalidateRates(ctx, booking.HotelID)
	s.publish(ctx, EventBookingConfirmed, booking)

	return booking, nil
}

func (s *service) newBooking(sub Submission, confirmation *liteapi.BookingConfirmation, nights int) (*Booking, error) {
	number := confirmation.ConfirmationNumber
	if number == "" {
		var err error
		if number, err = generateConfirmationNumber(s.now()); err != nil {
			return nil, fmt.Errorf("confirmation number: %w", err)
		}
	}

	hotelName := sub.Hotel.Name
	if hotelName == "" {
		hotelName = confirmation.HotelName
	}

	price := sub.Pricing
	price.Nights = nights
	if price.Currency == "" {
		price.Currency = sub.Currency
	}

	return &Booking{
		ID:                 uuid.New(),
		ConfirmationNumber: number,
		ProviderBookingID:  confirmation.BookingID,
		IdempotencyKey:     sub.IdempotencyKey,
		UserID:             sub.UserID,
		Status:             ParseStatus(confirmation.Status),
		HotelID:            sub.Hotel.ID,
		HotelName:          hotelName,
		HotelAddress:       sub.Hotel.Address,
		RoomID:             sub.Rate.RoomID,
		RoomName:           sub.Rate.RoomName,
		BedType:            sub.Rate.BedType,
		Checkin:            sub.Checkin,
		Checkout:           sub.Checkout,
		Adults:             sub.Adults,
		Children:           sub.Children,
		Guest:              sub.Guest,
		Pricing:            price,
		Cancellation: CancellationPolicy{
			Refundable: sub.Rate.CancellationPolicy.Refundable,
			Deadline:   sub.Rate.CancellationPolicy.Deadline,
			Penalty:    sub.Rate.CancellationPolicy.Penalty,
		},
	}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	if s.cache == nil {
		return s.repo.GetByID(ctx, id)
	}

	var booking Booking
	err := s.cache.GetOrSet(ctx, constants.BuildBookingDetailKey(id.String()), constants.TTL_BOOKING_DETAIL, func() (interface{}, error) {
		return s.repo.GetByID(ctx, id)
	}, &booking)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]Booking, int64, error) {
	if query.Status != "" && !query.Status.IsValid() {
		return nil, 0, fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, query.Status)
	}
	return s.repo.ListByUser(ctx, userID, query)
}

func (s *service) Cancel(ctx context.Context, id, userID uuid.UUID, reason string) (*Booking, error) {
	booking, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !booking.OwnedBy(userID) {
		return nil, ErrAccessDenied
	}
	if !booking.Status.CanBeCancelled() {
		return nil, fmt.Errorf("%w: booking is %s", ErrNotCancellable, booking.Status)
	}

	var refund float64
	if booking.ProviderBookingID != "" {
		confirmation, err := s.inventory.CancelBooking(ctx, booking.ProviderBookingID)
		if err != nil {
			return nil, fmt.Errorf("cancel booking with provider: %w", err)
		}
		refund = confirmation.RefundAmount
	}

	now := s.now()
	fields := map[string]interface{}{
		"cancelled_at":        now,
		"cancellation_reason": reason,
		"refund_amount":       refund,
	}
	if err := s.repo.UpdateStatus(ctx, id, booking.Status, StatusCancelled, fields); err != nil {
		if booking.ProviderBookingID == "" {
			return nil, fmt.Errorf("cancel booking: %w", err)
		}
		reconciled, done, err := s.reconcileCancelled(ctx, id, fields, err)
		if err != nil || done {
			return reconciled, err
		}
	}

	booking.Status = StatusCancelled
	booking.CancelledAt = &now
	booking.CancellationReason = reason
	booking.RefundAmount = refund

	s.invalidate(ctx, id)
	s.invalidateRates(ctx, booking.HotelID)
	s.log.LogBookingCancelled(ctx, id.String(), booking.HotelID, userID.String())
	s.publish(ctx, EventBookingCancelled, booking)

	return booking, nil
}

// reconcileCancelled runs when the provider has cancelled but the guarded update lost:
// the stay job completed the row, another request cancelled it, or the write failed.
// The provider is authoritative, so the row is forced to cancelled. done reports that
// another request already recorded the cancellation and nothing is left to publish.
func (s *service) reconcileCancelled(ctx context.Context, id uuid.UUID, fields map[string]interface{}, updateErr error) (*Booking, bool, error) {
	changed, err := s.repo.MarkCancelled(ctx, id, fields)
	if err != nil {
		s.log.ErrorWithContext(ctx, "Booking cancelled with provider but not locally", err, map[string]interface{}{
			"booking_id": id.String(),
		})
		return nil, true, fmt.Errorf("cancel booking: %w", errors.Join(updateErr, err))
	}
	if changed {
		s.log.Warn("Booking moved while cancelling, recorded provider cancellation",
			slog.String("booking_id", id.String()),
			slog.Any("error", updateErr),
		)
		return nil, false, nil
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, true, err
	}
	s.invalidate(ctx, id)
	return current, true, nil
}

func (s *service) CompleteFinishedStays(ctx context.Context, now time.Time, limit int) (int, error) {
	finished, err := s.repo.ListFinishedStays(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("list finished stays: %w", err)
	}

	completed := 0
	for i := range finished {
		booking := &finished[i]
		err := s.repo.UpdateStatus(ctx, booking.ID, StatusConfirmed, StatusCompleted, map[string]interface{}{
			"completed_at": now,
		})
		if err != nil {
			// cancelled in the meantime
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			return completed, fmt.Errorf("complete booking %s: %w", booking.ID, err)
		}

		booking.Status = StatusCompleted
		booking.CompletedAt = &now
		s.invalidate(ctx, booking.ID)
		s.publish(ctx, EventBookingCompleted, booking)
		completed++
	}

	return completed, nil
}

func (s *service) invalidate(ctx context.Context, id uuid.UUID) {
	if s.cache == nil {
		return
	}
	key := constants.BuildBookingDetailKey(id.String())
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.LogCacheError(ctx, "delete", key, err)
	}
}

// invalidateRates drops the cached rate lists of a hotel whose availability just changed
func (s *service) invalidateRates(ctx context.Context, hotelID string) {
	if s.cache == nil || hotelID == "" {
		return
	}
	pattern := constants.BuildHotelRatesPattern(hotelID)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.log.LogCacheError(ctx, "delete_pattern", pattern, err)
	}
}

// publish never fails the caller; the booking is already stored.
func (s *service) publish(ctx context.Context, eventType EventType, booking *Booking) {
	event := Event{
		Type:       eventType,
		BookingID:  booking.ID.String(),
		OccurredAt: s.now(),
		Booking:    *booking,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.ErrorWithContext(ctx, "Failed to publish booking event", err, map[string]interface{}{
			"booking_id": event.BookingID,
			"event_type": string(eventType),
		})
	}
}

// generateConfirmationNumber is used when the provider does not return one
func generateConfirmationNumber(now time.Time) (string, error) {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	randomPart := make([]byte, 6)

	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("TRV-%s-%s", now.Format("060102"), string(randomPart)), nil
}
