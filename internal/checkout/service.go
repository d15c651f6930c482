package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"travelenda/internal/bookings"
	"travelenda/internal/hotels"
	"travelenda/internal/liteapi"
	"travelenda/internal/search"
	"travelenda/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Submitter creates bookings. Satisfied by bookings.Service.
type Submitter interface {
	Submit(ctx context.Context, sub bookings.Submission) (*bookings.Booking, error)
}

// RateSource looks up the hotel and the live rate a checkout is for. Satisfied by hotels.Service.
type RateSource interface {
	Hotel(ctx context.Context, hotelID string) (*liteapi.Hotel, error)
	Rate(ctx context.Context, hotelID, roomID string, query search.Query) (*hotels.PricedRate, error)
}

type Service interface {
	Start(ctx context.Context, stay Stay, userID *uuid.UUID) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	SubmitGuest(ctx context.Context, id string, guest GuestInfo) (*Session, error)
	Back(ctx context.Context, id string) (*Session, error)
	SubmitPayment(ctx context.Context, id string, payment PaymentInfo, termsAccepted bool, userID *uuid.UUID) (*Session, error)
}

// Config bounds a checkout.
type Config struct {
	SessionTTL    time.Duration
	SubmitTimeout time.Duration
}

type service struct {
	store     Store
	rates     RateSource
	submitter Submitter
	config    Config
	validate  *validator.Validate
	log       *logger.Logger
	now       func() time.Time
}

func NewService(store Store, rates RateSource, submitter Submitter, config Config, log *logger.Logger) Service {
	if config.SubmitTimeout <= 0 {
		config.SubmitTimeout = 45 * time.Second
	}
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		store:     store,
		rates:     rates,
		submitter: submitter,
		config:    config,
		validate:  newValidator(),
		log:       log,
		now:       time.Now,
	}
}

func (s *service) Start(ctx context.Context, stay Stay, userID *uuid.UUID) (*Session, error) {
	var (
		hotel *liteapi.Hotel
		rate  *hotels.PricedRate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		hotel, err = s.rates.Hotel(gctx, stay.HotelID)
		return err
	})
	g.Go(func() error {
		var err error
		rate, err = s.rates.Rate(gctx, stay.HotelID, stay.RoomID, stay.Query)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := s.now()
	session := &Session{
		ID:        uuid.NewString(),
		Step:      StepGuestInfo,
		UserID:    userID,
		Hotel:     hotel.HotelSummary,
		Rate:      rate.RoomRate,
		Query:     stay.Query,
		Quote:     rate.Quote,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, err
	}

	s.log.LogCheckoutStep(ctx, session.ID, "", string(StepGuestInfo))
	return session, nil
}

func (s *service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

func (s *service) SubmitGuest(ctx context.Context, id string, guest GuestInfo) (*Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != StepGuestInfo {
		return session, fmt.Errorf("%w: guest details are entered at %s, session is at %s", ErrInvalidStep, StepGuestInfo, session.Step)
	}

	guest = guest.trimmed()
	if msg := validateGuest(s.validate, guest); msg != "" {
		return s.fail(ctx, session, &StepError{Step: StepGuestInfo, Message: msg})
	}

	session.Guest = guest
	session.Step = StepPayment
	session.Error = ""
	if session.IdempotencyKey == "" {
		session.IdempotencyKey = uuid.NewString()
	}
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.log.LogCheckoutStep(ctx, session.ID, string(StepGuestInfo), string(StepPayment))
	return session, nil
}

func (s *service) Back(ctx context.Context, id string) (*Session, error) {
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != StepPayment {
		return session, fmt.Errorf("%w: cannot go back from %s", ErrInvalidStep, session.Step)
	}

	session.Step = StepGuestInfo
	session.Error = ""
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.log.LogCheckoutStep(ctx, session.ID, string(StepPayment), string(StepGuestInfo))
	return session, nil
}

func (s *service) SubmitPayment(ctx context.Context, id string, payment PaymentInfo, termsAccepted bool, userID *uuid.UUID) (*Session, error) {
	release, err := s.store.Lock(ctx, id)
	if err != nil {
		if session, getErr := s.store.Get(ctx, id); getErr == nil {
			return session, err
		}
		return nil, err
	}
	defer release()

	// Read under the lock so a confirmation saved by another request is never overwritten
	session, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Step != StepPayment {
		return session, fmt.Errorf("%w: payment is submitted at %s, session is at %s", ErrInvalidStep, StepPayment, session.Step)
	}

	session.TermsAccepted = termsAccepted
	payment = payment.trimmed()
	if msg := validatePayment(s.validate, payment, termsAccepted, s.now()); msg != "" {
		return s.fail(ctx, session, &StepError{Step: StepPayment, Message: msg})
	}

	if session.UserID == nil {
		session.UserID = userID
	}

	submitCtx, cancel := context.WithTimeout(ctx, s.config.SubmitTimeout)
	defer cancel()

	booking, err := s.submitter.Submit(submitCtx, s.submission(session, payment))
	s.log.LogPayment(ctx, session.ID, MaskCardNumber(payment.CardNumber), session.Quote.Total, err)
	if err != nil {
		return s.fail(ctx, session, submissionError(submitCtx, err))
	}

	session.Booking = booking
	session.Step = StepConfirmation
	session.Error = ""
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}

	s.log.LogCheckoutStep(ctx, session.ID, string(StepPayment), string(StepConfirmation))
	return session, nil
}

func (s *service) submission(session *Session, payment PaymentInfo) bookings.Submission {
	return bookings.Submission{
		IdempotencyKey: session.IdempotencyKey,
		UserID:         session.UserID,
		Hotel:          session.Hotel,
		Rate:           session.Rate,
		Checkin:        session.Query.Checkin.Time,
		Checkout:       session.Query.Checkout.Time,
		Adults:         session.Query.Adults,
		Children:       session.Query.Children,
		Rooms:          session.Query.Rooms,
		Currency:       session.Query.Currency,
		Guest: bookings.Guest{
			FirstName: session.Guest.FirstName,
			LastName:  session.Guest.LastName,
			Email:     session.Guest.Email,
			Phone:     session.Guest.Phone,
		},
		Payment: liteapi.Payment{
			CardNumber:     payment.CardNumber,
			ExpiryMonth:    payment.ExpiryMonth,
			ExpiryYear:     payment.ExpiryYear,
			CVV:            payment.CVV,
			CardholderName: payment.CardholderName,
		},
		Pricing: bookings.Pricing{
			RoomRate: session.Quote.NightlyRate,
			Nights:   session.Quote.Nights,
			Rooms:    session.Quote.Rooms,
			Subtotal: session.Quote.Subtotal,
			Taxes:    session.Quote.Taxes,
			Fees:     session.Quote.Fees,
			Total:    session.Quote.Total,
			Currency: session.Quote.Currency,
		},
	}
}

func submissionError(submitCtx context.Context, err error) *StepError {
	stepErr := &StepError{Step: StepPayment, Message: MsgSubmitFailed, Err: err}
	switch {
	case errors.Is(err, bookings.ErrRateChanged):
		stepErr.Message = MsgRateChanged
	case liteapi.IsTimeout(err), errors.Is(submitCtx.Err(), context.DeadlineExceeded):
		stepErr.Message = MsgSubmitTimeout
		stepErr.Retryable = true
	case liteapi.IsRetryable(err):
		stepErr.Retryable = true
	}
	return stepErr
}

// fail records the step error on the session and leaves everything else untouched.
func (s *service) fail(ctx context.Context, session *Session, stepErr *StepError) (*Session, error) {
	session.Error = stepErr.Message
	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, stepErr
}

func (s *service) save(ctx context.Context, session *Session) error {
	session.UpdatedAt = s.now()
	return s.store.Save(ctx, session)
}
