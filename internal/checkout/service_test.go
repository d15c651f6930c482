package checkout

import (
	"context"
	"errors"
	"testing"
	"time"

	"travelenda/internal/bookings"
	bookingmocks "travelenda/internal/bookings/mocks"
	"travelenda/internal/hotels"
	"travelenda/internal/liteapi"
	"travelenda/internal/pricing"
	"travelenda/internal/search"
	"travelenda/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC) }

type stubRates struct {
	hotel *liteapi.Hotel
	rate  *hotels.PricedRate
	err   error
}

func (s *stubRates) Hotel(ctx context.Context, hotelID string) (*liteapi.Hotel, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.hotel, nil
}

func (s *stubRates) Rate(ctx context.Context, hotelID, roomID string, query search.Query) (*hotels.PricedRate, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rate, nil
}

func parisStay(t *testing.T) Stay {
	t.Helper()
	query, err := search.NewBuilder("USD", fixedNow).Build(search.Form{
		Destination: "Paris",
		Checkin:     "2024-02-15",
		Checkout:    "2024-02-18",
	})
	require.NoError(t, err)
	return Stay{HotelID: "h1", RoomID: "deluxe", Query: query}
}

func parisRates() *stubRates {
	rate := liteapi.RoomRate{
		RoomID: "deluxe", RoomName: "Deluxe Double",
		NightlyRate: 150, Taxes: 54, Fees: 25, TotalPrice: 529, Currency: "USD",
	}
	return &stubRates{
		hotel: &liteapi.Hotel{HotelSummary: liteapi.HotelSummary{ID: "h1", Name: "Hotel Le Marais"}},
		rate: &hotels.PricedRate{
			RoomRate: rate,
			Quote:    pricing.PriceIn(150, 3, 1, pricing.DefaultRules(), "USD"),
		},
	}
}

func validGuest() GuestInfo {
	return GuestInfo{FirstName: "Jane", LastName: "Doe", Email: "jane@example.com", Phone: "555-0100"}
}

func validPayment() PaymentInfo {
	return PaymentInfo{
		CardNumber:     "4242 4242 4242 4242",
		ExpiryMonth:    "12",
		ExpiryYear:     "2030",
		CVV:            "123",
		CardholderName: "Jane Doe",
	}
}

type fixture struct {
	svc       *service
	store     Store
	submitter *bookingmocks.MockService
}

func newFixture(t *testing.T, rates RateSource) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStore(rdb, 30*time.Minute, time.Minute)
	submitter := new(bookingmocks.MockService)

	svc := NewService(store, rates, submitter, Config{SessionTTL: 30 * time.Minute, SubmitTimeout: time.Second}, logger.Discard()).(*service)
	svc.now = fixedNow
	return &fixture{svc: svc, store: store, submitter: submitter}
}

func (f *fixture) atPayment(t *testing.T) *Session {
	t.Helper()
	ctx := context.Background()
	session, err := f.svc.Start(ctx, parisStay(t), nil)
	require.NoError(t, err)
	session, err = f.svc.SubmitGuest(ctx, session.ID, validGuest())
	require.NoError(t, err)
	return session
}

func TestStart_PricesTheSelectedRate(t *testing.T) {
	f := newFixture(t, parisRates())

	session, err := f.svc.Start(context.Background(), parisStay(t), nil)

	require.NoError(t, err)
	assert.Equal(t, StepGuestInfo, session.Step)
	assert.Equal(t, "Hotel Le Marais", session.Hotel.Name)
	assert.Equal(t, 3, session.Quote.Nights)
	assert.Equal(t, 450.00, session.Quote.Subtotal)
	assert.Equal(t, 54.00, session.Quote.Taxes)
	assert.Equal(t, 25.00, session.Quote.Fees)
	assert.Equal(t, 529.00, session.Quote.Total)
	assert.Empty(t, session.IdempotencyKey)

	stored, err := f.store.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, stored.ID)
}

func TestStart_RoomGone(t *testing.T) {
	f := newFixture(t, &stubRates{err: hotels.ErrHotelNotFound})

	_, err := f.svc.Start(context.Background(), parisStay(t), nil)
	assert.ErrorIs(t, err, hotels.ErrHotelNotFound)
}

func TestSubmitGuest_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(g *GuestInfo)
		wantMsg string
	}{
		{"invalid email", func(g *GuestInfo) { g.Email = "not-an-email" }, MsgInvalidEmail},
		{"email without tld", func(g *GuestInfo) { g.Email = "jane@example" }, MsgInvalidEmail},
		{"missing first name", func(g *GuestInfo) { g.FirstName = "" }, MsgRequiredFields},
		{"blank phone", func(g *GuestInfo) { g.Phone = "   " }, MsgRequiredFields},
		{"missing field wins over bad email", func(g *GuestInfo) { g.LastName = ""; g.Email = "nope" }, MsgRequiredFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, parisRates())
			ctx := context.Background()
			started, err := f.svc.Start(ctx, parisStay(t), nil)
			require.NoError(t, err)

			guest := validGuest()
			tt.mutate(&guest)
			session, err := f.svc.SubmitGuest(ctx, started.ID, guest)

			stepErr := IsStepError(err)
			require.NotNil(t, stepErr)
			assert.Equal(t, tt.wantMsg, stepErr.Message)
			assert.Equal(t, StepGuestInfo, session.Step)

			stored, err := f.store.Get(ctx, started.ID)
			require.NoError(t, err)
			assert.Equal(t, StepGuestInfo, stored.Step)
			assert.Equal(t, tt.wantMsg, stored.Error)
			assert.Equal(t, GuestInfo{}, stored.Guest)
			assert.Empty(t, stored.IdempotencyKey)
		})
	}
}

func TestSubmitGuest_MovesToPaymentWithKey(t *testing.T) {
	f := newFixture(t, parisRates())

	session := f.atPayment(t)

	assert.Equal(t, StepPayment, session.Step)
	assert.Empty(t, session.Error)
	assert.Equal(t, "jane@example.com", session.Guest.Email)
	_, err := uuid.Parse(session.IdempotencyKey)
	assert.NoError(t, err)
}

func TestBack_KeepsFieldsAndKey(t *testing.T) {
	f := newFixture(t, parisRates())
	ctx := context.Background()
	session := f.atPayment(t)
	key := session.IdempotencyKey

	back, err := f.svc.Back(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, StepGuestInfo, back.Step)
	assert.Equal(t, validGuest(), back.Guest)

	forward, err := f.svc.SubmitGuest(ctx, session.ID, validGuest())
	require.NoError(t, err)
	assert.Equal(t, key, forward.IdempotencyKey)

	_, err = f.svc.Back(ctx, session.ID)
	require.NoError(t, err)
	_, err = f.svc.Back(ctx, session.ID)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestSubmitPayment_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p *PaymentInfo)
		terms   bool
		wantMsg string
	}{
		{"terms not accepted", func(p *PaymentInfo) {}, false, MsgAcceptTerms},
		{"missing cvv", func(p *PaymentInfo) { p.CVV = "" }, true, MsgRequiredFields},
		{"bad checksum", func(p *PaymentInfo) { p.CardNumber = "4242 4242 4242 4241" }, true, MsgInvalidCard},
		{"bad month", func(p *PaymentInfo) { p.ExpiryMonth = "13" }, true, MsgInvalidExpiry},
		{"expired", func(p *PaymentInfo) { p.ExpiryMonth = "01"; p.ExpiryYear = "24" }, true, MsgCardExpired},
		{"short cvv", func(p *PaymentInfo) { p.CVV = "12" }, true, MsgInvalidCVV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, parisRates())
			session := f.atPayment(t)

			payment := validPayment()
			tt.mutate(&payment)
			updated, err := f.svc.SubmitPayment(context.Background(), session.ID, payment, tt.terms, nil)

			stepErr := IsStepError(err)
			require.NotNil(t, stepErr)
			assert.Equal(t, tt.wantMsg, stepErr.Message)
			assert.Equal(t, StepPayment, updated.Step)
			assert.Nil(t, updated.Booking)
			f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
		})
	}
}

func TestSubmitPayment_Confirms(t *testing.T) {
	f := newFixture(t, parisRates())
	session := f.atPayment(t)
	userID := uuid.New()
	booking := &bookings.Booking{ID: uuid.New(), ConfirmationNumber: "LITE-777", Status: bookings.StatusConfirmed}

	f.submitter.On("Submit", mock.Anything, mock.MatchedBy(func(sub bookings.Submission) bool {
		return sub.IdempotencyKey == session.IdempotencyKey &&
			sub.Payment.CardNumber == "4242424242424242" &&
			sub.Pricing.Total == 529 &&
			sub.Guest.Email == "jane@example.com" &&
			sub.UserID != nil && *sub.UserID == userID
	})).Return(booking, nil)

	confirmed, err := f.svc.SubmitPayment(context.Background(), session.ID, validPayment(), true, &userID)

	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, confirmed.Step)
	require.NotNil(t, confirmed.Booking)
	assert.Equal(t, "LITE-777", confirmed.Booking.ConfirmationNumber)
	assert.True(t, confirmed.TermsAccepted)

	_, err = f.svc.SubmitPayment(context.Background(), session.ID, validPayment(), true, nil)
	assert.ErrorIs(t, err, ErrInvalidStep)
	f.submitter.AssertNumberOfCalls(t, "Submit", 1)
}

func TestSubmitPayment_RetryReusesKey(t *testing.T) {
	f := newFixture(t, parisRates())
	session := f.atPayment(t)

	var keys []string
	record := func(args mock.Arguments) {
		keys = append(keys, args.Get(1).(bookings.Submission).IdempotencyKey)
	}
	f.submitter.On("Submit", mock.Anything, mock.Anything).
		Return(nil, &liteapi.APIError{Op: "create_booking", StatusCode: 503}).Once().Run(record)
	f.submitter.On("Submit", mock.Anything, mock.Anything).
		Return(&bookings.Booking{ID: uuid.New()}, nil).Once().Run(record)

	failed, err := f.svc.SubmitPayment(context.Background(), session.ID, validPayment(), true, nil)
	stepErr := IsStepError(err)
	require.NotNil(t, stepErr)
	assert.True(t, stepErr.Retryable)
	assert.Equal(t, MsgSubmitFailed, stepErr.Message)
	assert.Equal(t, StepPayment, failed.Step)
	assert.Equal(t, MsgSubmitFailed, failed.Error)

	confirmed, err := f.svc.SubmitPayment(context.Background(), session.ID, validPayment(), true, nil)
	require.NoError(t, err)
	assert.Equal(t, StepConfirmation, confirmed.Step)
	assert.Empty(t, confirmed.Error)

	require.Len(t, keys, 2)
	assert.Equal(t, keys[0], keys[1])
	assert.Equal(t, session.IdempotencyKey, keys[0])
}

func TestSubmitPayment_RateChanged(t *testing.T) {
	f := newFixture(t, parisRates())
	session := f.atPayment(t)
	f.submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, bookings.ErrRateChanged)

	_, err := f.svc.SubmitPayment(context.Background(), session.ID, validPayment(), true, nil)

	stepErr := IsStepError(err)
	require.NotNil(t, stepErr)
	assert.Equal(t, MsgRateChanged, stepErr.Message)
	assert.False(t, stepErr.Retryable)
}

func TestSubmitPayment_Timeout(t *testing.T) {
	f := newFixture(t, parisRates())
	f.svc.config.SubmitTimeout = 20 * time.Millisecond
	session := f.atPayment(t)

	f.submitter.On("Submit", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		})

	_, err := f.svc.SubmitPayment(context.Background(), session.ID, validPayment(), true, nil)

	stepErr := IsStepError(err)
	require.NotNil(t, stepErr)
	assert.Equal(t, MsgSubmitTimeout, stepErr.Message)
	assert.True(t, stepErr.Retryable)
}

func TestSubmitPayment_ConcurrentSubmissionRejected(t *testing.T) {
	f := newFixture(t, parisRates())
	session := f.atPayment(t)

	release, err := f.store.Lock(context.Background(), session.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitPayment(context.Background(), session.ID, validPayment(), true, nil)
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)

	release()
	_, err = f.store.Lock(context.Background(), session.ID)
	assert.NoError(t, err)
}

// confirmedElsewhere confirms the stored session just before the lock is handed out,
// as a parallel request that finished first would.
type confirmedElsewhere struct {
	Store
	booking *bookings.Booking
	done    bool
}

func (s *confirmedElsewhere) Lock(ctx context.Context, id string) (func(), error) {
	if !s.done {
		s.done = true
		session, err := s.Store.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		session.Step = StepConfirmation
		session.Booking = s.booking
		if err := s.Store.Save(ctx, session); err != nil {
			return nil, err
		}
	}
	return s.Store.Lock(ctx, id)
}

func TestSubmitPayment_DoesNotOverwriteConfirmationFromAnotherRequest(t *testing.T) {
	tests := []struct {
		name    string
		payment PaymentInfo
		terms   bool
	}{
		{"valid payment", validPayment(), true},
		{"invalid payment", PaymentInfo{CardNumber: "1234"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, parisRates())
			session := f.atPayment(t)
			booking := &bookings.Booking{ID: uuid.New(), ConfirmationNumber: "LITE-1", Status: bookings.StatusConfirmed}
			f.svc.store = &confirmedElsewhere{Store: f.store, booking: booking}

			_, err := f.svc.SubmitPayment(context.Background(), session.ID, tt.payment, tt.terms, nil)

			assert.ErrorIs(t, err, ErrInvalidStep)
			f.submitter.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)

			stored, err := f.store.Get(context.Background(), session.ID)
			require.NoError(t, err)
			assert.Equal(t, StepConfirmation, stored.Step)
			require.NotNil(t, stored.Booking)
			assert.Equal(t, "LITE-1", stored.Booking.ConfirmationNumber)
		})
	}
}

func TestSubmitPayment_AtGuestStep(t *testing.T) {
	f := newFixture(t, parisRates())
	session, err := f.svc.Start(context.Background(), parisStay(t), nil)
	require.NoError(t, err)

	_, err = f.svc.SubmitPayment(context.Background(), session.ID, validPayment(), true, nil)
	assert.ErrorIs(t, err, ErrInvalidStep)
}

func TestSessionNotFound(t *testing.T) {
	f := newFixture(t, parisRates())

	_, err := f.svc.SubmitGuest(context.Background(), "missing", validGuest())
	assert.True(t, errors.Is(err, ErrSessionNotFound))
}
