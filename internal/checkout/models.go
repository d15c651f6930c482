package checkout

import (
	"errors"
	"time"

	"travelenda/internal/bookings"
	"travelenda/internal/liteapi"
	"travelenda/internal/pricing"
	"travelenda/internal/search"

	"github.com/google/uuid"
)

type Step string

const (
	StepGuestInfo    Step = "guest_info"
	StepPayment      Step = "payment"
	StepConfirmation Step = "confirmation"
)

// Position is the 1-based index of the step in the flow.
func (s Step) Position() int {
	switch s {
	case StepGuestInfo:
		return 1
	case StepPayment:
		return 2
	case StepConfirmation:
		return 3
	}
	return 0
}

var (
	ErrSessionNotFound      = errors.New("checkout session not found or expired")
	ErrInvalidStep          = errors.New("action not allowed at the current checkout step")
	ErrSubmissionInProgress = errors.New("a payment for this checkout is already being processed")
)

// User-facing messages.
const (
	MsgRequiredFields = "Please fill in all required fields"
	MsgInvalidEmail   = "Please enter a valid email address"
	MsgAcceptTerms    = "Please agree to the terms and conditions"
	MsgInvalidCard    = "Please enter a valid card number"
	MsgInvalidExpiry  = "Please enter a valid expiry date"
	MsgCardExpired    = "This card has expired"
	MsgInvalidCVV     = "Please enter a valid security code"
	MsgRateChanged    = "The price of this room has changed. Please start again to see the new price."
	MsgSubmitTimeout  = "The booking request timed out. Please try again."
	MsgSubmitFailed   = "We couldn't complete your booking. Please try again."
)

// GuestInfo is the lead guest entered at the first step.
type GuestInfo struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,guestemail"`
	Phone     string `json:"phone" validate:"required"`
}

// PaymentInfo only lives for the duration of one submission.
type PaymentInfo struct {
	CardNumber     string `json:"card_number" validate:"required"`
	ExpiryMonth    string `json:"expiry_month" validate:"required"`
	ExpiryYear     string `json:"expiry_year" validate:"required"`
	CVV            string `json:"cvv" validate:"required"`
	CardholderName string `json:"cardholder_name" validate:"required"`
}

// Stay identifies the rate a checkout is started for.
type Stay struct {
	HotelID string       `json:"hotel_id"`
	RoomID  string       `json:"room_id"`
	Query   search.Query `json:"query"`
}

// Session is the persisted state of one checkout. Payment data is never part of it.
type Session struct {
	ID             string               `json:"id"`
	Step           Step                 `json:"step"`
	UserID         *uuid.UUID           `json:"user_id,omitempty"`
	Hotel          liteapi.HotelSummary `json:"hotel"`
	Rate           liteapi.RoomRate     `json:"rate"`
	Query          search.Query         `json:"query"`
	Quote          pricing.Quote        `json:"quote"`
	Guest          GuestInfo            `json:"guest"`
	TermsAccepted  bool                 `json:"terms_accepted"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
	Error          string               `json:"error,omitempty"`
	Booking        *bookings.Booking    `json:"booking,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// View is what the client sees of a session.
type View struct {
	ID            string               `json:"id"`
	Step          Step                 `json:"step"`
	StepNumber    int                  `json:"step_number"`
	Hotel         liteapi.HotelSummary `json:"hotel"`
	Rate          liteapi.RoomRate     `json:"rate"`
	Query         search.Query         `json:"query"`
	Quote         pricing.Quote        `json:"quote"`
	Guest         GuestInfo            `json:"guest"`
	TermsAccepted bool                 `json:"terms_accepted"`
	Error         string               `json:"error,omitempty"`
	Booking       *bookings.Booking    `json:"booking,omitempty"`
	ExpiresAt     time.Time            `json:"expires_at"`
}

func (s *Session) View(ttl time.Duration) View {
	return View{
		ID:            s.ID,
		Step:          s.Step,
		StepNumber:    s.Step.Position(),
		Hotel:         s.Hotel,
		Rate:          s.Rate,
		Query:         s.Query,
		Quote:         s.Quote,
		Guest:         s.Guest,
		TermsAccepted: s.TermsAccepted,
		Error:         s.Error,
		Booking:       s.Booking,
		ExpiresAt:     s.UpdatedAt.Add(ttl),
	}
}

// StepError is a validation or submission failure that leaves the session at its step.
type StepError struct {
	Step      Step
	Message   string
	Retryable bool
	Err       error
}

func (e *StepError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// IsStepError returns the StepError inside err, or nil.
func IsStepError(err error) *StepError {
	var stepErr *StepError
	if errors.As(err, &stepErr) {
		return stepErr
	}
	return nil
}
