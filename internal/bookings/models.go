package bookings

import (
	"time"

	"travelenda/internal/liteapi"

	"github.com/google/uuid"
)

// Guest is the lead guest, frozen at submission time.
type Guest struct {
	FirstName string `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string `gorm:"type:varchar(100);not null" json:"last_name"`
	Email     string `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone     string `gorm:"type:varchar(50);not null" json:"phone"`
}

// Pricing is the quote the guest agreed to.
type Pricing struct {
	RoomRate float64 `gorm:"type:decimal(12,2);not null" json:"room_rate"`
	Nights   int     `gorm:"not null" json:"nights"`
	Rooms    int     `gorm:"not null;default:1" json:"rooms"`
	Subtotal float64 `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	Taxes    float64 `gorm:"type:decimal(12,2);not null" json:"taxes"`
	Fees     float64 `gorm:"type:decimal(12,2);not null" json:"fees"`
	Total    float64 `gorm:"type:decimal(12,2);not null" json:"total"`
	Currency string  `gorm:"type:varchar(3);not null" json:"currency"`
}

// CancellationPolicy is copied from the booked rate.
type CancellationPolicy struct {
	Refundable bool     `gorm:"not null;default:false" json:"refundable"`
	Deadline   string   `gorm:"type:varchar(40)" json:"deadline,omitempty"`
	Penalty    *float64 `gorm:"type:decimal(12,2)" json:"penalty,omitempty"`
}

type Booking struct {
	ID                 uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ConfirmationNumber string     `gorm:"type:varchar(40);uniqueIndex;not null" json:"confirmation_number"`
	ProviderBookingID  string     `gorm:"type:varchar(64);index" json:"provider_booking_id"`
	IdempotencyKey     string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	UserID             *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Status             Status     `gorm:"type:varchar(20);not null;default:'pending';check:status IN ('pending','confirmed','cancelled','completed');index" json:"status"`

	HotelID      string `gorm:"type:varchar(64);not null;index" json:"hotel_id"`
	HotelName    string `gorm:"type:varchar(255)" json:"hotel_name"`
	HotelAddress string `gorm:"type:text" json:"hotel_address,omitempty"`
	RoomID       string `gorm:"type:varchar(64);not null" json:"room_id"`
	RoomName     string `gorm:"type:varchar(255)" json:"room_name"`
	BedType      string `gorm:"type:varchar(100)" json:"bed_type,omitempty"`

	Checkin  time.Time `gorm:"type:date;not null" json:"checkin"`
	Checkout time.Time `gorm:"type:date;not null;index" json:"checkout"`
	Adults   int       `gorm:"not null" json:"adults"`
	Children int       `gorm:"not null;default:0" json:"children"`

	Guest        Guest              `gorm:"embedded;embeddedPrefix:guest_" json:"guest"`
	Pricing      Pricing            `gorm:"embedded;embeddedPrefix:price_" json:"pricing"`
	Cancellation CancellationPolicy `gorm:"embedded;embeddedPrefix:cancellation_" json:"cancellation_policy"`

	CancellationReason string     `gorm:"type:text" json:"cancellation_reason,omitempty"`
	RefundAmount       float64    `gorm:"type:decimal(12,2);default:0" json:"refund_amount,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (Booking) TableName() string {
	return "bookings"
}

// OwnedBy reports whether the booking belongs to userID. Anonymous bookings belong to nobody.
func (b *Booking) OwnedBy(userID uuid.UUID) bool {
	return b.UserID != nil && *b.UserID == userID
}

// Submission is everything needed to create a booking from a checkout session.
type Submission struct {
	IdempotencyKey string
	UserID         *uuid.UUID
	Hotel          liteapi.HotelSummary
	Rate           liteapi.RoomRate
	Checkin        time.Time
	Checkout       time.Time
	Adults         int
	Children       int
	Rooms          int
	Currency       string
	Guest          Guest
	Payment        liteapi.Payment
	Pricing        Pricing
}

// ListQuery pages through a user's bookings.
type ListQuery struct {
	Status Status `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

func (q *ListQuery) normalize() {
	if q.Limit <= 0 || q.Limit > 50 {
		q.Limit = 10
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}
