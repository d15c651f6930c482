package liteapi

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Location is a hotel's geographic position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// HotelSummary is one entry of a search result page.
type HotelSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	StarRating  int      `json:"starRating"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images"`
	RatingScore float64  `json:"ratingScore"`
	ReviewCount int      `json:"reviewCount"`
	MinPrice    *float64 `json:"minPrice,omitempty"`
	Currency    string   `json:"currency,omitempty"`
}

// Hotel is the full hotel record shown on the detail page.
type Hotel struct {
	HotelSummary
	Description  string   `json:"description"`
	CheckinTime  string   `json:"checkinTime"`
	CheckoutTime string   `json:"checkoutTime"`
	Facilities   []string `json:"facilities"`
	Location     Location `json:"location"`
}

// CancellationPolicy describes whether and until when a rate can be refunded.
type CancellationPolicy struct {
	Refundable bool     `json:"refundable"`
	Deadline   string   `json:"deadline,omitempty"`
	Penalty    *float64 `json:"penalty,omitempty"`
}

// RoomRate is a bookable room offer for the requested stay.
type RoomRate struct {
	RoomID             string             `json:"roomId"`
	RoomName           string             `json:"roomName"`
	BedType            string             `json:"bedType"`
	MaxOccupancy       int                `json:"maxOccupancy"`
	Amenities          []string           `json:"amenities"`
	NightlyRate        float64            `json:"nightlyRate"`
	Taxes              float64            `json:"taxes"`
	Fees               float64            `json:"fees"`
	TotalPrice         float64            `json:"totalPrice"`
	Currency           string             `json:"currency"`
	CancellationPolicy CancellationPolicy `json:"cancellationPolicy"`
}

// Destination is an autocomplete suggestion.
type Destination struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Country     string `json:"country"`
	Type        string `json:"type"`
	HotelCount  int    `json:"hotelCount,omitempty"`
	CountryCode string `json:"countryCode,omitempty"`
}

// Occupancy groups the stay parameters shared by search, rates and booking calls.
type Occupancy struct {
	Checkin  string `json:"checkin"`
	Checkout string `json:"checkout"`
	Adults   int    `json:"adults"`
	Children int    `json:"children"`
	Rooms    int    `json:"rooms"`
	Currency string `json:"currency,omitempty"`
}

// SearchRequest carries the search query plus server-side filters, sort and page.
type SearchRequest struct {
	Occupancy
	Destination string
	StarRatings []int
	Amenities   []string
	Sort        string
	Page        int
	PageSize    int
}

// SearchResult is one page of hotels.
type SearchResult struct {
	Hotels   []HotelSummary `json:"hotels"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"pageSize"`
	HasMore  bool           `json:"hasMore"`
}

// RatesRequest asks for room rates of one hotel.
type RatesRequest struct {
	Occupancy
	HotelID string
}

// Guest is the lead guest sent with a booking.
type Guest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// Payment is forwarded to the provider as-is and never persisted.
type Payment struct {
	CardNumber     string `json:"cardNumber"`
	ExpiryMonth    string `json:"expiryMonth"`
	ExpiryYear     string `json:"expiryYear"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholderName"`
}

// BookingRequest is the body of a booking creation call.
type BookingRequest struct {
	Occupancy
	HotelID    string  `json:"hotelId"`
	RoomID     string  `json:"roomId"`
	Guest      Guest   `json:"guest"`
	Payment    Payment `json:"payment"`
	TotalPrice float64 `json:"totalPrice"`
}

// BookingConfirmation is the provider's view of a booking.
type BookingConfirmation struct {
	BookingID          string  `json:"bookingId"`
	ConfirmationNumber string  `json:"confirmationNumber"`
	Status             string  `json:"status"`
	HotelID            string  `json:"hotelId"`
	HotelName          string  `json:"hotelName,omitempty"`
	TotalPrice         float64 `json:"totalPrice"`
	Currency           string  `json:"currency"`
	RefundAmount       float64 `json:"refundAmount,omitempty"`
}
