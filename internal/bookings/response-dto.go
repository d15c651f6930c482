package bookings

type BookingListResponse struct {
	Bookings []Booking `json:"bookings"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}
