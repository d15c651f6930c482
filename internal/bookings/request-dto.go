package bookings

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
