package checkout

import "travelenda/internal/search"

type StartCheckoutRequest struct {
	HotelID string `json:"hotel_id" binding:"required"`
	RoomID  string `json:"room_id" binding:"required"`
	search.Form
}

type GuestRequest struct {
	GuestInfo
}

type PaymentRequest struct {
	PaymentInfo
	TermsAccepted bool `json:"terms_accepted"`
}
