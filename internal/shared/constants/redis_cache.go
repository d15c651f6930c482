package constants

import (
	"fmt"
	"time"
)

// Redis Cache Configuration
// This file centralizes all Redis cache keys and TTL values for the Travelenda application
// Pattern: travelenda:{module}:{operation}:{identifier}:{params?}

// ================== REDIS KEY PREFIXES ==================

const (
	CACHE_PREFIX = "travelenda"
)

// ================== HOTELS MODULE ==================

const (
	CACHE_KEY_HOTELS_SEARCH = CACHE_PREFIX + ":hotels:search:"      // + canonical query hash
	CACHE_KEY_HOTEL_DETAIL  = CACHE_PREFIX + ":hotels:detail:id:"   // + hotel-id
	CACHE_KEY_HOTEL_RATES   = CACHE_PREFIX + ":hotels:rates:id:"    // + hotel-id:stay
)

const (
	TTL_HOTELS_SEARCH = 5 * time.Minute
	TTL_HOTEL_DETAIL  = 6 * time.Hour
	TTL_HOTEL_RATES   = 2 * time.Minute
)

// ================== DESTINATIONS MODULE ==================

const (
	CACHE_KEY_DESTINATIONS_SUGGEST = CACHE_PREFIX + ":destinations:suggest:" // + query:limit
)

const (
	TTL_DESTINATIONS_SUGGEST = 24 * time.Hour
)

// ================== CHECKOUT MODULE ==================

const (
	CACHE_KEY_CHECKOUT_SESSION = CACHE_PREFIX + ":checkout:session:id:" // + session-id
	CACHE_KEY_CHECKOUT_LOCK    = CACHE_PREFIX + ":checkout:lock:id:"    // + session-id
)

// ================== BOOKINGS MODULE ==================

const (
	CACHE_KEY_BOOKING_DETAIL = CACHE_PREFIX + ":bookings:detail:id:" // + booking-id
)

const (
	TTL_BOOKING_DETAIL = 10 * time.Minute
)

// ================== AUTH MODULE ==================

const (
	CACHE_KEY_PROFILE = CACHE_PREFIX + ":auth:profile:id:" // + user-id
)

const (
	TTL_PROFILE = 6 * time.Hour
)

// ================== HELPER FUNCTIONS ==================

// BuildHotelSearchKey builds the key for a search result page
func BuildHotelSearchKey(canonicalQuery string) string {
	return CACHE_KEY_HOTELS_SEARCH + canonicalQuery
}

// BuildHotelDetailKey builds the key for a hotel record
func BuildHotelDetailKey(hotelID string) string {
	return CACHE_KEY_HOTEL_DETAIL + hotelID
}

// BuildHotelRatesKey builds the key for the rates of a stay
func BuildHotelRatesKey(hotelID, checkin, checkout string, adults, children, rooms int, currency string) string {
	return fmt.Sprintf("%s%s:%s:%s:a%d:c%d:r%d:%s", CACHE_KEY_HOTEL_RATES, hotelID, checkin, checkout, adults, children, rooms, currency)
}

// BuildHotelRatesPattern matches every cached rate list of a hotel
func BuildHotelRatesPattern(hotelID string) string {
	return CACHE_KEY_HOTEL_RATES + hotelID + ":*"
}

// BuildDestinationSuggestKey builds the key for autocomplete suggestions
func BuildDestinationSuggestKey(query string, limit int) string {
	return fmt.Sprintf("%s%s:limit:%d", CACHE_KEY_DESTINATIONS_SUGGEST, query, limit)
}

// BuildCheckoutSessionKey builds the key for a checkout session
func BuildCheckoutSessionKey(sessionID string) string {
	return CACHE_KEY_CHECKOUT_SESSION + sessionID
}

// BuildCheckoutLockKey builds the key guarding a payment submission
func BuildCheckoutLockKey(sessionID string) string {
	return CACHE_KEY_CHECKOUT_LOCK + sessionID
}

// BuildBookingDetailKey builds the key for a booking record
func BuildBookingDetailKey(bookingID string) string {
	return CACHE_KEY_BOOKING_DETAIL + bookingID
}

// BuildProfileKey builds the key for a user profile
func BuildProfileKey(userID string) string {
	return CACHE_KEY_PROFILE + userID
}
