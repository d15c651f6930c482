package bookings

import (
	"fmt"
	"strings"
)

const displayDate = "Mon, Jan 2, 2006"

// Share is the payload for a native share sheet.
type Share struct {
	Title     string `json:"title"`
	Text      string `json:"text"`
	URL       string `json:"url"`
	Clipboard string `json:"clipboard"`
}

// ExportFilename names the downloaded confirmation document.
func ExportFilename(b *Booking) string {
	return fmt.Sprintf("booking-%s.txt", b.ConfirmationNumber)
}

// ExportText renders the booking as a plain-text confirmation document.
func ExportText(b *Booking) string {
	var sb strings.Builder
	line := func(format string, args ...interface{}) {
		fmt.Fprintf(&sb, format+"\n", args...)
	}
	currency := b.Pricing.Currency

	line("TRAVELENDA BOOKING CONFIRMATION")
	line("===============================")
	line("")
	line("Confirmation Number: %s", b.ConfirmationNumber)
	line("Booking ID: %s", b.ID)
	line("Status: %s", strings.ToUpper(b.Status.String()))
	line("")
	line("HOTEL")
	line("-----")
	line("%s", b.HotelName)
	if b.HotelAddress != "" {
		line("%s", b.HotelAddress)
	}
	line("Room: %s", b.RoomName)
	if b.BedType != "" {
		line("Bed: %s", b.BedType)
	}
	line("")
	line("STAY")
	line("----")
	line("Check-in: %s", b.Checkin.Format(displayDate))
	line("Check-out: %s", b.Checkout.Format(displayDate))
	line("Nights: %d", b.Pricing.Nights)
	line("Guests: %s", guestsLabel(b.Adults, b.Children))
	line("Rooms: %d", b.Pricing.Rooms)
	line("")
	line("GUEST")
	line("-----")
	line("%s %s", b.Guest.FirstName, b.Guest.LastName)
	line("%s", b.Guest.Email)
	line("%s", b.Guest.Phone)
	line("")
	line("PRICE")
	line("-----")
	line("Room rate: %s x %d nights x %d rooms", money(b.Pricing.RoomRate, currency), b.Pricing.Nights, b.Pricing.Rooms)
	line("Subtotal: %s", money(b.Pricing.Subtotal, currency))
	line("Taxes: %s", money(b.Pricing.Taxes, currency))
	line("Fees: %s", money(b.Pricing.Fees, currency))
	line("Total: %s", money(b.Pricing.Total, currency))
	line("")
	line("CANCELLATION")
	line("------------")
	line("%s", cancellationLabel(b.Cancellation, currency))
	if b.Status == StatusCancelled {
		if b.CancelledAt != nil {
			line("Cancelled: %s", b.CancelledAt.Format(displayDate))
		}
		if b.RefundAmount > 0 {
			line("Refund: %s", money(b.RefundAmount, currency))
		}
	}

	return sb.String()
}

// ShareSummary builds the share payload. url points at the public confirmation page.
func ShareSummary(b *Booking, url string) Share {
	text := fmt.Sprintf("My stay at %s, %s to %s. Confirmation %s.",
		b.HotelName,
		b.Checkin.Format(displayDate),
		b.Checkout.Format(displayDate),
		b.ConfirmationNumber,
	)

	return Share{
		Title:     fmt.Sprintf("Booking at %s", b.HotelName),
		Text:      text,
		URL:       url,
		Clipboard: ClipboardText(b, url),
	}
}

// ClipboardText is the one-line fallback when native share is unavailable.
func ClipboardText(b *Booking, url string) string {
	s := fmt.Sprintf("%s | %s - %s | Confirmation %s | %s",
		b.HotelName,
		b.Checkin.Format("2006-01-02"),
		b.Checkout.Format("2006-01-02"),
		b.ConfirmationNumber,
		money(b.Pricing.Total, b.Pricing.Currency),
	)
	if url != "" {
		s += " | " + url
	}
	return s
}

func money(amount float64, currency string) string {
	if currency == "" || currency == "USD" {
		return fmt.Sprintf("$%.2f", amount)
	}
	return fmt.Sprintf("%.2f %s", amount, currency)
}

func guestsLabel(adults, children int) string {
	s := plural(adults, "adult", "adults")
	if children > 0 {
		s += ", " + plural(children, "child", "children")
	}
	return s
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}

func cancellationLabel(p CancellationPolicy, currency string) string {
	if !p.Refundable {
		return "Non-refundable"
	}
	s := "Free cancellation"
	if p.Deadline != "" {
		s += " until " + p.Deadline
	}
	if p.Penalty != nil && *p.Penalty > 0 {
		s += fmt.Sprintf(", then %s penalty", money(*p.Penalty, currency))
	}
	return s
}
