package checkout

import (
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidEmail is the email predicate applied at the guest step.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("guestemail", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	return v
}

func (g GuestInfo) trimmed() GuestInfo {
	return GuestInfo{
		FirstName: strings.TrimSpace(g.FirstName),
		LastName:  strings.TrimSpace(g.LastName),
		Email:     strings.TrimSpace(g.Email),
		Phone:     strings.TrimSpace(g.Phone),
	}
}

// validateGuest returns the message for the first rule guest breaks, or "".
// Missing fields are reported before a malformed email.
func validateGuest(v *validator.Validate, guest GuestInfo) string {
	err := v.Struct(guest)
	if err == nil {
		return ""
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return MsgRequiredFields
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return MsgRequiredFields
		}
	}
	return MsgInvalidEmail
}

func (p PaymentInfo) trimmed() PaymentInfo {
	return PaymentInfo{
		CardNumber:     NormalizeCardNumber(p.CardNumber),
		ExpiryMonth:    strings.TrimSpace(p.ExpiryMonth),
		ExpiryYear:     strings.TrimSpace(p.ExpiryYear),
		CVV:            strings.TrimSpace(p.CVV),
		CardholderName: strings.TrimSpace(p.CardholderName),
	}
}

// validatePayment returns the message for the first rule payment breaks, or "".
func validatePayment(v *validator.Validate, payment PaymentInfo, termsAccepted bool, now time.Time) string {
	if err := v.Struct(payment); err != nil {
		return MsgRequiredFields
	}
	if !termsAccepted {
		return MsgAcceptTerms
	}
	if !validCardNumber(payment.CardNumber) {
		return MsgInvalidCard
	}

	month, year, ok := parseExpiry(payment.ExpiryMonth, payment.ExpiryYear)
	if !ok {
		return MsgInvalidExpiry
	}
	if expired(month, year, now) {
		return MsgCardExpired
	}

	if !isDigits(payment.CVV) || len(payment.CVV) < 3 || len(payment.CVV) > 4 {
		return MsgInvalidCVV
	}
	return ""
}
