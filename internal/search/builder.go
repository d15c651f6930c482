package search

import (
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	DefaultAdults   = 2
	DefaultChildren = 0
	DefaultRooms    = 1
	maxAdvance      = 1 // years
)

// Form is the raw search input as typed by the user.
type Form struct {
	Destination string `json:"destination" form:"destination" validate:"required"`
	Checkin     string `json:"checkin" form:"checkin"`
	Checkout    string `json:"checkout" form:"checkout"`
	Adults      *int   `json:"adults" form:"adults" validate:"omitnil,min=1"`
	Children    *int   `json:"children" form:"children" validate:"omitnil,min=0"`
	Rooms       *int   `json:"rooms" form:"rooms" validate:"omitnil,min=1"`
	Currency    string `json:"currency" form:"currency" validate:"omitempty,len=3,alpha"`
}

var fieldMessages = map[string]string{
	"destination": "Please enter a destination",
	"adults":      "At least one adult is required",
	"children":    "Number of children cannot be negative",
	"rooms":       "At least one room is required",
	"currency":    "Currency must be a 3-letter code",
}

// Builder turns search forms into validated queries.
type Builder struct {
	validate        *validator.Validate
	defaultCurrency string
	now             func() time.Time
}

// NewBuilder creates a builder. now may be nil.
func NewBuilder(defaultCurrency string, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})

	return &Builder{
		validate:        v,
		defaultCurrency: defaultCurrency,
		now:             now,
	}
}

// Build validates form and returns the query. On failure the error is an *InputError.
func (b *Builder) Build(form Form) (Query, error) {
	form.Destination = strings.TrimSpace(form.Destination)
	form.Currency = strings.ToUpper(strings.TrimSpace(form.Currency))

	inputErr := newInputError()

	if err := b.validate.Struct(form); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				inputErr.addError(fe.Field(), fieldMessages[fe.Field()])
			}
		} else {
			return Query{}, err
		}
	}

	query := Query{
		Destination: form.Destination,
		Adults:      intOr(form.Adults, DefaultAdults),
		Children:    intOr(form.Children, DefaultChildren),
		Rooms:       intOr(form.Rooms, DefaultRooms),
		Currency:    form.Currency,
	}
	if query.Currency == "" {
		query.Currency = b.defaultCurrency
	}

	today := NewDate(b.now())

	checkin, err := ParseDate(form.Checkin)
	switch {
	case strings.TrimSpace(form.Checkin) == "":
		inputErr.addError("checkin", "Please select a check-in date")
	case err != nil:
		inputErr.addError("checkin", "Check-in date must be a valid date")
	case checkin.Before(today.Time):
		inputErr.addError("checkin", "Check-in date cannot be in the past")
	case checkin.After(today.AddDate(maxAdvance, 0, 0)):
		inputErr.addError("checkin", "Check-in date must be within one year")
	}

	checkout, err := ParseDate(form.Checkout)
	switch {
	case strings.TrimSpace(form.Checkout) == "":
		inputErr.addError("checkout", "Please select a check-out date")
	case err != nil:
		inputErr.addError("checkout", "Check-out date must be a valid date")
	case !inputErr.has("checkin") && !checkout.After(checkin.Time):
		inputErr.addError("checkout", "Check-out date must be after check-in date")
	}

	if inputErr.fieldsCount() > 0 {
		return Query{}, inputErr
	}

	query.Checkin = checkin
	query.Checkout = checkout
	return query, nil
}

// ParseValues reads a canonical query string back into a validated query.
func (b *Builder) ParseValues(values url.Values) (Query, error) {
	form := Form{
		Destination: values.Get("destination"),
		Checkin:     values.Get("checkin"),
		Checkout:    values.Get("checkout"),
		Currency:    values.Get("currency"),
	}

	inputErr := newInputError()
	form.Adults = parseIntParam(values, "adults", inputErr)
	form.Children = parseIntParam(values, "children", inputErr)
	form.Rooms = parseIntParam(values, "rooms", inputErr)
	if inputErr.fieldsCount() > 0 {
		return Query{}, inputErr
	}

	return b.Build(form)
}

func parseIntParam(values url.Values, key string, inputErr *InputError) *int {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		inputErr.addError(key, fieldMessages[key])
		return nil
	}
	return &n
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}
