package search

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
	"time"

	"travelenda/internal/liteapi"
)

// DateLayout is the calendar date format of every stay date.
const DateLayout = liteapi.DateLayout

// Date is a calendar day encoded as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate truncates t to its UTC calendar day.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Query is a validated hotel search.
type Query struct {
	Destination string `json:"destination"`
	Checkin     Date   `json:"checkin"`
	Checkout    Date   `json:"checkout"`
	Adults      int    `json:"adults"`
	Children    int    `json:"children"`
	Rooms       int    `json:"rooms"`
	Currency    string `json:"currency"`
}

// Values returns the canonical URL parameters of the query.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("destination", q.Destination)
	v.Set("checkin", q.Checkin.String())
	v.Set("checkout", q.Checkout.String())
	v.Set("adults", strconv.Itoa(q.Adults))
	v.Set("children", strconv.Itoa(q.Children))
	v.Set("rooms", strconv.Itoa(q.Rooms))
	v.Set("currency", q.Currency)
	return v
}

// Encode returns the canonical query string. Keys are sorted so equal queries encode equally.
func (q Query) Encode() string {
	return q.Values().Encode()
}

// Occupancy converts the query to the provider's stay parameters.
func (q Query) Occupancy() liteapi.Occupancy {
	return liteapi.Occupancy{
		Checkin:  q.Checkin.String(),
		Checkout: q.Checkout.String(),
		Adults:   q.Adults,
		Children: q.Children,
		Rooms:    q.Rooms,
		Currency: q.Currency,
	}
}
