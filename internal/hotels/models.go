package hotels

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"travelenda/internal/liteapi"
	"travelenda/internal/pricing"
	"travelenda/internal/search"
)

// PageSize is the fixed number of hotels per result page.
const PageSize = 20

// SortOrder is a server-side result ordering.
type SortOrder string

const (
	SortRecommended SortOrder = ""
	SortRating      SortOrder = "rating"
	SortPriceAsc    SortOrder = "price_asc"
	SortPriceDesc   SortOrder = "price_desc"
)

// IsValid checks if the sort order is known
func (s SortOrder) IsValid() bool {
	switch s {
	case SortRecommended, SortRating, SortPriceAsc, SortPriceDesc:
		return true
	}
	return false
}

var (
	ErrHotelNotFound = errors.New("hotel not found")
	ErrInvalidFilter = errors.New("invalid filter")
)

// Options are the filters, sort and page applied to a search.
type Options struct {
	StarRatings []int     `json:"star_ratings,omitempty"`
	Amenities   []string  `json:"amenities,omitempty"`
	Sort        SortOrder `json:"sort,omitempty"`
	Page        int       `json:"page"`
}

// ParseOptions reads stars=4,5&amenities=wifi,pool&sort=rating&page=2.
func ParseOptions(values url.Values) (Options, error) {
	opts := Options{Page: 1, Sort: SortOrder(strings.TrimSpace(values.Get("sort")))}

	if !opts.Sort.IsValid() {
		return Options{}, fmt.Errorf("%w: unknown sort %q", ErrInvalidFilter, opts.Sort)
	}

	for _, raw := range splitList(values.Get("stars")) {
		star, err := strconv.Atoi(raw)
		if err != nil || star < 0 || star > 5 {
			return Options{}, fmt.Errorf("%w: star rating %q", ErrInvalidFilter, raw)
		}
		opts.StarRatings = append(opts.StarRatings, star)
	}

	for _, amenity := range splitList(values.Get("amenities")) {
		opts.Amenities = append(opts.Amenities, strings.ToLower(amenity))
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Options{}, fmt.Errorf("%w: page %q", ErrInvalidFilter, raw)
		}
		opts.Page = page
	}

	return opts, nil
}

func (o Options) cacheSuffix() string {
	stars := make([]string, 0, len(o.StarRatings))
	for _, s := range o.StarRatings {
		stars = append(stars, strconv.Itoa(s))
	}
	return fmt.Sprintf("stars=%s&amenities=%s&sort=%s&page=%d",
		strings.Join(stars, ","), strings.Join(o.Amenities, ","), o.Sort, o.Page)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// PricedRate is a room rate with our price breakdown attached.
type PricedRate struct {
	liteapi.RoomRate
	Quote pricing.Quote `json:"quote"`
}

// Details is everything the hotel page renders.
type Details struct {
	Hotel  *liteapi.Hotel `json:"hotel"`
	Query  search.Query   `json:"query"`
	Nights int            `json:"nights"`
	Rates  []PricedRate   `json:"rates"`
}
