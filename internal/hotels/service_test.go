package hotels

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"travelenda/internal/liteapi"
	"travelenda/internal/liteapi/mocks"
	"travelenda/internal/pricing"
	"travelenda/internal/search"
	"travelenda/pkg/cache"
	"travelenda/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func fixedNow() time.Time { return time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC) }

func parisQuery(t *testing.T) search.Query {
	t.Helper()
	q, err := search.NewBuilder("USD", fixedNow).Build(search.Form{
		Destination: "Paris",
		Checkin:     "2024-02-15",
		Checkout:    "2024-02-18",
	})
	require.NoError(t, err)
	return q
}

func deluxeRate() liteapi.RoomRate {
	return liteapi.RoomRate{
		RoomID:      "deluxe",
		RoomName:    "Deluxe Double",
		NightlyRate: 150,
		Taxes:       54,
		Fees:        25,
		TotalPrice:  529,
		Currency:    "USD",
	}
}

func TestService_SearchPushesFiltersToProvider(t *testing.T) {
	inventory := new(mocks.MockClient)
	svc := NewService(inventory, nil, pricing.DefaultRules(), logger.Discard())
	query := parisQuery(t)

	expected := &liteapi.SearchResult{Hotels: []liteapi.HotelSummary{{ID: "h1"}}, Total: 1, Page: 2, PageSize: PageSize}
	inventory.On("SearchHotels", mock.Anything, mock.MatchedBy(func(req liteapi.SearchRequest) bool {
		return req.Destination == "Paris" &&
			req.PageSize == PageSize &&
			req.Page == 2 &&
			req.Sort == "price_desc" &&
			assert.ObjectsAreEqual([]int{4, 5}, req.StarRatings) &&
			assert.ObjectsAreEqual([]string{"wifi"}, req.Amenities)
	})).Return(expected, nil)

	result, err := svc.Search(context.Background(), query, Options{
		StarRatings: []int{4, 5},
		Amenities:   []string{"wifi"},
		Sort:        SortPriceDesc,
		Page:        2,
	})

	require.NoError(t, err)
	assert.Equal(t, "h1", result.Hotels[0].ID)
	inventory.AssertExpectations(t)
}

func TestService_SearchIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	inventory := new(mocks.MockClient)
	svc := NewService(inventory, cache.NewService(client), pricing.DefaultRules(), logger.Discard())
	query := parisQuery(t)

	inventory.On("SearchHotels", mock.Anything, mock.Anything).
		Return(&liteapi.SearchResult{Hotels: []liteapi.HotelSummary{{ID: "h1"}}, Total: 1}, nil).Once()

	first, err := svc.Search(context.Background(), query, Options{Page: 1})
	require.NoError(t, err)
	second, err := svc.Search(context.Background(), query, Options{Page: 1})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	inventory.AssertNumberOfCalls(t, "SearchHotels", 1)
}

func TestService_Details(t *testing.T) {
	inventory := new(mocks.MockClient)
	svc := NewService(inventory, nil, pricing.DefaultRules(), logger.Discard())
	query := parisQuery(t)

	broken := deluxeRate()
	broken.RoomID = "broken"
	broken.TotalPrice = 700

	inventory.On("GetHotel", mock.Anything, "h1").
		Return(&liteapi.Hotel{HotelSummary: liteapi.HotelSummary{ID: "h1", Name: "Le Marais"}}, nil)
	inventory.On("GetRoomRates", mock.Anything, mock.MatchedBy(func(req liteapi.RatesRequest) bool {
		return req.HotelID == "h1" && req.Checkin == "2024-02-15" && req.Checkout == "2024-02-18"
	})).Return([]liteapi.RoomRate{deluxeRate(), broken}, nil)

	details, err := svc.Details(context.Background(), "h1", query)

	require.NoError(t, err)
	assert.Equal(t, "Le Marais", details.Hotel.Name)
	assert.Equal(t, 3, details.Nights)
	require.Len(t, details.Rates, 1, "inconsistent rates are dropped")
	assert.Equal(t, "deluxe", details.Rates[0].RoomID)
	assert.Equal(t, 529.00, details.Rates[0].Quote.Total)
	inventory.AssertExpectations(t)
}

func TestService_DetailsNotFound(t *testing.T) {
	inventory := new(mocks.MockClient)
	svc := NewService(inventory, nil, pricing.DefaultRules(), logger.Discard())

	inventory.On("GetHotel", mock.Anything, "missing").
		Return(nil, &liteapi.APIError{Op: "get_hotel", StatusCode: http.StatusNotFound, Code: "not_found"})
	inventory.On("GetRoomRates", mock.Anything, mock.Anything).Return([]liteapi.RoomRate{}, nil).Maybe()

	_, err := svc.Details(context.Background(), "missing", parisQuery(t))

	assert.ErrorIs(t, err, ErrHotelNotFound)
}

func TestService_Rate(t *testing.T) {
	inventory := new(mocks.MockClient)
	svc := NewService(inventory, nil, pricing.DefaultRules(), logger.Discard())

	inventory.On("GetRoomRates", mock.Anything, mock.Anything).Return([]liteapi.RoomRate{deluxeRate()}, nil)

	rate, err := svc.Rate(context.Background(), "h1", "deluxe", parisQuery(t))
	require.NoError(t, err)
	assert.Equal(t, 450.00, rate.Quote.Subtotal)

	_, err = svc.Rate(context.Background(), "h1", "suite", parisQuery(t))
	assert.ErrorIs(t, err, ErrHotelNotFound)
}

func TestService_RateProviderFailure(t *testing.T) {
	inventory := new(mocks.MockClient)
	svc := NewService(inventory, nil, pricing.DefaultRules(), logger.Discard())

	inventory.On("GetRoomRates", mock.Anything, mock.Anything).
		Return(nil, &liteapi.APIError{Op: "get_room_rates", Code: liteapi.CodeTimeout})

	_, err := svc.Rate(context.Background(), "h1", "deluxe", parisQuery(t))
	assert.True(t, liteapi.IsTimeout(err))
	assert.False(t, errors.Is(err, ErrHotelNotFound))
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(url.Values{
		"stars":     {"4, 5"},
		"amenities": {"WiFi,pool"},
		"sort":      {"rating"},
		"page":      {"3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, opts.StarRatings)
	assert.Equal(t, []string{"wifi", "pool"}, opts.Amenities)
	assert.Equal(t, SortRating, opts.Sort)
	assert.Equal(t, 3, opts.Page)

	defaults, err := ParseOptions(url.Values{})
	require.NoError(t, err)
	assert.Equal(t, 1, defaults.Page)

	for _, bad := range []url.Values{
		{"sort": {"cheapest"}},
		{"stars": {"6"}},
		{"page": {"0"}},
	} {
		_, err := ParseOptions(bad)
		assert.ErrorIs(t, err, ErrInvalidFilter)
	}
}

func TestService_HotelIsCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	inventory := new(mocks.MockClient)
	svc := NewService(inventory, cache.NewService(rdb), pricing.DefaultRules(), logger.Discard())

	inventory.On("GetHotel", mock.Anything, "h1").
		Return(&liteapi.Hotel{HotelSummary: liteapi.HotelSummary{ID: "h1", Name: "Le Marais"}}, nil).Once()

	for i := 0; i < 2; i++ {
		hotel, err := svc.Hotel(context.Background(), "h1")
		require.NoError(t, err)
		assert.Equal(t, "Le Marais", hotel.Name)
	}
	inventory.AssertExpectations(t)
}
