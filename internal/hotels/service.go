package hotels

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"travelenda/internal/liteapi"
	"travelenda/internal/pricing"
	"travelenda/internal/search"
	"travelenda/internal/shared/constants"
	"travelenda/pkg/cache"
	"travelenda/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// Service interface defines the contract for hotel browsing
type Service interface {
	Search(ctx context.Context, query search.Query, opts Options) (*liteapi.SearchResult, error)
	Details(ctx context.Context, hotelID string, query search.Query) (*Details, error)
	Hotel(ctx context.Context, hotelID string) (*liteapi.Hotel, error)
	// Rate returns one priced rate for the stay, verified against the provider total
	Rate(ctx context.Context, hotelID, roomID string, query search.Query) (*PricedRate, error)
}

type service struct {
	inventory liteapi.Client
	cache     cache.Service
	rules     pricing.Rules
	log       *logger.Logger
}

// NewService creates a new hotel service. cacheService may be nil.
func NewService(inventory liteapi.Client, cacheService cache.Service, rules pricing.Rules, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		inventory: inventory,
		cache:     cacheService,
		rules:     rules,
		log:       log,
	}
}

func (s *service) Search(ctx context.Context, query search.Query, opts Options) (*liteapi.SearchResult, error) {
	if opts.Page < 1 {
		opts.Page = 1
	}

	req := liteapi.SearchRequest{
		Occupancy:   query.Occupancy(),
		Destination: query.Destination,
		StarRatings: opts.StarRatings,
		Amenities:   opts.Amenities,
		Sort:        string(opts.Sort),
		Page:        opts.Page,
		PageSize:    PageSize,
	}

	var result liteapi.SearchResult
	key := constants.BuildHotelSearchKey(query.Encode() + "&" + opts.cacheSuffix())
	err := s.cached(ctx, key, constants.TTL_HOTELS_SEARCH, func() (interface{}, error) {
		return s.inventory.SearchHotels(ctx, req)
	}, &result)
	if err != nil {
		return nil, fmt.Errorf("search hotels: %w", err)
	}

	return &result, nil
}

func (s *service) Details(ctx context.Context, hotelID string, query search.Query) (*Details, error) {
	var (
		hotel liteapi.Hotel
		rates []liteapi.RoomRate
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.fetchHotel(gctx, hotelID, &hotel)
	})
	g.Go(func() error {
		var err error
		rates, err = s.fetchRates(gctx, hotelID, query)
		return err
	})

	if err := g.Wait(); err != nil {
		if liteapi.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrHotelNotFound, hotelID)
		}
		return nil, fmt.Errorf("hotel details: %w", err)
	}

	nights := pricing.Nights(query.Checkin.Time, query.Checkout.Time)
	return &Details{
		Hotel:  &hotel,
		Query:  query,
		Nights: nights,
		Rates:  s.priceRates(ctx, hotelID, rates, nights, query.Rooms),
	}, nil
}

func (s *service) Hotel(ctx context.Context, hotelID string) (*liteapi.Hotel, error) {
	var hotel liteapi.Hotel
	if err := s.fetchHotel(ctx, hotelID, &hotel); err != nil {
		if liteapi.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrHotelNotFound, hotelID)
		}
		return nil, fmt.Errorf("hotel: %w", err)
	}
	return &hotel, nil
}

func (s *service) fetchHotel(ctx context.Context, hotelID string, hotel *liteapi.Hotel) error {
	return s.cached(ctx, constants.BuildHotelDetailKey(hotelID), constants.TTL_HOTEL_DETAIL, func() (interface{}, error) {
		return s.inventory.GetHotel(ctx, hotelID)
	}, hotel)
}

func (s *service) Rate(ctx context.Context, hotelID, roomID string, query search.Query) (*PricedRate, error) {
	rates, err := s.inventory.GetRoomRates(ctx, liteapi.RatesRequest{Occupancy: query.Occupancy(), HotelID: hotelID})
	if err != nil {
		if liteapi.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrHotelNotFound, hotelID)
		}
		return nil, fmt.Errorf("room rates: %w", err)
	}

	nights := pricing.Nights(query.Checkin.Time, query.Checkout.Time)
	for _, rate := range s.priceRates(ctx, hotelID, rates, nights, query.Rooms) {
		if rate.RoomID == roomID {
			return &rate, nil
		}
	}
	return nil, fmt.Errorf("%w: room %s is no longer available", ErrHotelNotFound, roomID)
}

func (s *service) fetchRates(ctx context.Context, hotelID string, query search.Query) ([]liteapi.RoomRate, error) {
	var rates []liteapi.RoomRate
	key := constants.BuildHotelRatesKey(hotelID, query.Checkin.String(), query.Checkout.String(),
		query.Adults, query.Children, query.Rooms, query.Currency)

	err := s.cached(ctx, key, constants.TTL_HOTEL_RATES, func() (interface{}, error) {
		return s.inventory.GetRoomRates(ctx, liteapi.RatesRequest{Occupancy: query.Occupancy(), HotelID: hotelID})
	}, &rates)
	return rates, err
}

// priceRates drops rates whose provider total does not add up and prices the rest.
func (s *service) priceRates(ctx context.Context, hotelID string, rates []liteapi.RoomRate, nights, rooms int) []PricedRate {
	priced := make([]PricedRate, 0, len(rates))
	for _, rate := range rates {
		if !pricing.RateTotalConsistent(rate.NightlyRate, rate.Taxes, rate.Fees, rate.TotalPrice, nights) {
			s.log.WarnContext(ctx, "Dropping inconsistent room rate",
				slog.String("hotel_id", hotelID),
				slog.String("room_id", rate.RoomID),
				slog.Float64("nightly_rate", rate.NightlyRate),
				slog.Float64("total_price", rate.TotalPrice),
				slog.Int("nights", nights),
			)
			continue
		}
		priced = append(priced, PricedRate{
			RoomRate: rate,
			Quote:    pricing.PriceIn(rate.NightlyRate, nights, rooms, s.rules, rate.Currency),
		})
	}
	return priced
}

func (s *service) cached(ctx context.Context, key string, ttl time.Duration, fetch func() (interface{}, error), dest interface{}) error {
	if s.cache == nil {
		data, err := fetch()
		if err != nil {
			return err
		}
		return assign(data, dest)
	}
	return s.cache.GetOrSet(ctx, key, ttl, fetch, dest)
}

func assign(data interface{}, dest interface{}) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
