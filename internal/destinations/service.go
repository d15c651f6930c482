package destinations

import (
	"context"
	"log/slog"
	"strings"

	"travelenda/internal/liteapi"
	"travelenda/internal/shared/constants"
	"travelenda/pkg/cache"
	"travelenda/pkg/logger"
)

const (
	DefaultLimit = 8
	MaxLimit     = 20
)

// Service interface defines the contract for destination suggestions
type Service interface {
	// Suggest never fails: short queries and provider errors yield an empty list
	Suggest(ctx context.Context, query string, limit int) []liteapi.Destination
}

type service struct {
	inventory liteapi.Client
	cache     cache.Service
	log       *logger.Logger
}

// NewService creates a suggestion service. cacheService may be nil.
func NewService(inventory liteapi.Client, cacheService cache.Service, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{inventory: inventory, cache: cacheService, log: log}
}

func (s *service) Suggest(ctx context.Context, query string, limit int) []liteapi.Destination {
	query = strings.ToLower(strings.TrimSpace(query))
	if len([]rune(query)) < MinQueryLength {
		return []liteapi.Destination{}
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	var results []liteapi.Destination
	fetch := func() (interface{}, error) {
		return s.inventory.SearchDestinations(ctx, query, limit)
	}

	var err error
	if s.cache != nil {
		err = s.cache.GetOrSet(ctx, constants.BuildDestinationSuggestKey(query, limit), constants.TTL_DESTINATIONS_SUGGEST, fetch, &results)
	} else {
		results, err = s.inventory.SearchDestinations(ctx, query, limit)
	}
	if err != nil {
		s.log.WarnContext(ctx, "Destination lookup failed",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return []liteapi.Destination{}
	}

	if results == nil {
		return []liteapi.Destination{}
	}
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// ServiceFetcher adapts a Service for an Autocompleter.
func ServiceFetcher(svc Service, limit int) Fetcher {
	return func(ctx context.Context, query string) ([]liteapi.Destination, error) {
		return svc.Suggest(ctx, query, limit), nil
	}
}

// NewFetcher returns a Fetcher that calls the provider directly.
func NewFetcher(inventory liteapi.Client, limit int) Fetcher {
	return func(ctx context.Context, query string) ([]liteapi.Destination, error) {
		return inventory.SearchDestinations(ctx, query, limit)
	}
}
