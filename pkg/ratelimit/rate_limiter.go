package ratelimit

import (
	"context"
	"fmt"
	"net"
	"time"

	"travelenda/internal/shared/config"
	"travelenda/internal/shared/constants"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RateLimitType string

const (
	RateLimitTypeDefault          RateLimitType = "default"
	RateLimitTypeSearch           RateLimitType = "search"
	RateLimitTypeAutocomplete     RateLimitType = "autocomplete"
	RateLimitTypeAuth             RateLimitType = "auth"
	RateLimitTypeBooking          RateLimitType = "booking"
	RateLimitTypeCheckoutCritical RateLimitType = "checkout_critical"
	RateLimitTypeUser             RateLimitType = "user"
	RateLimitTypeHealth           RateLimitType = "health"
)

// Config is the rate limit section of the application configuration
type Config = config.RateLimitConfig

// Result represents rate limit check result
type Result struct {
	Allowed   bool  `json:"allowed"`
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetTime int64 `json:"reset_time"`
}

// Sliding window over a sorted set scored in milliseconds. Members are unique per request.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local window_start = ARGV[1]
local now = ARGV[2]
local limit = tonumber(ARGV[3])
local window_ms = ARGV[4]
local member = ARGV[5]

redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)

local current_count = redis.call('ZCARD', key)
if current_count >= limit then
	redis.call('PEXPIRE', key, window_ms)
	return {0, 0}
end

redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window_ms)

return {1, limit - current_count - 1}
`)

// RateLimiter handles rate limiting using Redis
type RateLimiter struct {
	client    *redis.Client
	config    Config
	whitelist map[string]struct{}
	networks  []*net.IPNet
	now       func() time.Time
}

func NewRateLimiter(client *redis.Client, config Config) *RateLimiter {
	r := &RateLimiter{
		client:    client,
		config:    config,
		whitelist: make(map[string]struct{}),
		now:       time.Now,
	}
	for _, entry := range config.WhitelistedIPs {
		if _, network, err := net.ParseCIDR(entry); err == nil {
			r.networks = append(r.networks, network)
			continue
		}
		r.whitelist[entry] = struct{}{}
	}
	return r
}

// IsAllowed checks and records one request of clientIP against the limit of limitType
func (r *RateLimiter) IsAllowed(ctx context.Context, clientIP string, limitType RateLimitType) (*Result, error) {
	limit := r.getLimit(limitType)
	now := r.now()

	if !r.config.Enabled || r.isWhitelisted(clientIP) || limit <= 0 {
		return &Result{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit,
			ResetTime: now.Add(r.config.WindowDuration).Unix(),
		}, nil
	}

	key := fmt.Sprintf("%s:ratelimit:%s:%s", constants.CACHE_PREFIX, limitType, clientIP)
	return r.checkLimit(ctx, key, limit, now)
}

func (r *RateLimiter) checkLimit(ctx context.Context, key string, limit int, now time.Time) (*Result, error) {
	window := r.config.WindowDuration
	windowStart := now.Add(-window)

	values, err := slidingWindowScript.Run(ctx, r.client, []string{key},
		windowStart.UnixMilli(),
		now.UnixMilli(),
		limit,
		window.Milliseconds(),
		uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("redis eval failed: %w", err)
	}
	if len(values) != 2 {
		return nil, fmt.Errorf("unexpected redis response")
	}

	return &Result{
		Allowed:   values[0] == 1,
		Limit:     limit,
		Remaining: int(values[1]),
		ResetTime: now.Add(window).Unix(),
	}, nil
}

func (r *RateLimiter) getLimit(limitType RateLimitType) int {
	switch limitType {
	case RateLimitTypeSearch:
		return r.config.SearchRequests
	case RateLimitTypeAutocomplete:
		return r.config.AutocompleteRequests
	case RateLimitTypeAuth:
		return r.config.AuthRequests
	case RateLimitTypeBooking:
		return r.config.BookingRequests
	case RateLimitTypeCheckoutCritical:
		return r.config.CheckoutCriticalRequests
	case RateLimitTypeUser:
		return r.config.UserRequests
	case RateLimitTypeHealth:
		return r.config.HealthRequests
	default:
		return r.config.DefaultRequests
	}
}

func (r *RateLimiter) isWhitelisted(ip string) bool {
	if _, ok := r.whitelist[ip]; ok {
		return true
	}
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, network := range r.networks {
		if network.Contains(parsed) {
			return true
		}
	}
	return false
}
