package liteapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"travelenda/pkg/logger"

	"github.com/cenkalti/backoff/v4"
)

const maxResponseBytes = 10 << 20

// Client is the single contract for the hotel inventory provider.
type Client interface {
	SearchHotels(ctx context.Context, req SearchRequest) (*SearchResult, error)
	GetHotel(ctx context.Context, hotelID string) (*Hotel, error)
	GetRoomRates(ctx context.Context, req RatesRequest) ([]RoomRate, error)
	CreateBooking(ctx context.Context, req BookingRequest, idempotencyKey string) (*BookingConfirmation, error)
	GetBooking(ctx context.Context, bookingID string) (*BookingConfirmation, error)
	CancelBooking(ctx context.Context, bookingID string) (*BookingConfirmation, error)
	SearchDestinations(ctx context.Context, query string, limit int) ([]Destination, error)
}

// Config holds connection settings for the provider.
type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

type client struct {
	baseURL    string
	apiKey     string
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient creates a provider client. httpClient may be nil.
func NewClient(cfg Config, httpClient *http.Client, log *logger.Logger) Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if log == nil {
		log = logger.GetDefault()
	}

	return &client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		httpClient: httpClient,
		log:        log,
	}
}

func (c *client) SearchHotels(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	q := occupancyValues(req.Occupancy)
	q.Set("destination", req.Destination)
	if len(req.StarRatings) > 0 {
		stars := make([]string, 0, len(req.StarRatings))
		for _, s := range req.StarRatings {
			stars = append(stars, strconv.Itoa(s))
		}
		q.Set("starRating", strings.Join(stars, ","))
	}
	if len(req.Amenities) > 0 {
		q.Set("amenities", strings.Join(req.Amenities, ","))
	}
	if req.Sort != "" {
		q.Set("sort", req.Sort)
	}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("limit", strconv.Itoa(req.PageSize))

	var page struct {
		Hotels []HotelSummary `json:"hotels"`
		Total  int            `json:"total"`
	}
	if err := c.do(ctx, "search_hotels", http.MethodGet, "/hotels/search", q, nil, "", &page); err != nil {
		return nil, err
	}

	if page.Hotels == nil {
		page.Hotels = []HotelSummary{}
	}
	return &SearchResult{
		Hotels:   page.Hotels,
		Total:    page.Total,
		Page:     req.Page,
		PageSize: req.PageSize,
		HasMore:  req.Page*req.PageSize < page.Total,
	}, nil
}

func (c *client) GetHotel(ctx context.Context, hotelID string) (*Hotel, error) {
	var hotel Hotel
	if err := c.do(ctx, "get_hotel", http.MethodGet, "/hotels/"+url.PathEscape(hotelID), nil, nil, "", &hotel); err != nil {
		return nil, err
	}
	return &hotel, nil
}

func (c *client) GetRoomRates(ctx context.Context, req RatesRequest) ([]RoomRate, error) {
	var rates []RoomRate
	path := "/hotels/" + url.PathEscape(req.HotelID) + "/rates"
	if err := c.do(ctx, "get_room_rates", http.MethodGet, path, occupancyValues(req.Occupancy), nil, "", &rates); err != nil {
		return nil, err
	}
	return rates, nil
}

func (c *client) CreateBooking(ctx context.Context, req BookingRequest, idempotencyKey string) (*BookingConfirmation, error) {
	if idempotencyKey == "" {
		return nil, errors.New("liteapi create_booking: idempotency key is required")
	}

	var confirmation BookingConfirmation
	if err := c.do(ctx, "create_booking", http.MethodPost, "/bookings", nil, req, idempotencyKey, &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

func (c *client) GetBooking(ctx context.Context, bookingID string) (*BookingConfirmation, error) {
	var confirmation BookingConfirmation
	if err := c.do(ctx, "get_booking", http.MethodGet, "/bookings/"+url.PathEscape(bookingID), nil, nil, "", &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

func (c *client) CancelBooking(ctx context.Context, bookingID string) (*BookingConfirmation, error) {
	var confirmation BookingConfirmation
	path := "/bookings/" + url.PathEscape(bookingID) + "/cancel"
	if err := c.do(ctx, "cancel_booking", http.MethodPut, path, nil, nil, "", &confirmation); err != nil {
		return nil, err
	}
	return &confirmation, nil
}

func (c *client) SearchDestinations(ctx context.Context, query string, limit int) ([]Destination, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var destinations []Destination
	if err := c.do(ctx, "search_destinations", http.MethodGet, "/destinations", q, nil, "", &destinations); err != nil {
		return nil, err
	}
	return destinations, nil
}

func occupancyValues(o Occupancy) url.Values {
	q := url.Values{}
	q.Set("checkin", o.Checkin)
	q.Set("checkout", o.Checkout)
	q.Set("adults", strconv.Itoa(o.Adults))
	q.Set("children", strconv.Itoa(o.Children))
	q.Set("rooms", strconv.Itoa(o.Rooms))
	if o.Currency != "" {
		q.Set("currency", o.Currency)
	}
	return q
}

// do runs one logical call, retrying transient failures with exponential backoff.
func (c *client) do(ctx context.Context, op, method, path string, query url.Values, body interface{}, idempotencyKey string, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("liteapi %s: marshal request: %w", op, err)
		}
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.backoff
	policy.RandomizationFactor = 0
	policy.Multiplier = 2
	policy.MaxElapsedTime = 0

	attempt := 0
	var lastErr error
	err := backoff.Retry(func() error {
		attempt++
		start := time.Now()
		status, err := c.doOnce(ctx, op, method, path, query, payload, idempotencyKey, out)
		c.log.LogInventoryCall(ctx, op, status, attempt, time.Since(start), err)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		lastErr = err
		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, uint64(c.maxRetries)), ctx))

	// A deadline hit between attempts reports the provider failure, not the context.
	if err != nil && lastErr != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return lastErr
	}
	return err
}

func (c *client) doOnce(ctx context.Context, op, method, path string, query url.Values, payload []byte, idempotencyKey string, out interface{}) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("liteapi %s: %w", op, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(callCtx, method, endpoint, reader)
	if err != nil {
		return 0, fmt.Errorf("liteapi %s: build request: %w", op, err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// The caller gave up; that is not ours to retry.
		if ctx.Err() != nil {
			return 0, fmt.Errorf("liteapi %s: %w", op, ctx.Err())
		}
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() != nil {
			return 0, &APIError{Op: op, Code: CodeTimeout, Message: fmt.Sprintf("no response within %s", c.timeout)}
		}
		return 0, &APIError{Op: op, Code: CodeNetwork, Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if callCtx.Err() != nil && ctx.Err() == nil {
			return resp.StatusCode, &APIError{Op: op, StatusCode: resp.StatusCode, Code: CodeTimeout, Message: "response body timed out"}
		}
		return resp.StatusCode, &APIError{Op: op, StatusCode: resp.StatusCode, Code: CodeNetwork, Message: err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, decodeError(op, resp.StatusCode, raw)
	}

	if out == nil {
		return resp.StatusCode, nil
	}

	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || len(envelope.Data) == 0 {
		return resp.StatusCode, &APIError{Op: op, StatusCode: resp.StatusCode, Code: CodeMalformedResponse, Message: "response has no data field"}
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return resp.StatusCode, &APIError{Op: op, StatusCode: resp.StatusCode, Code: CodeMalformedResponse, Message: err.Error()}
	}

	return resp.StatusCode, nil
}

func decodeError(op string, status int, raw []byte) *APIError {
	apiErr := &APIError{Op: op, StatusCode: status, Code: strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))}

	var envelope struct {
		Error struct {
			Code    interface{} `json:"code"`
			Message string      `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error.Message != "" {
		apiErr.Message = envelope.Error.Message
		if envelope.Error.Code != nil {
			apiErr.Code = fmt.Sprint(envelope.Error.Code)
		}
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(raw))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
