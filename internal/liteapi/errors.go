package liteapi

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes produced locally when the provider never answered properly.
const (
	CodeTimeout           = "timeout"
	CodeNetwork           = "network_error"
	CodeMalformedResponse = "malformed_response"
)

// APIError is returned for every failed provider call.
type APIError struct {
	Op         string `json:"-"`
	StatusCode int    `json:"status_code"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("liteapi %s: %d %s: %s", e.Op, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("liteapi %s: %s: %s", e.Op, e.Code, e.Message)
}

// Retryable reports whether repeating the call may succeed.
func (e *APIError) Retryable() bool {
	switch {
	case e.Code == CodeTimeout, e.Code == CodeNetwork:
		return true
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode >= http.StatusInternalServerError:
		return true
	}
	return false
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return false
}

// IsNotFound reports whether the provider answered 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsTimeout reports whether the call ran out of time.
func IsTimeout(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == CodeTimeout
}
