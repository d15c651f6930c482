package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrProfileNotFound    = errors.New("profile not found")
)

// ProviderError is a failed call to the auth provider.
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth provider %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("auth provider %s: %d %s", e.Op, e.StatusCode, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Unavailable reports whether the provider could not be reached or failed on its side.
func (e *ProviderError) Unavailable() bool {
	return e.Err != nil || e.StatusCode >= http.StatusInternalServerError
}

// IsUnavailable reports whether err is a provider outage.
func IsUnavailable(err error) bool {
	var providerErr *ProviderError
	return errors.As(err, &providerErr) && providerErr.Unavailable()
}

// errorText pulls the human readable message out of a GoTrue error body.
func errorText(raw []byte) string {
	var body struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return string(raw)
	}
	for _, s := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}
