package tts

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

var (
	ErrNoAPIKey            = errors.New("tts: API key required")
	ErrNoVoiceID           = errors.New("tts: voice ID required")
	ErrEmptyText           = errors.New("tts: empty text")
	ErrProviderUnavailable = errors.New("tts: no providers available")
)

// maxRetryAfter caps a server's Retry-After; a stale advisory is worthless.
const maxRetryAfter = 2 * time.Second

// APIError is a non-2xx response from a TTS backend.
type APIError struct {
	Provider   string
	StatusCode int
	Code       string // backend error code, if any
	Message    string

	// RetryAfter is the server's requested back-off, capped at maxRetryAfter.
	RetryAfter time.Duration
}

// newAPIError builds an APIError from resp's status and headers.
// An empty message falls back to the status text.
func newAPIError(provider string, resp *http.Response, code, message string) *APIError {
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	e := &APIError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Code:       code,
		Message:    message,
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		e.RetryAfter = min(time.Duration(secs)*time.Second, maxRetryAfter)
	}
	return e
}

func (e *APIError) Error() string {
	status := strconv.Itoa(e.StatusCode)
	if e.Code != "" {
		status += " " + e.Code
	}
	return fmt.Sprintf("tts %s: %s: %s", e.Provider, status, e.Message)
}

// IsUnauthorized reports a rejected API key.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsRetryable reports rate limiting and server-side failures.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ProviderError tags a transport or encoding failure with its backend.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("tts %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// WrapError tags err with provider, passing nil through.
func WrapError(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &ProviderError{Provider: provider, Err: err}
}
