package dblp

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors returned by the DBLP client.
var (
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = errors.New("not found in DBLP")

	// ErrRateLimited indicates DBLP rejected the request for exceeding its rate limit.
	ErrRateLimited = errors.New("DBLP rate limit exceeded")

	// ErrAPIError indicates a general API error.
	ErrAPIError = errors.New("DBLP API error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with DBLP")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from DBLP")
)

// APIError represents a failed DBLP request that received an HTTP response.
type APIError struct {
	StatusCode int
	Message    string
	Key        string // Record key, for record requests
	Err        error  // Sentinel classifying the failure
}

func (e *APIError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("DBLP API error (status %d): %s (record: %s)", e.StatusCode, e.Message, e.Key)
	}
	return fmt.Sprintf("DBLP API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus returns the status code of the response that caused the error.
func (e *APIError) HTTPStatus() int {
	return e.StatusCode
}

// StatusCode returns the HTTP status carried by err, or 0 if the request
// never received a response.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound returns true if the error indicates a resource was not found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	return StatusCode(err) == http.StatusNotFound
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	return StatusCode(err) == http.StatusTooManyRequests
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response, key string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Key:        key,
		Err:        ErrAPIError,
	}
	switch resp.StatusCode {
	case http.StatusNotFound:
		apiErr.Err = ErrNotFound
	case http.StatusTooManyRequests:
		apiErr.Err = ErrRateLimited
	}
	if apiErr.Message == "" {
		apiErr.Message = fmt.Sprintf("HTTP %d", resp.StatusCode)
	}
	return apiErr
}
