package backloggery

import (
	"errors"
	"fmt"
	"net/http"
)

// Common errors
var (
	// ErrNoData indicates the service returned nothing for the requested key
	ErrNoData = errors.New("no data found")
	// ErrTransport indicates the request could not be completed
	ErrTransport = errors.New("transport failure")
	// ErrMalformedPayload indicates a response that is not the expected shape
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid backloggery configuration")
)

// NoDataError reports which username or game id came back empty
type NoDataError struct {
	Key string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("no data found for %q", e.Key)
}

// Is makes errors.Is(err, ErrNoData) hold
func (e *NoDataError) Is(target error) bool {
	return target == ErrNoData
}

// APIError represents a non-2xx response from the service
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("backloggery API error: status %d: %s", e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrTransport) hold
func (e *APIError) Is(target error) bool {
	return target == ErrTransport
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsRateLimited checks if the service asked us to slow down
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
