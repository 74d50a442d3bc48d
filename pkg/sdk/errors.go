package drugqa

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by APIError. Use errors.Is() to check.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrProviderError    = errors.New("model provider error")
	ErrServerError      = errors.New("server error")
	ErrUnavailable      = errors.New("service unavailable")
	ErrInvalidDimension = errors.New("vector dimension mismatch")
)

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("drugqa: http %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("drugqa: http %d %s: %s", e.Status, e.Code, e.Message)
}

// Is maps the HTTP status onto the package sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrInvalidRequest:
		return e.Status == http.StatusBadRequest
	case ErrInvalidDimension:
		return e.Status == http.StatusUnprocessableEntity
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrProviderError:
		return e.Status == http.StatusBadGateway
	case ErrUnavailable:
		return e.Status == http.StatusServiceUnavailable
	case ErrServerError:
		return e.Status >= http.StatusInternalServerError
	}
	return false
}
