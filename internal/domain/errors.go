package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrValidation       = errors.New("validation failed")
	ErrDelivery         = errors.New("delivery failed")
	ErrInvalidOrExpired = errors.New("invalid or expired OTP")
	ErrConfiguration    = errors.New("configuration missing")
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
)

// BackendError is a failed call to the accounting backend. Status mirrors the
// upstream HTTP status; Message is always a structured, human-readable string.
type BackendError struct {
	Status  int
	Message string
	Details any
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend responded %d: %s", e.Status, e.Message)
}
