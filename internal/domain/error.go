package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Common domain errors
	ErrNotFound         = errors.New("entity not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrJobClaimed       = errors.New("job already claimed by another sweep")
	ErrStoreUnavailable = errors.New("document store not configured")
	ErrStatusRegression = errors.New("job status cannot move backwards")
)

// ConfigError reports missing or malformed credential configuration.
// It is fatal for the operation that hit it and is never retried.
type ConfigError struct {
	Reason  string
	Missing []string
}

func (e *ConfigError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("credential config: %s (missing: %s)", e.Reason, strings.Join(e.Missing, ", "))
	}
	return "credential config: " + e.Reason
}

// CredentialFormatError means the credential was present but its private
// key could not be parsed (bad PEM markers, wrong key type).
type CredentialFormatError struct {
	Reason string
}

func (e *CredentialFormatError) Error() string {
	return "credential format: " + e.Reason
}

// TokenExchangeError carries the provider's description of a failed
// JWT-bearer exchange.
type TokenExchangeError struct {
	StatusCode  int
	Description string
}

func (e *TokenExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed (http %d): %s", e.StatusCode, e.Description)
}

// StoreError is any non-2xx answer from the document store. Body is
// truncated to at most 500 characters before it gets here.
type StoreError struct {
	StatusCode int
	Body       string
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("document store http %d: %s", e.StatusCode, e.Body)
}
