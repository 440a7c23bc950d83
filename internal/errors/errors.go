// Package errors provides custom error types for forecasting errors.
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrSymbolNotFound      = errors.New("symbol not found")
	ErrRateLimited         = errors.New("rate limited")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConfigInvalid       = errors.New("invalid configuration")
	ErrTimeout             = errors.New("operation timed out")
	ErrNoData              = errors.New("no data returned")
)

// ProviderError represents a failure of an upstream data provider.
type ProviderError struct {
	Provider  string
	Operation string
	Symbol    string
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("provider error [%s] %s %s: %v", e.Provider, e.Operation, e.Symbol, e.Err)
	}
	return fmt.Sprintf("provider error [%s] %s: %v", e.Provider, e.Operation, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider, operation, symbol string, err error) *ProviderError {
	return &ProviderError{
		Provider:  provider,
		Operation: operation,
		Symbol:    symbol,
		Err:       err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

// Unwrap lets callers match validation failures against ErrInvalidInput.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// StatusError is an unexpected HTTP status from an upstream.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Status, e.URL)
}

// Unwrap maps well-known statuses onto sentinels.
func (e *StatusError) Unwrap() error {
	switch {
	case e.Status == 404:
		return ErrSymbolNotFound
	case e.Status == 429:
		return ErrRateLimited
	case e.Status >= 500:
		return ErrUpstreamUnavailable
	default:
		return nil
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Retryable reports whether err is worth retrying against an upstream.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrSymbolNotFound) || errors.Is(err, ErrInvalidInput) {
		return false
	}
	// The caller gave up; the upstream is not at fault.
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var status *StatusError
	if errors.As(err, &status) && status.Status >= 400 && status.Status < 500 && status.Status != 429 {
		return false
	}
	return true
}
