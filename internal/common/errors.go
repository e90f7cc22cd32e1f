// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Caller errors.
	ErrInvalidInput = errors.New("invalid input")

	// Catalog errors.
	ErrCatalogLoad = errors.New("catalog load failed")

	// Compliance errors.
	ErrGuardrailViolation = errors.New("guardrail violation")

	// Strategy errors.
	ErrProviderUnavailable = errors.New("content provider unavailable")

	// Storage errors.
	ErrUserNotFound    = errors.New("user not found")
	ErrSignalsNotFound = errors.New("behavior signals not found")
	ErrDuplicateEntry  = errors.New("duplicate entry")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// InvalidInput builds an ErrInvalidInput naming the offending parameter.
func InvalidInput(param, reason string) error {
	return fmt.Errorf("%w: %s %s", ErrInvalidInput, param, reason)
}

// CatalogLoadError describes why a catalog source could not be loaded.
type CatalogLoadError struct {
	Err     error
	Source  string
	EntryID string
}

func (e *CatalogLoadError) Error() string {
	if e.EntryID != "" {
		return fmt.Sprintf("%s: %s: entry %q: %v", ErrCatalogLoad, e.Source, e.EntryID, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", ErrCatalogLoad, e.Source, e.Err)
}

func (e *CatalogLoadError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrCatalogLoad) match any CatalogLoadError.
func (e *CatalogLoadError) Is(target error) bool {
	return target == ErrCatalogLoad
}

// GuardrailViolation reports an internal consistency failure in a compliance stage.
func GuardrailViolation(stage, detail string) error {
	return fmt.Errorf("%w: %s: %s", ErrGuardrailViolation, stage, detail)
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrGuardrailViolation) ||
		errors.Is(err, context.Canceled) {
		return false
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	return errors.Is(err, ErrProviderUnavailable) || errors.Is(err, context.DeadlineExceeded)
}
