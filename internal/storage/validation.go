package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ppiont/spendsense/internal/common"
	"github.com/ppiont/spendsense/internal/model"
)

// Validation errors.
var (
	ErrNilContext     = errors.New("context cannot be nil")
	ErrEmptyString    = errors.New("string parameter cannot be empty")
	ErrInvalidUser    = errors.New("invalid user")
	ErrInvalidWindow  = errors.New("window days must be positive")
	ErrInvalidPersona = errors.New("invalid persona assignment")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

func validateWindow(windowDays int) error {
	if windowDays <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWindow, windowDays)
	}
	return nil
}

// ValidateUser checks an import record before it is written.
func ValidateUser(u model.UserRecord) error {
	if err := validate.Struct(u); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidUser, u.ID, describe(err))
	}

	seen := make(map[int]bool, len(u.Windows))
	for _, w := range u.Windows {
		if seen[w.WindowDays] {
			return fmt.Errorf("%w %q: %w: window %d", ErrInvalidUser, u.ID, common.ErrDuplicateEntry, w.WindowDays)
		}
		seen[w.WindowDays] = true
	}
	return nil
}

func validateAssignment(r model.AssignmentRecord) error {
	if err := validateString(r.RunID, "run_id"); err != nil {
		return err
	}
	if err := validateString(r.UserID, "user_id"); err != nil {
		return err
	}
	if err := validateWindow(r.WindowDays); err != nil {
		return err
	}
	if !r.Persona.Valid() {
		return fmt.Errorf("%w: unknown persona %q", ErrInvalidPersona, r.Persona)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be between 0 and 1", ErrInvalidPersona)
	}
	return nil
}

// describe flattens validator output into one readable error.
func describe(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
