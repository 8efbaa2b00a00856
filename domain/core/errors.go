package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input validation errors
	ErrInvalidInput   = errors.New("invalid input")
	ErrEmptySeries    = fmt.Errorf("%w: empty series", ErrInvalidInput)
	ErrNonFiniteValue = fmt.Errorf("%w: non-finite value", ErrInvalidInput)
	ErrNoExceedances  = fmt.Errorf("%w: no values above threshold", ErrInvalidInput)

	// Configuration errors
	ErrUnsupported    = errors.New("unsupported configuration")
	ErrNotImplemented = errors.New("not implemented")

	// Numerical errors
	ErrFitFailed      = errors.New("distribution fit failed")
	ErrNonconvergence = errors.New("resampling did not converge")
)

// Error constructors with context
func NewInvalidInputError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidInput, field, reason)
}

func NewUnsupportedError(what string) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, what)
}

func NewFitError(family string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrFitFailed, family, cause)
	}
	return fmt.Errorf("%w: %s", ErrFitFailed, family)
}

func NewNonconvergenceError(accepted, wanted, attempts int) error {
	return fmt.Errorf("%w: accepted %d of %d simulations after %d attempts",
		ErrNonconvergence, accepted, wanted, attempts)
}

// Error checking helpers
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

func IsFitFailed(err error) bool {
	return errors.Is(err, ErrFitFailed)
}

func IsNonconvergence(err error) bool {
	return errors.Is(err, ErrNonconvergence)
}
