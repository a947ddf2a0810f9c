package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound           = errors.New("resource not found")
	ErrExperimentNotFound = fmt.Errorf("%w: experiment", ErrNotFound)
	ErrVariantNotFound    = fmt.Errorf("%w: variant", ErrNotFound)
	ErrAlertNotFound      = fmt.Errorf("%w: alert", ErrNotFound)
	ErrRuleNotFound       = fmt.Errorf("%w: alert rule", ErrNotFound)

	// Validation errors
	ErrInvalidWeights    = errors.New("variant weights must sum to 1")
	ErrTooFewVariants    = errors.New("experiment requires at least 2 variants")
	ErrInvalidTransition = errors.New("invalid experiment status transition")
	ErrInsufficientData  = errors.New("insufficient data for analysis")

	// Infrastructure errors
	ErrStorageUnavailable = errors.New("assignment storage unavailable")
	ErrMalformedRecord    = errors.New("malformed assignment record")
	ErrDispatchFailed     = errors.New("alert dispatch failed")
)

// Error constructors with context
func NewNotFoundError(resource string, id string) error {
	return fmt.Errorf("%w: %s with id %s", ErrNotFound, resource, id)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("validation failed for %s: %s", field, reason)
}

func NewTransitionError(from, to string) error {
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidWeights) ||
		errors.Is(err, ErrTooFewVariants) ||
		errors.Is(err, ErrInvalidTransition)
}

func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageUnavailable) ||
		errors.Is(err, ErrMalformedRecord)
}
