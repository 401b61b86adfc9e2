package core

import (
	"errors"
	"fmt"
)

// Sentinel errors let callers classify failures with errors.Is.
var (
	ErrNotFound = errors.New("not found")

	ErrInvalidLineItem = errors.New("invalid line item")
	ErrInvalidClient   = errors.New("invalid client")
	ErrInvalidTaxRate  = errors.New("invalid tax rate")
	ErrNonFinite       = errors.New("numeric value must be finite")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidSettings = errors.New("invalid settings")

	ErrInvalidState            = errors.New("invalid estimate state")
	ErrInvalidStatusTransition = errors.New("invalid estimate status transition")
	ErrEstimateConverted       = errors.New("estimate is converted and can no longer change")
	ErrAlreadyConverted        = errors.New("estimate is already converted")
)

// ValidationError wraps a sentinel validation error with the offending field and details.
type ValidationError struct {
	Err     error
	Field   string
	Details string
}

func (e *ValidationError) Error() string {
	msg := e.Err.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Details != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Details)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError reports a lookup by id that matched nothing.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is makes errors.Is(err, ErrNotFound) true for every NotFoundError.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
