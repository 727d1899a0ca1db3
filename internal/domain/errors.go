package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrSlotTaken         = errors.New("slot already has a confirmed booking")
	ErrSlotLocked        = errors.New("slot is locked by another writer")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrTableInUse        = errors.New("table is referenced by active bookings")
)

// ValidationError reports the first offending field of a rejected input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidation reports whether err is a validation error on field.
func IsValidation(err error, field string) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Field == field
	}
	return false
}
