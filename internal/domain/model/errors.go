package model

import (
	"errors"
	"fmt"
)

// Sentinel kinds shared by every layer.
var (
	ErrNotFound         = errors.New("not found")
	ErrInsufficientData = errors.New("insufficient data")
	ErrInvalidInput     = errors.New("invalid input")
)

// Invalid wraps ErrInvalidInput with a reason.
func Invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, reason)
}

// ParkNotFound wraps ErrNotFound for a park id.
func ParkNotFound(id int64) error {
	return fmt.Errorf("park %d: %w", id, ErrNotFound)
}
