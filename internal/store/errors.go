package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when a write violates a unique constraint,
	// translated from the database's integrity error.
	ErrConflict = errors.New("integrity conflict")

	// ErrInvalidEntity is returned when a write references a missing
	// parent row (foreign key violation) or fails domain validation.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrNotSupported is returned by operations an entity deliberately
	// does not offer, such as deleting users.
	ErrNotSupported = errors.New("operation not supported")

	// Entity-specific "not found" errors

	ErrUserNotFound     = fmt.Errorf("%w: user", ErrNotFound)
	ErrProjectNotFound  = fmt.Errorf("%w: project", ErrNotFound)
	ErrCategoryNotFound = fmt.Errorf("%w: category", ErrNotFound)
	ErrTaskNotFound     = fmt.Errorf("%w: task", ErrNotFound)
	ErrTaskRunNotFound  = fmt.Errorf("%w: task run", ErrNotFound)
)

// IsNotFound reports whether err is any kind of "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
