package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a catalog object does not exist in a connector's view
	ErrNotFound = errors.New("catalog object not found")

	// ErrInvariant is returned when catalog metadata breaks an assumption the generators
	// rely on. It aborts the run.
	ErrInvariant = errors.New("catalog invariant violated")

	// ErrDuplicateOwner is returned when an owner is registered twice
	ErrDuplicateOwner = errors.New("owner already registered")
)

// InvariantError reports which table broke which assumption
type InvariantError struct {
	Table     TableRef
	Invariant string
	Detail    string
}

// Error implements the error interface
func (e *InvariantError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Table, e.Invariant)
	}
	return fmt.Sprintf("%s: %s: %s", e.Table, e.Invariant, e.Detail)
}

// Unwrap allows errors.Is(err, ErrInvariant)
func (e *InvariantError) Unwrap() error {
	return ErrInvariant
}

// NotFound wraps ErrNotFound with the identity of the missing object
func NotFound(kind string, name string) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, name)
}

// IsNotFound reports whether err is (or wraps) ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
