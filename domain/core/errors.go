package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation errors, always raised before any collaborator call
	ErrMalformedAddress    = errors.New("malformed cell address")
	ErrInvalidNumericRange = errors.New("invalid numeric range")
	ErrAmbiguousUnion      = errors.New("ambiguous oneof field")
	ErrUnrecognizedVariant = errors.New("unrecognized variant")

	// Remote lifecycle errors
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyDeleted = errors.New("pivot table already deleted")
)

// CollaboratorError is an opaque passthrough from the remote boundary.
// Transient failures are safe to retry with identical entity state;
// permanent ones are not.
type CollaboratorError struct {
	Transient bool
	Cause     error
}

func (e *CollaboratorError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("collaborator error (%s): %v", kind, e.Cause)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Cause
}

// NewTransientError wraps a retryable boundary failure
func NewTransientError(cause error) error {
	return &CollaboratorError{Transient: true, Cause: cause}
}

// NewPermanentError wraps a non-retryable boundary failure
func NewPermanentError(cause error) error {
	return &CollaboratorError{Transient: false, Cause: cause}
}

// Error constructors with context
func NewMalformedAddressError(input string, reason string) error {
	return fmt.Errorf("%w: %q: %s", ErrMalformedAddress, input, reason)
}

func NewAmbiguousUnionError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrAmbiguousUnion, field, reason)
}

func NewUnrecognizedVariantError(field string, tag string) error {
	return fmt.Errorf("%w: %s %q", ErrUnrecognizedVariant, field, tag)
}

// WrapListElement attaches positional context to a decode failure so
// callers can tell which list and which index produced it.
func WrapListElement(list string, index int, err error) error {
	return fmt.Errorf("%s[%d]: %w", list, index, err)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMalformedAddress) ||
		errors.Is(err, ErrInvalidNumericRange) ||
		errors.Is(err, ErrAmbiguousUnion) ||
		errors.Is(err, ErrUnrecognizedVariant)
}

func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransient reports whether err is a retryable collaborator failure.
func IsTransient(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce) && ce.Transient
}
