package fastpack

import (
	"errors"
	"fmt"

	"github.com/zoobzio/fastpack/wire"
)

// Sentinel errors for programmatic error handling.
// Use errors.Is() to check for these error types.
var (
	// ErrUnsupportedType indicates encode met a value with no tag and no registry entry.
	ErrUnsupportedType = wire.ErrUnsupportedType

	// ErrCyclicValue indicates encode met a container that references itself.
	ErrCyclicValue = wire.ErrCyclicValue

	// ErrMalformedTag indicates decode read a tag byte outside the defined set.
	ErrMalformedTag = wire.ErrMalformedTag

	// ErrTruncated indicates a declared length or count exceeds the remaining bytes.
	ErrTruncated = wire.ErrTruncated

	// ErrRegistryConflict indicates a type or identity is already bound to another entry.
	ErrRegistryConflict = wire.ErrRegistryConflict

	// ErrInvalidPayload indicates a well-framed payload whose content is invalid.
	ErrInvalidPayload = wire.ErrInvalidPayload

	// ErrDepthExceeded indicates nesting beyond Limits.MaxDepth.
	ErrDepthExceeded = wire.ErrDepthExceeded

	// ErrTypeMismatch indicates a decoded value cannot be assigned to a Go type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrInvalidEntry indicates a registry entry is missing its type, identity or functions.
	ErrInvalidEntry = errors.New("invalid registry entry")
)

// EncodeError represents a failure while encoding a value.
// It wraps a sentinel error with the path to the offending value.
type EncodeError struct {
	Err   error  // Underlying sentinel error (ErrUnsupportedType, ErrCyclicValue, ...)
	Path  string // Location of the value inside the top-level value, e.g. "[2].name"
	Type  string // Go type of the offending value
	Cause error  // Original error from a registered encoder, if any
}

func (e *EncodeError) Error() string {
	msg := "encode"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Type != "" {
		msg += fmt.Sprintf(" (%s)", e.Type)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", msg, e.Err.Error(), e.Cause)
	}
	return fmt.Sprintf("%s: %s", msg, e.Err.Error())
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

// DecodeError represents a failure while decoding bytes.
// It wraps a sentinel error with the offset where decoding stopped.
type DecodeError struct {
	Err    error    // Underlying sentinel error (ErrTruncated, ErrMalformedTag, ...)
	Offset int      // Byte offset of the value being decoded
	Tag    wire.Tag // Tag of the value being decoded
	Cause  error    // Original error from a registered decoder or the source
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("decode %s at offset %d: %s: %v", e.Tag, e.Offset, e.Err.Error(), e.Cause)
	}
	return fmt.Sprintf("decode %s at offset %d: %s", e.Tag, e.Offset, e.Err.Error())
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// RegistryError represents a rejected registration.
type RegistryError struct {
	Err      error    // Underlying sentinel error (ErrRegistryConflict)
	ID       Identity // Identity being registered
	Type     string   // Go type being registered
	Existing string   // Description of the entry already bound
}

func (e *RegistryError) Error() string {
	if e.Existing != "" {
		return fmt.Sprintf("register %s (%s): %s with %s", e.ID, e.Type, e.Err.Error(), e.Existing)
	}
	return fmt.Sprintf("register %s (%s): %s", e.ID, e.Type, e.Err.Error())
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// FieldError reports which record field failed to assign.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// newEncodeError creates an EncodeError for a failing value.
func newEncodeError(sentinel error, path, typ string, cause error) error {
	return &EncodeError{
		Err:   sentinel,
		Path:  path,
		Type:  typ,
		Cause: cause,
	}
}

// newDecodeError creates a DecodeError for a failing value.
func newDecodeError(sentinel error, offset int, tag wire.Tag, cause error) error {
	return &DecodeError{
		Err:    sentinel,
		Offset: offset,
		Tag:    tag,
		Cause:  cause,
	}
}
