package wire

import "errors"

// Sentinel errors shared by every fastpack encoder and decoder.
// Use errors.Is() to check for these error types.
var (
	// ErrUnsupportedType indicates a value has no tag and no registered encoder.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrCyclicValue indicates a container references itself.
	ErrCyclicValue = errors.New("cyclic value")

	// ErrMalformedTag indicates a tag byte outside the defined set.
	ErrMalformedTag = errors.New("malformed tag")

	// ErrTruncated indicates a declared length or count exceeds the remaining bytes.
	ErrTruncated = errors.New("truncated data")

	// ErrRegistryConflict indicates a type identity is already bound elsewhere.
	ErrRegistryConflict = errors.New("registry conflict")

	// ErrInvalidPayload indicates a well-framed payload with invalid content.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrDepthExceeded indicates nesting deeper than the configured limit.
	ErrDepthExceeded = errors.New("depth exceeded")
)
