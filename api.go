// Package fastpack provides a compact, self-describing binary codec.
//
// Every value on the wire starts with a one-byte tag followed by a payload
// determined by that tag. Unlike JSON, the encoding keeps type identity: a
// tuple never decodes as a list, sets stay sets, and timestamps, exact
// decimals and UUIDs travel natively.
//
// # Value Model
//
// Encode accepts ordinary Go values and decodes to a fixed set of types:
//
//   - nil, bool, string, []byte
//   - integers decode to int64, or *big.Int outside the int64 range
//   - floats decode to float64
//   - slices decode to []any; Tuple keeps its own tag
//   - mappings decode to *Map, which preserves insertion order
//   - *Set and *FrozenSet
//   - time.Time at microsecond precision with its UTC offset
//   - *apd.Decimal, kept textually exact
//   - uuid.UUID
//
// # Records
//
// Structured records carry an Identity (namespace, name) and ordered fields.
// Structs encode as records automatically. To decode bytes back into a Go
// type, register it:
//
//	type User struct {
//	    Name   string `pack:"name"`
//	    Age    int    `pack:"age"`
//	    Secret string `pack:"-"`
//	}
//
//	fastpack.RegisterStruct[User]()
//
//	data, _ := fastpack.Pack(User{Name: "Ana", Age: 30})
//	v, _ := fastpack.Unpack(data) // User{Name: "Ana", Age: 30}
//
// Records whose identity is not registered decode to a *Map whose first
// entries are MarkerName and MarkerNamespace, followed by the fields.
//
// # Override Interfaces
//
// Types can bypass reflection by implementing Marshaler and Unmarshaler and
// registering with RegisterMarshaler. Identified overrides the identity
// written to the wire.
//
// # Streaming
//
// PackStream and UnpackStream move sequences of values through io.Writer and
// io.Reader without buffering the whole sequence. PackMany, UnpackMany and
// IterUnpack handle concatenated values held in memory.
//
// # Codec Providers
//
// The following packages encode the same value model in other formats, for
// comparison and interchange:
//
//   - json - JSON encoding (application/json)
//   - yaml - YAML encoding (application/yaml)
//   - msgpack - MessagePack encoding (application/msgpack)
//   - bson - BSON encoding (application/bson)
//
// The basic package holds a reflection-free accelerator for primitive values.
package fastpack

import (
	"context"
	"io"
	"iter"
)

// defaultProcessor backs the package-level functions. It resolves records
// through DefaultRegistry.
var defaultProcessor = NewProcessor()

// Default returns the Processor used by the package-level functions.
func Default() *Processor {
	return defaultProcessor
}

// Pack encodes v with the default processor.
func Pack(v any) ([]byte, error) {
	return defaultProcessor.Pack(v)
}

// Unpack decodes data, which must hold exactly one value.
func Unpack(data []byte) (any, error) {
	return defaultProcessor.Unpack(data)
}

// Decode decodes the first value in data and reports the bytes it occupied.
func Decode(data []byte) (any, int, error) {
	return defaultProcessor.Decode(data)
}

// Marshal encodes v with the default processor.
func Marshal(v any) ([]byte, error) {
	return defaultProcessor.Marshal(v)
}

// Unmarshal decodes data into the value pointed to by v.
func Unmarshal(data []byte, v any) error {
	return defaultProcessor.Unmarshal(data, v)
}

// PackTo encodes v and writes it to w.
func PackTo(w io.Writer, v any) error {
	return defaultProcessor.PackTo(w, v)
}

// UnpackFrom reads exactly one value from r.
func UnpackFrom(r io.Reader) (any, error) {
	return defaultProcessor.UnpackFrom(r)
}

// PackStream encodes each value of values to w.
func PackStream(ctx context.Context, w io.Writer, values iter.Seq[any]) error {
	return defaultProcessor.PackStream(ctx, w, values)
}

// UnpackStream decodes consecutive values from r until it is exhausted.
func UnpackStream(ctx context.Context, r io.Reader) iter.Seq2[any, error] {
	return defaultProcessor.UnpackStream(ctx, r)
}

// PackMany concatenates the encodings of values.
func PackMany(values []any) ([]byte, error) {
	return defaultProcessor.PackMany(values)
}

// UnpackMany decodes every value in data.
func UnpackMany(data []byte) ([]any, error) {
	return defaultProcessor.UnpackMany(data)
}

// IterUnpack lazily decodes every value in data.
func IterUnpack(data []byte) iter.Seq2[any, error] {
	return defaultProcessor.IterUnpack(data)
}
