package fastpack

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/zoobzio/fastpack/wire"
)

// Accelerator is an alternate encoder and decoder for a subset of values,
// typically a reflection-free path for primitives.
//
// AppendValue declines a value by returning an error matching
// ErrUnsupportedType; DecodeValue declines input by returning an error
// matching ErrMalformedTag. Declined work is redone by the full codec, so an
// accelerator must produce exactly the bytes and values the full codec would.
type Accelerator interface {
	AppendValue(buf []byte, v any) ([]byte, error)
	DecodeValue(data []byte) (any, int, error)
}

// Limits bounds the resources a single operation may use.
type Limits struct {
	// MaxDepth is the deepest container nesting accepted by encode and decode.
	MaxDepth int

	// ReadChunk is the largest single read issued against an io.Reader while
	// collecting a length-prefixed payload.
	ReadChunk int
}

// DefaultLimits returns the limits used when none are configured.
func DefaultLimits() Limits {
	return Limits{
		MaxDepth:  1000,
		ReadChunk: 64 << 10,
	}
}

// Option configures a Processor.
type Option func(*Processor)

// WithRegistry selects the registry consulted for record types.
func WithRegistry(r *Registry) Option {
	return func(p *Processor) {
		if r != nil {
			p.registry = r
		}
	}
}

// WithLimits overrides the default limits. Zero fields keep their defaults.
func WithLimits(l Limits) Option {
	return func(p *Processor) {
		if l.MaxDepth > 0 {
			p.limits.MaxDepth = l.MaxDepth
		}
		if l.ReadChunk > 0 {
			p.limits.ReadChunk = l.ReadChunk
		}
	}
}

// WithAccelerator routes values through a before the full codec.
func WithAccelerator(a Accelerator) Option {
	return func(p *Processor) {
		p.accel = a
	}
}

// Processor encodes and decodes fastpack values.
//
// A Processor holds no per-call state and is safe for concurrent use. Record
// types are resolved through its Registry, which defaults to DefaultRegistry().
type Processor struct {
	registry *Registry
	limits   Limits
	accel    Accelerator
}

// NewProcessor creates a Processor configured by opts.
func NewProcessor(opts ...Option) *Processor {
	p := &Processor{
		registry: defaultRegistry,
		limits:   DefaultLimits(),
	}
	for _, opt := range opts {
		opt(p)
	}
	emitProcessorCreated(context.Background(), p.registry.Len(), p.accel != nil)
	return p
}

// Registry returns the registry consulted by p.
func (p *Processor) Registry() *Registry {
	return p.registry
}

// Limits returns the limits applied by p.
func (p *Processor) Limits() Limits {
	return p.limits
}

// Accelerated reports whether p routes values through an Accelerator first.
func (p *Processor) Accelerated() bool {
	return p.accel != nil
}

// ContentType returns the MIME type of the fastpack encoding.
func (p *Processor) ContentType() string {
	return ContentType
}

// Pack encodes v. On failure no bytes are returned.
func (p *Processor) Pack(v any) ([]byte, error) {
	return p.Append(nil, v)
}

// Append appends the encoding of v to buf. On failure buf is returned
// unchanged.
func (p *Processor) Append(buf []byte, v any) ([]byte, error) {
	start := time.Now()
	out, err := p.appendValue(buf, v)
	if err != nil {
		emitPackComplete(context.Background(), typeName(v), 0, time.Since(start), err)
		return buf, err
	}
	emitPackComplete(context.Background(), typeName(v), len(out)-len(buf), time.Since(start), nil)
	return out, nil
}

func (p *Processor) appendValue(buf []byte, v any) ([]byte, error) {
	if p.accel != nil {
		out, err := p.accel.AppendValue(buf, v)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ErrUnsupportedType) {
			return nil, err
		}
		emitAcceleratorMissed(context.Background(), "pack")
	}
	return newEncoder(p.registry, p.limits).encode(buf, v)
}

// Decode decodes the first value in data and reports how many bytes it
// occupied. Bytes after the value are left alone.
func (p *Processor) Decode(data []byte) (any, int, error) {
	start := time.Now()
	v, n, err := p.decodeValue(data)
	emitUnpackComplete(context.Background(), n, time.Since(start), err)
	return v, n, err
}

func (p *Processor) decodeValue(data []byte) (any, int, error) {
	if p.accel != nil {
		v, n, err := p.accel.DecodeValue(data)
		if err == nil {
			return v, n, nil
		}
		if !errors.Is(err, ErrMalformedTag) {
			return nil, 0, err
		}
		emitAcceleratorMissed(context.Background(), "unpack")
	}
	buf := wire.NewBuffer(data)
	v, err := newDecoder(buf, p.registry, p.limits).value()
	if err != nil {
		return nil, 0, err
	}
	return v, buf.Offset(), nil
}

// Unpack decodes data, which must hold exactly one value.
func (p *Processor) Unpack(data []byte) (any, error) {
	v, n, err := p.Decode(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, newDecodeError(ErrInvalidPayload, n, wire.Tag(data[n]), fmt.Errorf("%d trailing bytes", len(data)-n))
	}
	return v, nil
}

// Marshal encodes v. It satisfies Codec.
func (p *Processor) Marshal(v any) ([]byte, error) {
	return p.Pack(v)
}

// Unmarshal decodes data into the value pointed to by v, converting the
// decoded value to the target's Go type.
func (p *Processor) Unmarshal(data []byte, v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("%w: unmarshal target must be a non-nil pointer, got %T", ErrTypeMismatch, v)
	}
	decoded, err := p.Unpack(data)
	if err != nil {
		return err
	}
	return assign(rv.Elem(), decoded)
}

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
