// Package basic is a reflection-free fastpack codec for primitive values.
//
// It covers tags 0x00-0x08 only: null, booleans, integers, floats, strings,
// bytes, lists and mappings. Output is byte-identical to the full codec, so
// data written by either side reads back through the other.
//
// Values outside the subset fail with fastpack.ErrUnsupportedType on encode
// and fastpack.ErrMalformedTag on decode. Accelerator wraps the package for
// use with fastpack.WithAccelerator, where those two errors hand the work
// back to the full codec.
package basic

import (
	"cmp"
	"fmt"
	"math/big"
	"slices"

	"github.com/zoobzio/fastpack"
	"github.com/zoobzio/fastpack/wire"
)

// Pack encodes v.
func Pack(v any) ([]byte, error) {
	return Append(nil, v)
}

// Append appends the encoding of v to buf.
func Append(buf []byte, v any) ([]byte, error) {
	return appendValue(buf, v, 0, fastpack.DefaultLimits().MaxDepth)
}

// Decode decodes the first value in data and reports the bytes it occupied.
func Decode(data []byte) (any, int, error) {
	return decode(data, fastpack.DefaultLimits().MaxDepth)
}

// Unpack decodes data, which must hold exactly one value.
func Unpack(data []byte) (any, error) {
	v, n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, &fastpack.DecodeError{
			Err:    fastpack.ErrInvalidPayload,
			Offset: n,
			Tag:    wire.Tag(data[n]),
			Cause:  fmt.Errorf("%d trailing bytes", len(data)-n),
		}
	}
	return v, nil
}

func unsupported(v any) error {
	return &fastpack.EncodeError{Err: fastpack.ErrUnsupportedType, Type: fmt.Sprintf("%T", v)}
}

func appendValue(buf []byte, v any, depth, maxDepth int) ([]byte, error) {
	switch v := v.(type) {
	case nil:
		return append(buf, byte(wire.Null)), nil
	case bool:
		if v {
			return append(buf, byte(wire.True)), nil
		}
		return append(buf, byte(wire.False)), nil
	case int:
		return wire.AppendVarint(append(buf, byte(wire.Int)), int64(v)), nil
	case int8:
		return wire.AppendVarint(append(buf, byte(wire.Int)), int64(v)), nil
	case int16:
		return wire.AppendVarint(append(buf, byte(wire.Int)), int64(v)), nil
	case int32:
		return wire.AppendVarint(append(buf, byte(wire.Int)), int64(v)), nil
	case int64:
		return wire.AppendVarint(append(buf, byte(wire.Int)), v), nil
	case uint:
		return appendUint(buf, uint64(v)), nil
	case uint8:
		return appendUint(buf, uint64(v)), nil
	case uint16:
		return appendUint(buf, uint64(v)), nil
	case uint32:
		return appendUint(buf, uint64(v)), nil
	case uint64:
		return appendUint(buf, v), nil
	case *big.Int:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		return wire.AppendBigVarint(append(buf, byte(wire.Int)), v), nil
	case float32:
		return wire.AppendFloat64(append(buf, byte(wire.Float)), float64(v)), nil
	case float64:
		return wire.AppendFloat64(append(buf, byte(wire.Float)), v), nil
	case string:
		return wire.AppendString(append(buf, byte(wire.String)), v), nil
	case []byte:
		return wire.AppendBytes(append(buf, byte(wire.Bytes)), v), nil
	}

	// Containers: past the depth limit the value is handed back, which is
	// also how self-referencing containers reach the full codec's detection.
	if depth >= maxDepth {
		return nil, unsupported(v)
	}

	switch v := v.(type) {
	case []any:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		buf = wire.AppendUvarint(append(buf, byte(wire.List)), uint64(len(v)))
		var err error
		for _, item := range v {
			if buf, err = appendValue(buf, item, depth+1, maxDepth); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case *fastpack.Map:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		buf = wire.AppendUvarint(append(buf, byte(wire.Map)), uint64(v.Len()))
		var err error
		for k, val := range v.All() {
			if buf, err = appendValue(buf, k, depth+1, maxDepth); err != nil {
				return nil, err
			}
			if buf, err = appendValue(buf, val, depth+1, maxDepth); err != nil {
				return nil, err
			}
		}
		return buf, nil
	case map[string]any:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, cmp.Compare[string])
		buf = wire.AppendUvarint(append(buf, byte(wire.Map)), uint64(len(keys)))
		var err error
		for _, k := range keys {
			buf = wire.AppendString(append(buf, byte(wire.String)), k)
			if buf, err = appendValue(buf, v[k], depth+1, maxDepth); err != nil {
				return nil, err
			}
		}
		return buf, nil
	}

	return nil, unsupported(v)
}

func appendUint(buf []byte, u uint64) []byte {
	buf = append(buf, byte(wire.Int))
	if u <= 1<<63-1 {
		return wire.AppendVarint(buf, int64(u))
	}
	return wire.AppendBigVarint(buf, new(big.Int).SetUint64(u))
}

func decode(data []byte, maxDepth int) (any, int, error) {
	d := decoder{src: wire.NewBuffer(data), maxDepth: maxDepth}
	v, err := d.value(0)
	if err != nil {
		return nil, 0, err
	}
	return v, d.src.Offset(), nil
}

type decoder struct {
	src      *wire.Buffer
	maxDepth int
}

func (d *decoder) fail(sentinel error, off int, tag wire.Tag) error {
	return &fastpack.DecodeError{Err: sentinel, Offset: off, Tag: tag}
}

func (d *decoder) value(depth int) (any, error) {
	off := d.src.Offset()
	c, err := d.src.ReadByte()
	if err != nil {
		return nil, d.fail(fastpack.ErrTruncated, off, wire.Null)
	}
	tag := wire.Tag(c)
	if !wire.IsBasic(tag) {
		return nil, d.fail(fastpack.ErrMalformedTag, off, tag)
	}

	switch tag {
	case wire.Null:
		return nil, nil
	case wire.False:
		return false, nil
	case wire.True:
		return true, nil
	case wire.Int:
		n, wide, err := wire.ReadVarint(d.src)
		if err != nil {
			return nil, d.fail(err, off, tag)
		}
		if wide != nil {
			return wide, nil
		}
		return n, nil
	case wire.Float:
		f, err := wire.ReadFloat64(d.src)
		if err != nil {
			return nil, d.fail(err, off, tag)
		}
		return f, nil
	case wire.String:
		s, err := wire.ReadString(d.src)
		if err != nil {
			return nil, d.fail(err, off, tag)
		}
		return s, nil
	case wire.Bytes:
		n, err := wire.ReadLength(d.src)
		if err != nil {
			return nil, d.fail(err, off, tag)
		}
		b, err := d.src.Next(n)
		if err != nil {
			return nil, d.fail(err, off, tag)
		}
		return append(make([]byte, 0, n), b...), nil
	case wire.List, wire.Map:
		if depth >= d.maxDepth {
			return nil, d.fail(fastpack.ErrDepthExceeded, off, tag)
		}
		minSize := 1
		if tag == wire.Map {
			minSize = 2
		}
		n, err := wire.ReadUvarint(d.src)
		if err != nil {
			return nil, d.fail(err, off, tag)
		}
		if rem := uint64(d.src.Remaining()); n > rem || n*uint64(minSize) > rem {
			return nil, d.fail(fastpack.ErrTruncated, off, tag)
		}
		if tag == wire.List {
			items := make([]any, 0, n)
			for i := uint64(0); i < n; i++ {
				item, err := d.value(depth + 1)
				if err != nil {
					return nil, err
				}
				items = append(items, item)
			}
			return items, nil
		}
		m := fastpack.NewMap(int(n))
		for i := uint64(0); i < n; i++ {
			k, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			val, err := d.value(depth + 1)
			if err != nil {
				return nil, err
			}
			m.Set(k, val)
		}
		return m, nil
	}

	return nil, d.fail(fastpack.ErrMalformedTag, off, tag)
}

// accelerator adapts the package to fastpack.Accelerator.
type accelerator struct {
	maxDepth int
}

// Accelerator returns a fastpack.Accelerator backed by this package, using
// the default nesting limit.
func Accelerator() fastpack.Accelerator {
	return AcceleratorWithLimits(fastpack.DefaultLimits())
}

// AcceleratorWithLimits returns a fastpack.Accelerator that honors
// limits.MaxDepth. Pass the same limits given to the Processor.
func AcceleratorWithLimits(limits fastpack.Limits) fastpack.Accelerator {
	if limits.MaxDepth <= 0 {
		limits.MaxDepth = fastpack.DefaultLimits().MaxDepth
	}
	return &accelerator{maxDepth: limits.MaxDepth}
}

func (a *accelerator) AppendValue(buf []byte, v any) ([]byte, error) {
	return appendValue(buf, v, 0, a.maxDepth)
}

func (a *accelerator) DecodeValue(data []byte) (any, int, error) {
	return decode(data, a.maxDepth)
}
