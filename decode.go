package fastpack

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/zoobzio/fastpack/wire"
)

// maxOffsetMinutes bounds timestamp UTC offsets to less than a day.
const maxOffsetMinutes = 24 * 60

// preallocLimit caps container preallocation when the source cannot report
// how many bytes remain.
const preallocLimit = 4096

// Minimum encoded sizes used to bound declared counts.
const (
	minValueSize = 1 // a tag byte
	minPairSize  = 2 // key and value tags
	minFieldSize = 3 // string tag, zero length, value tag
)

// decoder holds the per-call state of one decode.
type decoder struct {
	src      wire.Source
	registry *Registry
	maxDepth int
	depth    int
}

func newDecoder(src wire.Source, registry *Registry, limits Limits) *decoder {
	return &decoder{src: src, registry: registry, maxDepth: limits.MaxDepth}
}

// value decodes the next tagged value.
func (d *decoder) value() (any, error) {
	off := d.src.Offset()
	c, err := d.src.ReadByte()
	if err != nil {
		return nil, d.fail(err, off, wire.Null)
	}
	return d.payload(wire.Tag(c), off)
}

// payload decodes the body of a value whose tag byte was read at off.
func (d *decoder) payload(tag wire.Tag, off int) (any, error) {
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

	case wire.List, wire.Tuple, wire.Set, wire.FrozenSet:
		return d.sequence(tag, off)

	case wire.Map:
		return d.mapping(off)

	case wire.Timestamp:
		micros, minutes, err := wire.ReadTimestamp(d.src)
		if err != nil {
			return nil, d.fail(err, off, tag)
		}
		if minutes <= -maxOffsetMinutes || minutes >= maxOffsetMinutes {
			return nil, newDecodeError(ErrInvalidPayload, off, tag, fmt.Errorf("utc offset %d minutes", minutes))
		}
		t := time.UnixMicro(micros).UTC()
		if minutes != 0 {
			t = t.In(time.FixedZone("", int(minutes)*60))
		}
		return t, nil

	case wire.Decimal:
		s, err := wire.ReadString(d.src)
		if err != nil {
			return nil, d.fail(err, off, tag)
		}
		dec, _, err := apd.NewFromString(s)
		if err != nil {
			return nil, newDecodeError(ErrInvalidPayload, off, tag, err)
		}
		return dec, nil

	case wire.UUID:
		b, err := d.src.Next(16)
		if err != nil {
			return nil, d.fail(err, off, tag)
		}
		var id uuid.UUID
		copy(id[:], b)
		return id, nil

	case wire.Record:
		return d.record(off)
	}

	return nil, newDecodeError(ErrMalformedTag, off, tag, nil)
}

// enter descends one nesting level.
func (d *decoder) enter(off int, tag wire.Tag) error {
	d.depth++
	if d.maxDepth > 0 && d.depth > d.maxDepth {
		return newDecodeError(ErrDepthExceeded, off, tag, nil)
	}
	return nil
}

func (d *decoder) leave() {
	d.depth--
}

// count reads a container count and checks that count items of at least
// minSize bytes each can fit in what remains.
func (d *decoder) count(off int, tag wire.Tag, minSize int) (int, error) {
	n, err := wire.ReadUvarint(d.src)
	if err != nil {
		return 0, d.fail(err, off, tag)
	}
	if rem := d.src.Remaining(); rem >= 0 && (n > uint64(rem) || n*uint64(minSize) > uint64(rem)) {
		return 0, newDecodeError(ErrTruncated, off, tag, fmt.Errorf("%d items declared, %d bytes remain", n, rem))
	}
	if n > 1<<31-1 {
		return 0, newDecodeError(ErrTruncated, off, tag, fmt.Errorf("%d items declared", n))
	}
	return int(n), nil
}

func (d *decoder) capacity(n int) int {
	if d.src.Remaining() < 0 {
		return min(n, preallocLimit)
	}
	return n
}

func (d *decoder) sequence(tag wire.Tag, off int) (any, error) {
	if err := d.enter(off, tag); err != nil {
		return nil, err
	}
	defer d.leave()

	n, err := d.count(off, tag, minValueSize)
	if err != nil {
		return nil, err
	}
	items := make([]any, 0, d.capacity(n))
	for i := 0; i < n; i++ {
		item, err := d.value()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	switch tag {
	case wire.Tuple:
		return Tuple(items), nil
	case wire.Set:
		return NewSet(items...), nil
	case wire.FrozenSet:
		return NewFrozenSet(items...), nil
	}
	return items, nil
}

func (d *decoder) mapping(off int) (any, error) {
	if err := d.enter(off, wire.Map); err != nil {
		return nil, err
	}
	defer d.leave()

	n, err := d.count(off, wire.Map, minPairSize)
	if err != nil {
		return nil, err
	}
	m := NewMap(d.capacity(n))
	for i := 0; i < n; i++ {
		key, err := d.value()
		if err != nil {
			return nil, err
		}
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}
	return m, nil
}

func (d *decoder) record(off int) (any, error) {
	if err := d.enter(off, wire.Record); err != nil {
		return nil, err
	}
	defer d.leave()

	namespace, err := wire.ReadString(d.src)
	if err != nil {
		return nil, d.fail(err, off, wire.Record)
	}
	name, err := wire.ReadString(d.src)
	if err != nil {
		return nil, d.fail(err, off, wire.Record)
	}
	n, err := d.count(off, wire.Record, minFieldSize)
	if err != nil {
		return nil, err
	}

	fields := make([]Field, 0, d.capacity(n))
	for i := 0; i < n; i++ {
		keyOff := d.src.Offset()
		key, err := d.value()
		if err != nil {
			return nil, err
		}
		fieldName, ok := key.(string)
		if !ok {
			return nil, newDecodeError(ErrInvalidPayload, keyOff, wire.Record, fmt.Errorf("field name is %T", key))
		}
		val, err := d.value()
		if err != nil {
			return nil, err
		}
		fields = append(fields, Field{Name: fieldName, Value: val})
	}

	id := Identity{Namespace: namespace, Name: name}
	if entry, ok := d.registry.LookupID(id); ok {
		v, err := entry.Decode(fields)
		if err != nil {
			return nil, newDecodeError(ErrInvalidPayload, off, wire.Record, err)
		}
		return v, nil
	}

	m := NewMap(len(fields) + 2)
	m.Set(MarkerName, name)
	m.Set(MarkerNamespace, namespace)
	for _, f := range fields {
		if f.Name == MarkerName || f.Name == MarkerNamespace {
			return nil, newDecodeError(ErrInvalidPayload, off, wire.Record, fmt.Errorf("field %s collides with a marker key", f.Name))
		}
		m.Set(f.Name, f.Value)
	}
	emitRecordFallback(context.Background(), id)
	return m, nil
}

// fail wraps a low-level read error. DecodeErrors from nested values pass
// through so the innermost offset is reported.
func (d *decoder) fail(err error, off int, tag wire.Tag) error {
	var de *DecodeError
	if errors.As(err, &de) {
		return err
	}
	for _, sentinel := range []error{ErrTruncated, ErrInvalidPayload, ErrMalformedTag} {
		if errors.Is(err, sentinel) {
			if err == sentinel {
				err = nil
			}
			return newDecodeError(sentinel, off, tag, err)
		}
	}
	return newDecodeError(ErrTruncated, off, tag, err)
}
