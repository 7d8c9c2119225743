package fastpack

import (
	"cmp"
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strconv"
	"time"
	"unsafe"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/zoobzio/fastpack/wire"
)

// startDetectingCyclesAfter is the nesting depth at which the encoder starts
// tracking visited containers. Shallow values never pay for the bookkeeping.
const startDetectingCyclesAfter = 64

// encoder holds the per-call state of one Pack.
type encoder struct {
	registry *Registry
	maxDepth int
	depth    int
	path     []visit
	seen     map[visit]struct{}
}

// visit identifies a container on the current encode path.
type visit struct {
	ptr unsafe.Pointer
	len int
	typ reflect.Type
}

var (
	bigIntType  = reflect.TypeFor[big.Int]()
	decimalType = reflect.TypeFor[apd.Decimal]()
	recordType  = reflect.TypeFor[Record]()
)

func newEncoder(registry *Registry, limits Limits) *encoder {
	return &encoder{registry: registry, maxDepth: limits.MaxDepth}
}

// encode appends the encoding of v to buf.
func (e *encoder) encode(buf []byte, v any) ([]byte, error) {
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
	case int64:
		return wire.AppendVarint(append(buf, byte(wire.Int)), v), nil
	case int32:
		return wire.AppendVarint(append(buf, byte(wire.Int)), int64(v)), nil
	case uint64:
		return appendUint(buf, v), nil
	case float64:
		return wire.AppendFloat64(append(buf, byte(wire.Float)), v), nil
	case string:
		return wire.AppendString(append(buf, byte(wire.String)), v), nil
	case []byte:
		return wire.AppendBytes(append(buf, byte(wire.Bytes)), v), nil
	case *big.Int:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		return wire.AppendBigVarint(append(buf, byte(wire.Int)), v), nil
	case []any:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		return e.sequence(buf, wire.List, v, unsafe.Pointer(unsafe.SliceData(v)))
	case Tuple:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		return e.sequence(buf, wire.Tuple, v, unsafe.Pointer(unsafe.SliceData([]any(v))))
	case *Map:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		return e.mapping(buf, v)
	case *Set:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		return e.sequence(buf, wire.Set, v.Values(), unsafe.Pointer(v))
	case *FrozenSet:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		return e.sequence(buf, wire.FrozenSet, v.Values(), unsafe.Pointer(v))
	case time.Time:
		return appendTime(buf, v), nil
	case *apd.Decimal:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		return wire.AppendString(append(buf, byte(wire.Decimal)), v.String()), nil
	case uuid.UUID:
		return append(append(buf, byte(wire.UUID)), v[:]...), nil
	case Record:
		return e.record(buf, v.ID, v.Fields)
	case *Record:
		if v == nil {
			return append(buf, byte(wire.Null)), nil
		}
		return e.record(buf, v.ID, v.Fields)
	}
	return e.reflectValue(buf, reflect.ValueOf(v))
}

// reflectValue encodes values outside the fast type switch: registered
// types, Marshalers, and everything reachable by kind.
func (e *encoder) reflectValue(buf []byte, rv reflect.Value) ([]byte, error) {
	if !rv.IsValid() {
		return append(buf, byte(wire.Null)), nil
	}

	typ := rv.Type()
	if entry, ok := e.registry.LookupType(typ); ok {
		fields, err := entry.Encode(rv.Interface())
		if err != nil {
			return nil, newEncodeError(ErrUnsupportedType, "", typ.String(), err)
		}
		return e.record(buf, entry.ID, fields)
	}

	if typ.Implements(marshalerType) {
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return append(buf, byte(wire.Null)), nil
		}
		fields, err := rv.Interface().(Marshaler).MarshalFields()
		if err != nil {
			return nil, newEncodeError(ErrUnsupportedType, "", typ.String(), err)
		}
		return e.record(buf, IdentityOf(typ), fields)
	}

	switch typ {
	case bigIntType:
		n := rv.Interface().(big.Int)
		return wire.AppendBigVarint(append(buf, byte(wire.Int)), &n), nil
	case decimalType:
		d := rv.Interface().(apd.Decimal)
		return wire.AppendString(append(buf, byte(wire.Decimal)), d.String()), nil
	case recordType:
		r := rv.Interface().(Record)
		return e.record(buf, r.ID, r.Fields)
	}

	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return append(buf, byte(wire.Null)), nil
		}
		return e.nested(buf, visit{ptr: rv.UnsafePointer(), typ: typ}, "", func(buf []byte) ([]byte, error) {
			return e.encode(buf, rv.Elem().Interface())
		})
	case reflect.Interface:
		if rv.IsNil() {
			return append(buf, byte(wire.Null)), nil
		}
		return e.encode(buf, rv.Elem().Interface())
	case reflect.Bool:
		return e.encode(buf, rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return wire.AppendVarint(append(buf, byte(wire.Int)), rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return appendUint(buf, rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return wire.AppendFloat64(append(buf, byte(wire.Float)), rv.Float()), nil
	case reflect.String:
		return wire.AppendString(append(buf, byte(wire.String)), rv.String()), nil
	case reflect.Slice:
		if rv.IsNil() {
			return append(buf, byte(wire.Null)), nil
		}
		if typ.Elem().Kind() == reflect.Uint8 {
			return wire.AppendBytes(append(buf, byte(wire.Bytes)), rv.Bytes()), nil
		}
		return e.reflectSequence(buf, rv, rv.UnsafePointer())
	case reflect.Array:
		if typ.Elem().Kind() == reflect.Uint8 {
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return wire.AppendBytes(append(buf, byte(wire.Bytes)), b), nil
		}
		return e.reflectSequence(buf, rv, nil)
	case reflect.Map:
		if rv.IsNil() {
			return append(buf, byte(wire.Null)), nil
		}
		return e.reflectMapping(buf, rv)
	case reflect.Struct:
		layout := layoutOf(typ)
		if err := layout.opaque(); err != nil {
			return nil, newEncodeError(ErrUnsupportedType, "", typ.String(), err)
		}
		return e.record(buf, layout.id, layout.project(rv))
	}

	return nil, newEncodeError(ErrUnsupportedType, "", typ.String(), nil)
}

// nested runs fn one level deeper, enforcing the depth limit and, past the
// detection threshold, rejecting containers already on the path.
func (e *encoder) nested(buf []byte, key visit, seg string, fn func([]byte) ([]byte, error)) ([]byte, error) {
	e.depth++
	e.path = append(e.path, key)
	defer func() {
		e.depth--
		e.path = e.path[:len(e.path)-1]
	}()

	if e.maxDepth > 0 && e.depth > e.maxDepth {
		if e.pathRepeats() {
			return nil, newEncodeError(ErrCyclicValue, seg, key.typeName(), nil)
		}
		return nil, newEncodeError(ErrDepthExceeded, seg, key.typeName(), nil)
	}

	if e.depth > startDetectingCyclesAfter && key.ptr != nil {
		if e.seen == nil {
			e.seen = make(map[visit]struct{})
		}
		if _, ok := e.seen[key]; ok {
			return nil, newEncodeError(ErrCyclicValue, seg, key.typeName(), nil)
		}
		e.seen[key] = struct{}{}
		defer delete(e.seen, key)
	}

	out, err := fn(buf)
	if err != nil {
		return nil, prefixPath(err, seg)
	}
	return out, nil
}

// pathRepeats reports whether a container occurs twice on the current path.
// It runs only once the depth limit is hit.
func (e *encoder) pathRepeats() bool {
	onPath := make(map[visit]struct{}, len(e.path))
	for _, k := range e.path {
		if k.ptr == nil {
			continue
		}
		if _, ok := onPath[k]; ok {
			return true
		}
		onPath[k] = struct{}{}
	}
	return false
}

func (k visit) typeName() string {
	if k.typ == nil {
		return ""
	}
	return k.typ.String()
}

// sequence encodes list, tuple, set and frozenset payloads.
func (e *encoder) sequence(buf []byte, tag wire.Tag, items []any, ptr unsafe.Pointer) ([]byte, error) {
	key := visit{ptr: ptr, len: len(items), typ: reflect.TypeOf(items)}
	return e.nested(buf, key, "", func(buf []byte) ([]byte, error) {
		buf = wire.AppendUvarint(append(buf, byte(tag)), uint64(len(items)))
		var err error
		for i, item := range items {
			if buf, err = e.encode(buf, item); err != nil {
				return nil, prefixPath(err, "["+strconv.Itoa(i)+"]")
			}
		}
		return buf, nil
	})
}

// reflectSequence encodes any other slice or array as a list.
func (e *encoder) reflectSequence(buf []byte, rv reflect.Value, ptr unsafe.Pointer) ([]byte, error) {
	key := visit{ptr: ptr, len: rv.Len(), typ: rv.Type()}
	return e.nested(buf, key, "", func(buf []byte) ([]byte, error) {
		n := rv.Len()
		buf = wire.AppendUvarint(append(buf, byte(wire.List)), uint64(n))
		var err error
		for i := 0; i < n; i++ {
			if buf, err = e.encode(buf, rv.Index(i).Interface()); err != nil {
				return nil, prefixPath(err, "["+strconv.Itoa(i)+"]")
			}
		}
		return buf, nil
	})
}

// mapping encodes an ordered Map.
func (e *encoder) mapping(buf []byte, m *Map) ([]byte, error) {
	key := visit{ptr: unsafe.Pointer(m), typ: reflect.TypeOf(m)}
	return e.nested(buf, key, "", func(buf []byte) ([]byte, error) {
		buf = wire.AppendUvarint(append(buf, byte(wire.Map)), uint64(m.Len()))
		var err error
		for _, entry := range m.entries {
			seg := "[" + fmt.Sprint(entry.Key) + "]"
			if buf, err = e.encode(buf, entry.Key); err != nil {
				return nil, prefixPath(err, seg)
			}
			if buf, err = e.encode(buf, entry.Value); err != nil {
				return nil, prefixPath(err, seg)
			}
		}
		return buf, nil
	})
}

// reflectMapping encodes a Go map. Go maps carry no insertion order, so keys
// are sorted to keep the output deterministic.
func (e *encoder) reflectMapping(buf []byte, rv reflect.Value) ([]byte, error) {
	key := visit{ptr: rv.UnsafePointer(), typ: rv.Type()}
	return e.nested(buf, key, "", func(buf []byte) ([]byte, error) {
		keys := rv.MapKeys()
		slices.SortFunc(keys, compareKeys)
		buf = wire.AppendUvarint(append(buf, byte(wire.Map)), uint64(len(keys)))
		var err error
		for _, k := range keys {
			seg := "[" + fmt.Sprint(k.Interface()) + "]"
			if buf, err = e.encode(buf, k.Interface()); err != nil {
				return nil, prefixPath(err, seg)
			}
			if buf, err = e.encode(buf, rv.MapIndex(k).Interface()); err != nil {
				return nil, prefixPath(err, seg)
			}
		}
		return buf, nil
	})
}

// record encodes the record tag, identity and fields.
func (e *encoder) record(buf []byte, id Identity, fields []Field) ([]byte, error) {
	key := visit{typ: recordType}
	return e.nested(buf, key, "", func(buf []byte) ([]byte, error) {
		buf = append(buf, byte(wire.Record))
		buf = wire.AppendString(buf, id.Namespace)
		buf = wire.AppendString(buf, id.Name)
		buf = wire.AppendUvarint(buf, uint64(len(fields)))
		var err error
		for _, f := range fields {
			buf = wire.AppendString(append(buf, byte(wire.String)), f.Name)
			if buf, err = e.encode(buf, f.Value); err != nil {
				return nil, prefixPath(err, "."+f.Name)
			}
		}
		return buf, nil
	})
}

// appendUint encodes an unsigned integer, widening past int64 when needed.
func appendUint(buf []byte, u uint64) []byte {
	buf = append(buf, byte(wire.Int))
	if u <= 1<<63-1 {
		return wire.AppendVarint(buf, int64(u))
	}
	return wire.AppendBigVarint(buf, new(big.Int).SetUint64(u))
}

// appendTime encodes t at microsecond precision with its UTC offset.
func appendTime(buf []byte, t time.Time) []byte {
	_, offset := t.Zone()
	return wire.AppendTimestamp(append(buf, byte(wire.Timestamp)), t.UnixMicro(), int64(offset/60))
}

// compareKeys orders Go map keys: by kind first, then by value.
func compareKeys(a, b reflect.Value) int {
	if a.Kind() == reflect.Interface {
		a = a.Elem()
	}
	if b.Kind() == reflect.Interface {
		b = b.Elem()
	}
	if !a.IsValid() || !b.IsValid() {
		return cmp.Compare(boolRank(a.IsValid()), boolRank(b.IsValid()))
	}
	if a.Kind() != b.Kind() {
		return cmp.Compare(a.Kind(), b.Kind())
	}
	switch a.Kind() {
	case reflect.String:
		return cmp.Compare(a.String(), b.String())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cmp.Compare(a.Int(), b.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return cmp.Compare(a.Uint(), b.Uint())
	case reflect.Float32, reflect.Float64:
		return cmp.Compare(a.Float(), b.Float())
	case reflect.Bool:
		return cmp.Compare(boolRank(a.Bool()), boolRank(b.Bool()))
	}
	return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// prefixPath prepends seg to the path of an EncodeError.
func prefixPath(err error, seg string) error {
	if seg == "" {
		return err
	}
	var ee *EncodeError
	if errors.As(err, &ee) {
		ee.Path = seg + ee.Path
	}
	return err
}
