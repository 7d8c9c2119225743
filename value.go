package fastpack

import (
	"iter"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

// Tuple is a fixed sequence. It encodes with its own tag so that it never
// decodes as a list.
type Tuple []any

// Pair is one key/value entry of a Map.
type Pair struct {
	Key   any
	Value any
}

// Map is an insertion-ordered mapping with unique keys.
//
// Keys with a comparable dynamic type are indexed directly. Keys that cannot
// be hashed (Tuple, []byte, nested containers) are matched with Equal.
// The zero value is an empty map ready to use.
type Map struct {
	entries []Pair
	index   map[any]int
}

// NewMap returns an empty Map with room for capacity entries.
func NewMap(capacity int) *Map {
	return &Map{
		entries: make([]Pair, 0, capacity),
		index:   make(map[any]int, capacity),
	}
}

// MapOf builds a Map from alternating keys and values.
// It panics if kv has an odd length.
func MapOf(kv ...any) *Map {
	if len(kv)%2 != 0 {
		panic("fastpack: MapOf called with an odd number of arguments")
	}
	m := NewMap(len(kv) / 2)
	for i := 0; i < len(kv); i += 2 {
		m.Set(kv[i], kv[i+1])
	}
	return m
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}

// Set stores value under key. Overwriting keeps the original position.
func (m *Map) Set(key, value any) {
	if i, ok := m.find(key); ok {
		m.entries[i].Value = value
		return
	}
	if hk, ok := indexKey(key); ok {
		if m.index == nil {
			m.index = make(map[any]int)
		}
		m.index[hk] = len(m.entries)
	}
	m.entries = append(m.entries, Pair{Key: key, Value: value})
}

// Get returns the value stored under key.
func (m *Map) Get(key any) (any, bool) {
	if m == nil {
		return nil, false
	}
	if i, ok := m.find(key); ok {
		return m.entries[i].Value, true
	}
	return nil, false
}

// Has reports whether key is present.
func (m *Map) Has(key any) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key, returning true if it was present.
func (m *Map) Delete(key any) bool {
	i, ok := m.find(key)
	if !ok {
		return false
	}
	if hk, ok := indexKey(key); ok {
		delete(m.index, hk)
	}
	m.entries = append(m.entries[:i], m.entries[i+1:]...)
	for k, pos := range m.index {
		if pos > i {
			m.index[k] = pos - 1
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []any {
	if m == nil {
		return nil
	}
	keys := make([]any, 0, len(m.entries))
	for _, e := range m.entries {
		keys = append(keys, e.Key)
	}
	return keys
}

// Entries returns a copy of the entries in insertion order.
func (m *Map) Entries() []Pair {
	if m == nil {
		return nil
	}
	out := make([]Pair, len(m.entries))
	copy(out, m.entries)
	return out
}

// All iterates over the entries in insertion order.
func (m *Map) All() iter.Seq2[any, any] {
	return func(yield func(any, any) bool) {
		if m == nil {
			return
		}
		for _, e := range m.entries {
			if !yield(e.Key, e.Value) {
				return
			}
		}
	}
}

func (m *Map) find(key any) (int, bool) {
	if m == nil {
		return 0, false
	}
	if hk, ok := indexKey(key); ok {
		i, found := m.index[hk]
		return i, found
	}
	for i, e := range m.entries {
		if _, hashable := indexKey(e.Key); hashable {
			continue
		}
		if Equal(e.Key, key) {
			return i, true
		}
	}
	return 0, false
}

// elements backs Set and FrozenSet.
type elements struct {
	m Map
}

func (s *elements) add(v any) {
	s.m.Set(v, struct{}{})
}

func (s *elements) has(v any) bool {
	if s == nil {
		return false
	}
	return s.m.Has(v)
}

func (s *elements) len() int {
	if s == nil {
		return 0
	}
	return s.m.Len()
}

func (s *elements) values() []any {
	if s == nil {
		return nil
	}
	return s.m.Keys()
}

func (s *elements) all() iter.Seq[any] {
	return func(yield func(any) bool) {
		if s == nil {
			return
		}
		for _, e := range s.m.entries {
			if !yield(e.Key) {
				return
			}
		}
	}
}

// Set is a mutable collection of unique values. Iteration follows insertion
// order, which is also the order used on the wire.
type Set struct {
	elems elements
}

// NewSet returns a Set holding values.
func NewSet(values ...any) *Set {
	s := &Set{}
	for _, v := range values {
		s.elems.add(v)
	}
	return s
}

// Add inserts v if it is not already present.
func (s *Set) Add(v any) { s.elems.add(v) }

// Remove deletes v, returning true if it was present.
func (s *Set) Remove(v any) bool { return s.elems.m.Delete(v) }

// Has reports whether v is present.
func (s *Set) Has(v any) bool { return s != nil && s.elems.has(v) }

// Len returns the number of elements.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return s.elems.len()
}

// Values returns the elements in insertion order.
func (s *Set) Values() []any {
	if s == nil {
		return nil
	}
	return s.elems.values()
}

// All iterates over the elements.
func (s *Set) All() iter.Seq[any] {
	if s == nil {
		return func(func(any) bool) {}
	}
	return s.elems.all()
}

// Freeze returns an immutable copy of s.
func (s *Set) Freeze() *FrozenSet {
	return NewFrozenSet(s.Values()...)
}

// FrozenSet is an immutable set. It shares the payload layout of Set but
// keeps a distinct tag.
type FrozenSet struct {
	elems elements
}

// NewFrozenSet returns a FrozenSet holding values.
func NewFrozenSet(values ...any) *FrozenSet {
	s := &FrozenSet{}
	for _, v := range values {
		s.elems.add(v)
	}
	return s
}

// Has reports whether v is present.
func (s *FrozenSet) Has(v any) bool { return s != nil && s.elems.has(v) }

// Len returns the number of elements.
func (s *FrozenSet) Len() int {
	if s == nil {
		return 0
	}
	return s.elems.len()
}

// Values returns the elements in insertion order.
func (s *FrozenSet) Values() []any {
	if s == nil {
		return nil
	}
	return s.elems.values()
}

// All iterates over the elements.
func (s *FrozenSet) All() iter.Seq[any] {
	if s == nil {
		return func(func(any) bool) {}
	}
	return s.elems.all()
}

// Normalized index keys for values whose Go equality differs from value equality.
type (
	bigKey     string
	floatKey   uint64
	decimalKey string
	timeKey    struct {
		sec  int64
		nsec int
	}
)

func uintKey(u uint64) any {
	if u <= math.MaxInt64 {
		return int64(u)
	}
	return bigKey(strconv.FormatUint(u, 10))
}

// indexKey returns a hashable key equivalent to k under Equal.
func indexKey(k any) (any, bool) {
	switch v := k.(type) {
	case nil:
		return nil, true
	case bool, string, uuid.UUID:
		return v, true
	case float64:
		return floatKey(math.Float64bits(v)), true
	case float32:
		return floatKey(math.Float64bits(float64(v))), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint:
		return uintKey(uint64(v)), true
	case uint64:
		return uintKey(v), true
	case *big.Int:
		if v == nil {
			return nil, true
		}
		if v.IsInt64() {
			return v.Int64(), true
		}
		return bigKey(v.String()), true
	case *apd.Decimal:
		if v == nil {
			return nil, true
		}
		return decimalKey(v.String()), true
	case time.Time:
		return timeKey{sec: v.Unix(), nsec: v.Nanosecond()}, true
	case Tuple, []any, []byte, *Map, *Set, *FrozenSet:
		return nil, false
	}
	if t := reflect.TypeOf(k); t.Comparable() && t.Kind() != reflect.Interface {
		return k, true
	}
	return nil, false
}
