package fastpack

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/zoobzio/sentinel"
)

// EncodeFunc projects a value of a registered type into record fields.
type EncodeFunc func(v any) ([]Field, error)

// DecodeFunc rebuilds a value of a registered type from record fields.
type DecodeFunc func(fields []Field) (any, error)

// Entry binds a Go type to a wire identity and its field projection.
type Entry struct {
	Type   reflect.Type
	ID     Identity
	Encode EncodeFunc
	Decode DecodeFunc
}

// Registry maps record types to their encode and decode functions.
//
// Encode looks entries up by concrete Go type, decode by wire identity.
// Lookups may run concurrently with each other; Register and Clear are
// exclusive with all access.
//
// Re-registering an identity for the same Go type replaces the entry.
// Binding an identity that already belongs to another Go type, or a Go type
// that already carries another identity, fails with ErrRegistryConflict.
type Registry struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Entry
	byID   map[Identity]Entry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byType: make(map[reflect.Type]Entry),
		byID:   make(map[Identity]Entry),
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the registry shared by the package-level functions.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register stores e, replacing any entry for the same type and identity.
func (r *Registry) Register(e Entry) error {
	if e.Type == nil || e.ID.Name == "" || e.Encode == nil || e.Decode == nil {
		return fmt.Errorf("%w: type, identity name, encode and decode are required", ErrInvalidEntry)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byID[e.ID]; ok && existing.Type != e.Type {
		return &RegistryError{
			Err:      ErrRegistryConflict,
			ID:       e.ID,
			Type:     e.Type.String(),
			Existing: existing.Type.String(),
		}
	}
	if existing, ok := r.byType[e.Type]; ok && existing.ID != e.ID {
		return &RegistryError{
			Err:      ErrRegistryConflict,
			ID:       e.ID,
			Type:     e.Type.String(),
			Existing: existing.ID.String(),
		}
	}

	r.byType[e.Type] = e
	r.byID[e.ID] = e

	emitRegistered(context.Background(), e.ID, e.Type.String())
	return nil
}

// Clear removes every entry.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := len(r.byID)
	r.byType = make(map[reflect.Type]Entry)
	r.byID = make(map[Identity]Entry)
	emitRegistryCleared(context.Background(), removed)
}

// Len returns the number of registered identities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// LookupType returns the entry registered for Go type t.
func (r *Registry) LookupType(t reflect.Type) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byType[t]
	return e, ok
}

// LookupID returns the entry registered for identity id.
func (r *Registry) LookupID(id Identity) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byID[id]
	return e, ok
}

// Entries returns all entries ordered by identity.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	entries := make([]Entry, 0, len(r.byID))
	for _, e := range r.byID {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ID.String() < entries[j].ID.String()
	})
	return entries
}

// EntryFor builds an Entry for T from typed projection functions.
// A zero id is derived with IdentityOf.
func EntryFor[T any](id Identity, encode func(T) ([]Field, error), decode func([]Field) (T, error)) Entry {
	typ := reflect.TypeFor[T]()
	if id.IsZero() {
		id = IdentityOf(typ)
	}
	e := Entry{Type: typ, ID: id}
	if encode != nil {
		e.Encode = func(v any) ([]Field, error) {
			t, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, v, typ)
			}
			return encode(t)
		}
	}
	if decode != nil {
		e.Decode = func(fields []Field) (any, error) {
			return decode(fields)
		}
	}
	return e
}

// StructEntry builds a reflection-derived Entry for struct type T. Fields are
// listed in declaration order and decode assigns them back by name.
func StructEntry[T any]() (Entry, error) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return Entry{}, fmt.Errorf("%w: %s is not a struct", ErrInvalidEntry, typ)
	}

	// Warm sentinel's metadata cache so layouts honor registered tags.
	sentinel.Scan[T]()
	layout := layoutOf(typ)
	if err := layout.opaque(); err != nil {
		return Entry{}, fmt.Errorf("%w: %s has %v", ErrInvalidEntry, typ, err)
	}

	return Entry{
		Type: typ,
		ID:   layout.id,
		Encode: func(v any) ([]Field, error) {
			return layout.project(reflect.ValueOf(v)), nil
		},
		Decode: func(fields []Field) (any, error) {
			var t T
			if err := layout.populate(reflect.ValueOf(&t).Elem(), fields); err != nil {
				return nil, err
			}
			return t, nil
		},
	}, nil
}

// MarshalerEntry builds an Entry for T using its Marshaler and Unmarshaler
// implementations. *T must implement Unmarshaler; T or *T must implement
// Marshaler.
func MarshalerEntry[T any]() (Entry, error) {
	typ := reflect.TypeFor[T]()
	if !reflect.PointerTo(typ).Implements(unmarshalerType) {
		return Entry{}, fmt.Errorf("%w: *%s does not implement Unmarshaler", ErrInvalidEntry, typ)
	}
	if !typ.Implements(marshalerType) && !reflect.PointerTo(typ).Implements(marshalerType) {
		return Entry{}, fmt.Errorf("%w: %s does not implement Marshaler", ErrInvalidEntry, typ)
	}

	return Entry{
		Type: typ,
		ID:   IdentityOf(typ),
		Encode: func(v any) ([]Field, error) {
			t, ok := v.(T)
			if !ok {
				return nil, fmt.Errorf("%w: got %T, want %s", ErrTypeMismatch, v, typ)
			}
			if m, ok := any(t).(Marshaler); ok {
				return m.MarshalFields()
			}
			return any(&t).(Marshaler).MarshalFields()
		},
		Decode: func(fields []Field) (any, error) {
			var t T
			if err := any(&t).(Unmarshaler).UnmarshalFields(fields); err != nil {
				return nil, err
			}
			return t, nil
		},
	}, nil
}

var (
	marshalerType   = reflect.TypeFor[Marshaler]()
	unmarshalerType = reflect.TypeFor[Unmarshaler]()
)

// Register binds T in the default registry using custom projection functions.
func Register[T any](id Identity, encode func(T) ([]Field, error), decode func([]Field) (T, error)) error {
	return defaultRegistry.Register(EntryFor(id, encode, decode))
}

// RegisterStruct binds struct type T in the default registry using
// reflection-derived field projection.
func RegisterStruct[T any]() error {
	e, err := StructEntry[T]()
	if err != nil {
		return err
	}
	return defaultRegistry.Register(e)
}

// RegisterMarshaler binds T in the default registry using its Marshaler and
// Unmarshaler implementations.
func RegisterMarshaler[T any]() error {
	e, err := MarshalerEntry[T]()
	if err != nil {
		return err
	}
	return defaultRegistry.Register(e)
}

// ClearRegistry removes every entry from the default registry.
func ClearRegistry() {
	defaultRegistry.Clear()
}
