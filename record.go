package fastpack

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/zoobzio/sentinel"
)

// TagName is the struct tag consulted for record field names.
// `pack:"id"` renames a field, `pack:"-"` skips it.
const TagName = "pack"

// Marker keys prepended to the map produced for records whose identity is
// not registered in the decoding process.
const (
	MarkerName      = "__record__"
	MarkerNamespace = "__namespace__"
)

func init() {
	sentinel.Tag(TagName)
}

// Identity names a record type on the wire.
type Identity struct {
	Namespace string
	Name      string
}

func (id Identity) String() string {
	if id.Namespace == "" {
		return id.Name
	}
	return id.Namespace + "." + id.Name
}

// IsZero reports whether id has neither namespace nor name.
func (id Identity) IsZero() bool {
	return id.Namespace == "" && id.Name == ""
}

// IdentityOf derives the wire identity of a Go type: the package path as
// namespace and the type name as name, unless the type implements Identified.
func IdentityOf(t reflect.Type) Identity {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Implements(identifiedType) {
		return reflect.Zero(t).Interface().(Identified).RecordID()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}
	return Identity{Namespace: t.PkgPath(), Name: name}
}

var identifiedType = reflect.TypeFor[Identified]()

// Field is one named value of a record.
type Field struct {
	Name  string
	Value any
}

// Record is a generic structured record. It encodes with the record tag
// without any registration.
type Record struct {
	ID     Identity
	Fields []Field
}

// Get returns the value of the first field called name.
func (r Record) Get(name string) (any, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return nil, false
}

// recordLayout describes how a struct type maps to record fields.
type recordLayout struct {
	typ    reflect.Type
	id     Identity
	fields []layoutField
	byName map[string]int

	// hidden names the first unexported field not tagged pack:"-". Such
	// state cannot be projected, so the type is not encodable by reflection.
	hidden string
}

// layoutField describes a single struct field.
type layoutField struct {
	name  string // wire name
	index []int  // reflect.Value.FieldByIndex access path
}

var layouts sync.Map // reflect.Type -> *recordLayout

// layoutOf returns the cached layout for struct type t.
func layoutOf(t reflect.Type) *recordLayout {
	if cached, ok := layouts.Load(t); ok {
		return cached.(*recordLayout)
	}
	layout := buildLayout(t)
	actual, _ := layouts.LoadOrStore(t, layout)
	return actual.(*recordLayout)
}

// buildLayout scans t using sentinel metadata when available.
func buildLayout(t reflect.Type) *recordLayout {
	meta, ok := sentinel.Lookup(t.String())
	if !ok {
		meta = scanStruct(t)
	}

	layout := &recordLayout{
		typ:    t,
		id:     IdentityOf(t),
		fields: make([]layoutField, 0, len(meta.Fields)),
		byName: make(map[string]int, len(meta.Fields)),
		hidden: hiddenField(t),
	}

	for _, field := range meta.Fields {
		if !t.FieldByIndex(field.Index).IsExported() {
			continue
		}
		name := field.Name
		if val, ok := field.Tags[TagName]; ok {
			if val == "-" {
				continue
			}
			if val != "" {
				name = val
			}
		}
		if _, dup := layout.byName[name]; dup {
			continue
		}
		layout.byName[name] = len(layout.fields)
		layout.fields = append(layout.fields, layoutField{
			name:  name,
			index: append([]int{}, field.Index...),
		})
	}

	return layout
}

// hiddenField returns the name of the first unexported field of t that is
// not explicitly skipped, or "" when every field is reachable.
func hiddenField(t reflect.Type) string {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.IsExported() || sf.Tag.Get(TagName) == "-" {
			continue
		}
		return sf.Name
	}
	return ""
}

// opaque reports the unexported field that makes the layout unusable.
func (l *recordLayout) opaque() error {
	if l.hidden == "" {
		return nil
	}
	return fmt.Errorf("unexported field %s", l.hidden)
}

// scanStruct builds metadata for a struct type sentinel has not seen.
func scanStruct(rt reflect.Type) sentinel.Metadata {
	meta := sentinel.Metadata{
		TypeName:    rt.Name(),
		PackageName: rt.PkgPath(),
		Fields:      make([]sentinel.FieldMetadata, 0, rt.NumField()),
	}

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() {
			continue
		}

		fm := sentinel.FieldMetadata{
			Name:        sf.Name,
			Type:        sf.Type.String(),
			ReflectType: sf.Type,
			Index:       sf.Index,
			Tags:        map[string]string{},
		}
		if val, ok := sf.Tag.Lookup(TagName); ok {
			fm.Tags[TagName] = val
		}

		switch sf.Type.Kind() {
		case reflect.Struct:
			fm.Kind = sentinel.KindStruct
		case reflect.Ptr:
			fm.Kind = sentinel.KindPointer
		case reflect.Slice, reflect.Array:
			fm.Kind = sentinel.KindSlice
		case reflect.Map:
			fm.Kind = sentinel.KindMap
		case reflect.Interface:
			fm.Kind = sentinel.KindInterface
		default:
			fm.Kind = sentinel.KindScalar
		}

		meta.Fields = append(meta.Fields, fm)
	}

	return meta
}

// project lists the fields of struct value rv in declaration order.
func (l *recordLayout) project(rv reflect.Value) []Field {
	fields := make([]Field, 0, len(l.fields))
	for _, f := range l.fields {
		fv, err := rv.FieldByIndexErr(f.index)
		if err != nil {
			// Promoted through a nil embedded pointer.
			fields = append(fields, Field{Name: f.name})
			continue
		}
		fields = append(fields, Field{Name: f.name, Value: fv.Interface()})
	}
	return fields
}

// populate assigns fields into struct value rv. Unknown names are ignored.
func (l *recordLayout) populate(rv reflect.Value, fields []Field) error {
	for _, f := range fields {
		i, ok := l.byName[f.Name]
		if !ok {
			continue
		}
		dst := fieldForWrite(rv, l.fields[i].index)
		if err := assign(dst, f.Value); err != nil {
			return &FieldError{Field: f.Name, Err: err}
		}
	}
	return nil
}

// fieldForWrite navigates index, allocating nil embedded pointers.
func fieldForWrite(rv reflect.Value, index []int) reflect.Value {
	current := rv
	for i, idx := range index {
		if i > 0 && current.Kind() == reflect.Pointer {
			if current.IsNil() {
				current.Set(reflect.New(current.Type().Elem()))
			}
			current = current.Elem()
		}
		current = current.Field(idx)
	}
	return current
}
