package fastpack

// Override interfaces allow record types to bypass reflection-based field
// discovery. When a type implements one of these interfaces, the Processor
// calls the interface method instead of enumerating struct fields.
//
// These interfaces are designed for codegen: a generator can emit the field
// projection for a type once, replacing the reflective layout at runtime.

// Marshaler projects a value into ordered record fields.
// Types implementing Marshaler encode as records with no registration.
type Marshaler interface {
	// MarshalFields returns the record fields in wire order.
	MarshalFields() ([]Field, error)
}

// Unmarshaler rebuilds a value from ordered record fields.
// Implement it on the pointer receiver and register the type with
// MarshalerEntry so decode can construct it.
type Unmarshaler interface {
	// UnmarshalFields populates the receiver from fields in wire order.
	UnmarshalFields(fields []Field) error
}

// Identified overrides the identity derived from a type's package path and
// name. Implement it on the value receiver; it is called on the zero value.
type Identified interface {
	// RecordID returns the namespace and name written to the wire.
	RecordID() Identity
}
