// Package wire defines the fastpack byte grammar: tag bytes, variable-length
// integers and the fixed-width payload helpers shared by every encoder.
//
// Every encoded value starts with exactly one tag byte. The payload that
// follows is fully determined by the tag:
//
//	0x00 null         none
//	0x01 false        none
//	0x02 true         none
//	0x03 int          zig-zag varint
//	0x04 float        8 bytes IEEE-754, little-endian
//	0x05 string       uvarint length, UTF-8 bytes
//	0x06 bytes        uvarint length, raw bytes
//	0x07 list         uvarint count, values
//	0x08 map          uvarint count, key/value pairs
//	0x09 set          uvarint count, values
//	0x0A frozenset    uvarint count, values
//	0x0B tuple        uvarint count, values
//	0x0C timestamp    int64 little-endian microseconds (UTC), zig-zag varint offset minutes
//	0x0D decimal      uvarint length, ASCII decimal text
//	0x0E uuid         16 bytes, RFC 4122 byte order
//	0x0F record       string namespace, string name, uvarint count, (string value, value) pairs
package wire

import "fmt"

// Tag identifies the variant of an encoded value.
type Tag byte

const (
	// Null encodes the absent value.
	Null Tag = 0x00

	// False encodes boolean false.
	False Tag = 0x01

	// True encodes boolean true.
	True Tag = 0x02

	// Int encodes a signed integer of arbitrary range.
	Int Tag = 0x03

	// Float encodes a 64-bit IEEE-754 double.
	Float Tag = 0x04

	// String encodes UTF-8 text.
	String Tag = 0x05

	// Bytes encodes a raw byte string.
	Bytes Tag = 0x06

	// List encodes an ordered, mutable sequence.
	List Tag = 0x07

	// Map encodes an insertion-ordered mapping.
	Map Tag = 0x08

	// Set encodes an unordered collection of unique values.
	Set Tag = 0x09

	// FrozenSet encodes an immutable set.
	FrozenSet Tag = 0x0A

	// Tuple encodes a fixed sequence.
	Tuple Tag = 0x0B

	// Timestamp encodes a point in time with its UTC offset.
	Timestamp Tag = 0x0C

	// Decimal encodes an exact base-10 number as text.
	Decimal Tag = 0x0D

	// UUID encodes a 128-bit identifier.
	UUID Tag = 0x0E

	// Record encodes a named structured record.
	Record Tag = 0x0F
)

// MaxBasic is the highest tag the primitive-only codec understands.
const MaxBasic = Map

// tagNames contains every defined tag, used for validation and display.
var tagNames = map[Tag]string{
	Null:      "null",
	False:     "false",
	True:      "true",
	Int:       "int",
	Float:     "float",
	String:    "string",
	Bytes:     "bytes",
	List:      "list",
	Map:       "map",
	Set:       "set",
	FrozenSet: "frozenset",
	Tuple:     "tuple",
	Timestamp: "timestamp",
	Decimal:   "decimal",
	UUID:      "uuid",
	Record:    "record",
}

// IsValid returns true if t is a defined tag.
func IsValid(t Tag) bool {
	_, ok := tagNames[t]
	return ok
}

// IsBasic returns true if t belongs to the primitive subset (0x00-0x08).
func IsBasic(t Tag) bool {
	return t <= MaxBasic
}

// IsContainer returns true if t is followed by a count of nested values.
func IsContainer(t Tag) bool {
	switch t {
	case List, Map, Set, FrozenSet, Tuple, Record:
		return true
	}
	return false
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tag(0x%02x)", byte(t))
}
