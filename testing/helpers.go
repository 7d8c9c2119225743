// Package testing provides test utilities for fastpack.
package testing

import (
	"testing"

	"github.com/zoobzio/fastpack"
)

// User is a plain record type with tagged fields.
type User struct {
	ID     int64  `pack:"id"`
	Name   string `pack:"name"`
	Email  string `pack:"email"`
	Active bool   `pack:"active"`
	Secret string `pack:"-"`
}

// Point implements Marshaler and Unmarshaler with a fixed identity.
type Point struct {
	X, Y int64
}

// RecordID implements fastpack.Identified.
func (Point) RecordID() fastpack.Identity {
	return fastpack.Identity{Namespace: "geometry", Name: "Point"}
}

// MarshalFields implements fastpack.Marshaler.
func (p Point) MarshalFields() ([]fastpack.Field, error) {
	return []fastpack.Field{{Name: "x", Value: p.X}, {Name: "y", Value: p.Y}}, nil
}

// UnmarshalFields implements fastpack.Unmarshaler.
func (p *Point) UnmarshalFields(fields []fastpack.Field) error {
	for _, f := range fields {
		n, _ := f.Value.(int64)
		switch f.Name {
		case "x":
			p.X = n
		case "y":
			p.Y = n
		}
	}
	return nil
}

// NewRegistry returns a registry holding User and Point.
func NewRegistry(tb testing.TB) *fastpack.Registry {
	tb.Helper()
	r := fastpack.NewRegistry()

	user, err := fastpack.StructEntry[User]()
	if err != nil {
		tb.Fatalf("StructEntry[User]() error: %v", err)
	}
	point, err := fastpack.MarshalerEntry[Point]()
	if err != nil {
		tb.Fatalf("MarshalerEntry[Point]() error: %v", err)
	}
	for _, e := range []fastpack.Entry{user, point} {
		if err := r.Register(e); err != nil {
			tb.Fatalf("Register(%s) error: %v", e.ID, err)
		}
	}
	return r
}

// MustPack encodes v with p or fails the test.
func MustPack(tb testing.TB, p *fastpack.Processor, v any) []byte {
	tb.Helper()
	data, err := p.Pack(v)
	if err != nil {
		tb.Fatalf("Pack(%#v) error: %v", v, err)
	}
	return data
}

// MustUnpack decodes data with p or fails the test.
func MustUnpack(tb testing.TB, p *fastpack.Processor, data []byte) any {
	tb.Helper()
	v, err := p.Unpack(data)
	if err != nil {
		tb.Fatalf("Unpack(% x) error: %v", data, err)
	}
	return v
}

// AssertRoundTrip packs v, unpacks it, and checks the result is Equal to want.
func AssertRoundTrip(tb testing.TB, p *fastpack.Processor, v, want any) {
	tb.Helper()
	got := MustUnpack(tb, p, MustPack(tb, p, v))
	if !fastpack.Equal(got, want) {
		tb.Errorf("round-trip of %#v = %#v, want %#v", v, got, want)
	}
}
