package json

import (
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"

	"github.com/zoobzio/fastpack"
)

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Error("New() should return non-nil codec")
	}
}

func TestContentType(t *testing.T) {
	c := New()
	if c.ContentType() != "application/json" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/json")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	type TestStruct struct {
		Name  string `json:"name"`
		Value int    `json:"value"`
	}

	original := TestStruct{Name: "test", Value: 42}

	data, err := c.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var restored TestStruct
	if err := c.Unmarshal(data, &restored); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}

	if restored.Name != original.Name || restored.Value != original.Value {
		t.Errorf("round-trip failed: got %+v, want %+v", restored, original)
	}
}

func TestMarshalNil(t *testing.T) {
	c := New()

	data, err := c.Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal(nil) error: %v", err)
	}

	if string(data) != "null" {
		t.Errorf("Marshal(nil) = %q, want %q", data, "null")
	}
}

func TestMarshalOrderedMap(t *testing.T) {
	c := New()
	m := fastpack.MapOf("name", "Ana", "age", int64(30), "active", true)

	data, err := c.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"name":"Ana","age":30,"active":true}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestMarshalExtendedTypes(t *testing.T) {
	c := New()
	dec, _, err := apd.NewFromString("3.14159")
	if err != nil {
		t.Fatalf("NewFromString() error: %v", err)
	}
	id := uuid.MustParse("12345678-1234-5678-1234-567812345678")
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	v := fastpack.MapOf(
		"dec", dec,
		"id", id,
		"tuple", fastpack.Tuple{int64(1), int64(2)},
		"set", fastpack.NewSet("a"),
		"at", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"big", huge,
		int64(7), "seven",
	)

	data, err := c.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"dec":"3.14159","id":"12345678-1234-5678-1234-567812345678","tuple":[1,2],"set":["a"],` +
		`"at":"2024-01-15T10:30:00Z","big":123456789012345678901234567890,"7":"seven"}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestMarshalRecord(t *testing.T) {
	c := New()
	r := fastpack.Record{
		ID:     fastpack.Identity{Namespace: "app", Name: "Point"},
		Fields: []fastpack.Field{{Name: "x", Value: int64(1)}},
	}

	data, err := c.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := `{"__record__":"Point","__namespace__":"app","x":1}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestNewIndent(t *testing.T) {
	c := NewIndent("  ")
	data, err := c.Marshal([]any{int64(1)})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if string(data) != "[\n  1\n]" {
		t.Errorf("Marshal() = %q", data)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	var v struct{}
	err := c.Unmarshal([]byte("invalid json"), &v)
	if err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}
