package msgpack

import (
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

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
	if c.ContentType() != "application/msgpack" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/msgpack")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	type TestStruct struct {
		Name  string `msgpack:"name"`
		Value int    `msgpack:"value"`
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

func TestMarshalBinary(t *testing.T) {
	c := New()

	data, err := c.Marshal(map[string]int{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	// MessagePack is binary, should not be valid UTF-8 JSON
	if data[0] == '{' {
		t.Error("MessagePack output should be binary, not JSON")
	}
}

func TestMarshalOrderedMap(t *testing.T) {
	c := New()
	m := fastpack.MapOf("zeta", true, "alpha", false)

	data, err := c.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	// fixmap(2), fixstr "zeta", true, fixstr "alpha", false
	want := []byte{0x82, 0xa4, 'z', 'e', 't', 'a', 0xc3, 0xa5, 'a', 'l', 'p', 'h', 'a', 0xc2}
	if string(data) != string(want) {
		t.Errorf("Marshal() = % x, want % x", data, want)
	}
}

func TestMarshalExtendedTypes(t *testing.T) {
	c := New()
	dec, _, _ := apd.NewFromString("1.50")
	huge, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)
	id := uuid.MustParse("12345678-1234-5678-1234-567812345678")
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

	v := []any{dec, huge, id, fastpack.Tuple{int64(1)}, fastpack.NewFrozenSet("x"), at}
	data, err := c.Marshal(v)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var back []any
	if err := msgpack.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(back) != 6 {
		t.Fatalf("len = %d, want 6", len(back))
	}
	if back[0] != "1.50" {
		t.Errorf("decimal = %v, want 1.50", back[0])
	}
	if back[1] != huge.String() {
		t.Errorf("big = %v, want %s", back[1], huge)
	}
	if back[2] != id.String() {
		t.Errorf("uuid = %v, want %s", back[2], id)
	}
	if got, ok := back[5].(time.Time); !ok || !got.Equal(at) {
		t.Errorf("time = %v, want %v", back[5], at)
	}
}

func TestMarshalRecord(t *testing.T) {
	c := New()
	r := &fastpack.Record{
		ID:     fastpack.Identity{Namespace: "app", Name: "Point"},
		Fields: []fastpack.Field{{Name: "x", Value: int64(1)}},
	}

	data, err := c.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var back map[string]any
	if err := c.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if back[fastpack.MarkerName] != "Point" || back[fastpack.MarkerNamespace] != "app" {
		t.Errorf("markers = %v", back)
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	var v struct{}
	err := c.Unmarshal([]byte("not msgpack"), &v)
	if err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}
