package bson

import (
	"math/big"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

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
	if c.ContentType() != "application/bson" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/bson")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	type TestStruct struct {
		Name  string `bson:"name"`
		Value int    `bson:"value"`
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

func TestMarshalScalar(t *testing.T) {
	c := New()

	data, err := c.Marshal("hello")
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var s string
	if err := c.Unmarshal(data, &s); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if s != "hello" {
		t.Errorf("Unmarshal() = %q, want %q", s, "hello")
	}
}

func TestMarshalOrderedMap(t *testing.T) {
	c := New()
	m := fastpack.MapOf("zeta", int64(1), "alpha", fastpack.Tuple{"a", true})

	data, err := c.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	var back bson.D
	if err := c.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if len(back) != 2 || back[0].Key != "zeta" || back[1].Key != "alpha" {
		t.Errorf("Unmarshal() = %v, want keys [zeta alpha]", back)
	}
}

func TestLowerExtendedTypes(t *testing.T) {
	dec, _, _ := apd.NewFromString("12.345")
	id := uuid.MustParse("12345678-1234-5678-1234-567812345678")
	at := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	if got, ok := Lower(dec).(primitive.Decimal128); !ok || got.String() != "12.345" {
		t.Errorf("Lower(decimal) = %v", Lower(dec))
	}
	if got, ok := Lower(huge).(primitive.Decimal128); !ok || got.String() != huge.String() {
		t.Errorf("Lower(big) = %v", Lower(huge))
	}
	if got, ok := Lower(id).(primitive.Binary); !ok || got.Subtype != bson.TypeBinaryUUID || len(got.Data) != 16 {
		t.Errorf("Lower(uuid) = %v", Lower(id))
	}
	if got, ok := Lower(at).(primitive.DateTime); !ok || !got.Time().Equal(at) {
		t.Errorf("Lower(time) = %v", Lower(at))
	}
	if got := Lower(big.NewInt(5)); got != int64(5) {
		t.Errorf("Lower(small big) = %v, want 5", got)
	}
}

func TestLowerRecord(t *testing.T) {
	r := fastpack.Record{
		ID:     fastpack.Identity{Namespace: "app", Name: "Point"},
		Fields: []fastpack.Field{{Name: "x", Value: int64(1)}},
	}
	d, ok := Lower(r).(bson.D)
	if !ok {
		t.Fatalf("Lower(record) = %T, want bson.D", Lower(r))
	}
	if d[0].Key != fastpack.MarkerName || d[0].Value != "Point" {
		t.Errorf("first entry = %v", d[0])
	}
	if d[2].Key != "x" || d[2].Value != int64(1) {
		t.Errorf("field entry = %v", d[2])
	}
}

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	var v struct{}
	err := c.Unmarshal([]byte("invalid bson"), &v)
	if err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}
