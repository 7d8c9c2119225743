package yaml

import (
	"math/big"
	"strings"
	"testing"
	"time"

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
	if c.ContentType() != "application/yaml" {
		t.Errorf("ContentType() = %q, want %q", c.ContentType(), "application/yaml")
	}
}

func TestMarshalUnmarshal(t *testing.T) {
	c := New()

	type TestStruct struct {
		Name  string `yaml:"name"`
		Value int    `yaml:"value"`
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

func TestUnmarshalInvalid(t *testing.T) {
	c := New()

	var v struct {
		Name string `yaml:"name"`
	}
	// YAML is very permissive, this should still parse as string
	err := c.Unmarshal([]byte("name: [invalid"), &v)
	if err == nil {
		t.Error("Unmarshal(invalid) should return error")
	}
}

func TestMarshalNil(t *testing.T) {
	c := New()

	data, err := c.Marshal(nil)
	if err != nil {
		t.Fatalf("Marshal(nil) error: %v", err)
	}

	// YAML represents nil as "null\n"
	if string(data) != "null\n" {
		t.Errorf("Marshal(nil) = %q, want %q", data, "null\n")
	}
}

// --- Malformed input tests ---

func TestUnmarshal_EmptyInput(t *testing.T) {
	c := New()

	var v struct {
		Name string `yaml:"name"`
	}
	// Empty input should not error in YAML (results in zero value)
	err := c.Unmarshal([]byte{}, &v)
	if err != nil {
		t.Errorf("Unmarshal(empty) error: %v", err)
	}
}

func TestUnmarshal_MalformedYAML(t *testing.T) {
	c := New()

	testCases := []struct {
		name  string
		input string
	}{
		{"bad indentation", "name: test\n  invalid: indentation"},
		{"unclosed quote", `name: "unterminated`},
		{"tab character in indentation", "name: test\n\t- invalid"},
		{"duplicate key mapping", "name: first\nname: second"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var v map[string]any
			err := c.Unmarshal([]byte(tc.input), &v)
			// Note: YAML is very permissive, some of these may not error
			// We're testing that they at least don't panic
			_ = err
		})
	}
}

func TestUnmarshal_TypeMismatch(t *testing.T) {
	c := New()

	type TestStruct struct {
		Value int `yaml:"value"`
	}

	testCases := []struct {
		name  string
		input string
	}{
		{"string for int", "value: not_a_number"},
		{"array for int", "value:\n  - 1\n  - 2"},
		{"map for int", "value:\n  nested: true"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var v TestStruct
			err := c.Unmarshal([]byte(tc.input), &v)
			if err == nil {
				t.Errorf("Unmarshal(%q) should return error for type mismatch", tc.input)
			}
		})
	}
}

func TestUnmarshal_NestedStructure(t *testing.T) {
	c := New()

	type Nested struct {
		Level int     `yaml:"level"`
		Child *Nested `yaml:"child"`
	}

	input := `level: 1
child:
  level: 2
  child:
    level: 3
    child: null`

	var v Nested
	err := c.Unmarshal([]byte(input), &v)
	if err != nil {
		t.Errorf("Unmarshal(nested) error: %v", err)
	}

	if v.Level != 1 || v.Child == nil || v.Child.Level != 2 {
		t.Error("Unmarshal(nested) did not correctly parse nested structure")
	}
}

func TestUnmarshal_Anchors(t *testing.T) {
	c := New()

	// YAML anchors and aliases
	input := `default: &default
  timeout: 30
  retries: 3
production:
  <<: *default
  timeout: 60`

	var v map[string]any
	err := c.Unmarshal([]byte(input), &v)
	if err != nil {
		t.Errorf("Unmarshal(anchors) error: %v", err)
	}

	prod, ok := v["production"].(map[string]any)
	if !ok {
		t.Fatal("production key not found or wrong type")
	}
	if prod["timeout"] != 60 {
		t.Errorf("production.timeout = %v, want 60", prod["timeout"])
	}
	if prod["retries"] != 3 {
		t.Errorf("production.retries = %v, want 3", prod["retries"])
	}
}

func TestMarshal_SpecialCharacters(t *testing.T) {
	c := New()

	type TestStruct struct {
		Text string `yaml:"text"`
	}

	testCases := []struct {
		name  string
		input string
	}{
		{"newline", "line1\nline2"},
		{"colon", "key: value"},
		{"unicode", "日本語テスト"},
		{"emoji", "hello 👋 world"},
		{"special chars", "#@!$%^&*()"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			original := TestStruct{Text: tc.input}
			data, err := c.Marshal(original)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}

			var restored TestStruct
			if err := c.Unmarshal(data, &restored); err != nil {
				t.Fatalf("Unmarshal() error: %v", err)
			}

			if restored.Text != original.Text {
				t.Errorf("round-trip failed for %q: got %q", tc.input, restored.Text)
			}
		})
	}
}

func TestUnmarshal_MultiDocument(t *testing.T) {
	c := New()

	// Multi-document YAML (only first document is parsed)
	input := `---
name: doc1
---
name: doc2`

	var v struct {
		Name string `yaml:"name"`
	}
	err := c.Unmarshal([]byte(input), &v)
	if err != nil {
		t.Errorf("Unmarshal(multi-doc) error: %v", err)
	}
	if v.Name != "doc1" {
		t.Errorf("Unmarshal(multi-doc) Name = %q, want %q", v.Name, "doc1")
	}
}

func TestMarshalOrderedMap(t *testing.T) {
	c := New()
	m := fastpack.MapOf("zeta", int64(1), "alpha", fastpack.Tuple{"a", int64(2)}, "mid", nil)

	data, err := c.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	want := "zeta: 1\nalpha:\n    - a\n    - 2\nmid: null\n"
	if string(data) != want {
		t.Errorf("Marshal() = %q, want %q", data, want)
	}
}

func TestMarshalExtendedTypes(t *testing.T) {
	c := New()
	id := uuid.MustParse("12345678-1234-5678-1234-567812345678")
	m := fastpack.MapOf(
		"id", id,
		"at", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		"raw", []byte("hi"),
	)

	data, err := c.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}

	for _, want := range []string{"id: 12345678-1234-5678-1234-567812345678", "at: 2024-01-15T10:30:00Z", "raw: !!binary aGk="} {
		if !strings.Contains(string(data), want) {
			t.Errorf("Marshal() = %q, missing %q", data, want)
		}
	}
}

func TestParseDocument_PreservesOrder(t *testing.T) {
	v, err := ParseDocument([]byte("b: 1\na: [x, 2.5, true]\nc: {d: null}\n"))
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}

	want := fastpack.MapOf(
		"b", int64(1),
		"a", []any{"x", 2.5, true},
		"c", fastpack.MapOf("d", nil),
	)
	if !fastpack.Equal(v, want) {
		t.Errorf("ParseDocument() = %#v, want %#v", v, want)
	}

	keys := v.(*fastpack.Map).Keys()
	if keys[0] != "b" || keys[1] != "a" || keys[2] != "c" {
		t.Errorf("keys = %v, want [b a c]", keys)
	}
}

func TestParseDocument_JSON(t *testing.T) {
	v, err := ParseDocument([]byte(`{"name":"Ana","age":30,"active":true}`))
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}
	want := fastpack.MapOf("name", "Ana", "age", int64(30), "active", true)
	if !fastpack.Equal(v, want) {
		t.Errorf("ParseDocument() = %#v, want %#v", v, want)
	}
}

func TestParseDocument_Scalars(t *testing.T) {
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)

	tests := []struct {
		input string
		want  any
	}{
		{"123456789012345678901234567890", huge},
		{"-7", int64(-7)},
		{"0x1f", int64(31)},
		{"!!binary aGk=", []byte("hi")},
		{`"42"`, "42"},
		{"~", nil},
		{"2024-01-15T10:30:00Z", time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDocument([]byte(tt.input))
			if err != nil {
				t.Fatalf("ParseDocument() error: %v", err)
			}
			if !fastpack.Equal(got, tt.want) {
				t.Errorf("ParseDocument(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDocument_Merge(t *testing.T) {
	input := `default: &default
  timeout: 30
  retries: 3
production:
  <<: *default
  timeout: 60`

	v, err := ParseDocument([]byte(input))
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}
	prod, _ := v.(*fastpack.Map).Get("production")
	want := fastpack.MapOf("timeout", int64(60), "retries", int64(3))
	if !fastpack.Equal(prod, want) {
		t.Errorf("production = %#v, want %#v", prod, want)
	}
}

func TestParseDocument_Empty(t *testing.T) {
	v, err := ParseDocument(nil)
	if err != nil {
		t.Fatalf("ParseDocument() error: %v", err)
	}
	if v != nil {
		t.Errorf("ParseDocument(nil) = %v, want nil", v)
	}
}

func TestUnmarshal_AnyTarget(t *testing.T) {
	c := New()
	var v any
	if err := c.Unmarshal([]byte("b: 1\na: 2\n"), &v); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	m, ok := v.(*fastpack.Map)
	if !ok {
		t.Fatalf("Unmarshal() produced %T, want *fastpack.Map", v)
	}
	if keys := m.Keys(); keys[0] != "b" {
		t.Errorf("keys = %v, want b first", keys)
	}
}

func TestRoundTripThroughLower(t *testing.T) {
	c := New()
	original := fastpack.MapOf("list", []any{int64(1), "two"}, "flag", false)

	data, err := c.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	var back any
	if err := c.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if !fastpack.Equal(back, original) {
		t.Errorf("round-trip = %#v, want %#v", back, original)
	}
}
