// Package json provides a JSON codec implementation.
//
// Marshal lowers fastpack values onto the JSON model: *fastpack.Map keeps its
// key order, tuples and sets become arrays, decimals and UUIDs become strings
// and records become objects led by the fastpack marker keys. Everything else
// is handed to go-json unchanged.
package json

import (
	"bytes"
	"fmt"
	"math/big"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/zoobzio/fastpack"
)

// jsonCodec implements fastpack.Codec for JSON.
type jsonCodec struct {
	indent string
}

// New returns a JSON codec.
func New() fastpack.Codec {
	return &jsonCodec{}
}

// NewIndent returns a JSON codec that indents nested values with indent.
func NewIndent(indent string) fastpack.Codec {
	return &jsonCodec{indent: indent}
}

// ContentType returns the MIME type for JSON.
func (c *jsonCodec) ContentType() string {
	return "application/json"
}

// Marshal encodes v as JSON.
func (c *jsonCodec) Marshal(v any) ([]byte, error) {
	lowered := Lower(v)
	if c.indent != "" {
		return json.MarshalIndent(lowered, "", c.indent)
	}
	return json.Marshal(lowered)
}

// Unmarshal decodes JSON data into v.
func (c *jsonCodec) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// object is an ordered JSON object.
type object []member

type member struct {
	key   string
	value any
}

// MarshalJSON writes the members in order.
func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(m.value)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", m.key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Lower converts fastpack values into values go-json encodes faithfully.
func Lower(v any) any {
	switch v := v.(type) {
	case *fastpack.Map:
		if v == nil {
			return nil
		}
		obj := make(object, 0, v.Len())
		for k, val := range v.All() {
			obj = append(obj, member{key: keyString(k), value: Lower(val)})
		}
		return obj
	case []any:
		if v == nil {
			return nil
		}
		return lowerAll(v)
	case fastpack.Tuple:
		return lowerAll(v)
	case *fastpack.Set:
		return lowerAll(v.Values())
	case *fastpack.FrozenSet:
		return lowerAll(v.Values())
	case *big.Int:
		if v == nil {
			return nil
		}
		return json.Number(v.String())
	case *apd.Decimal:
		if v == nil {
			return nil
		}
		return v.String()
	case uuid.UUID:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case fastpack.Record:
		return lowerRecord(v)
	case *fastpack.Record:
		if v == nil {
			return nil
		}
		return lowerRecord(*v)
	}
	return v
}

func lowerAll(items []any) []any {
	out := make([]any, len(items))
	for i, item := range items {
		out[i] = Lower(item)
	}
	return out
}

func lowerRecord(r fastpack.Record) object {
	obj := make(object, 0, len(r.Fields)+2)
	obj = append(obj,
		member{key: fastpack.MarkerName, value: r.ID.Name},
		member{key: fastpack.MarkerNamespace, value: r.ID.Namespace},
	)
	for _, f := range r.Fields {
		obj = append(obj, member{key: f.Name, value: Lower(f.Value)})
	}
	return obj
}

// keyString renders a mapping key as a JSON object key.
func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(Lower(k))
}
