// Package msgpack provides a MessagePack codec implementation.
//
// Marshal lowers fastpack values first: *fastpack.Map encodes as an ordered
// map, tuples and sets as arrays, and values MessagePack has no type for
// (big integers, decimals, UUIDs) as their canonical text.
package msgpack

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/zoobzio/fastpack"
)

// msgpackCodec implements fastpack.Codec for MessagePack.
type msgpackCodec struct{}

// New returns a MessagePack codec.
func New() fastpack.Codec {
	return &msgpackCodec{}
}

// ContentType returns the MIME type for MessagePack.
func (c *msgpackCodec) ContentType() string {
	return "application/msgpack"
}

// Marshal encodes v as MessagePack.
func (c *msgpackCodec) Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(Lower(v))
}

// Unmarshal decodes MessagePack data into v.
func (c *msgpackCodec) Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// orderedMap encodes its entries in order.
type orderedMap []entry

type entry struct {
	key   any
	value any
}

var _ msgpack.CustomEncoder = orderedMap(nil)

// EncodeMsgpack writes the map header followed by each key and value.
func (m orderedMap) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(len(m)); err != nil {
		return err
	}
	for _, e := range m {
		if err := enc.Encode(e.key); err != nil {
			return err
		}
		if err := enc.Encode(e.value); err != nil {
			return err
		}
	}
	return nil
}

// Lower converts fastpack values into values msgpack encodes faithfully.
func Lower(v any) any {
	switch v := v.(type) {
	case *fastpack.Map:
		if v == nil {
			return nil
		}
		m := make(orderedMap, 0, v.Len())
		for k, val := range v.All() {
			m = append(m, entry{key: Lower(k), value: Lower(val)})
		}
		return m
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
		if v.IsInt64() {
			return v.Int64()
		}
		if v.IsUint64() {
			return v.Uint64()
		}
		return v.String()
	case *apd.Decimal:
		if v == nil {
			return nil
		}
		return v.String()
	case uuid.UUID:
		return v.String()
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

func lowerRecord(r fastpack.Record) orderedMap {
	m := make(orderedMap, 0, len(r.Fields)+2)
	m = append(m,
		entry{key: fastpack.MarkerName, value: r.ID.Name},
		entry{key: fastpack.MarkerNamespace, value: r.ID.Namespace},
	)
	for _, f := range r.Fields {
		m = append(m, entry{key: f.Name, value: Lower(f.Value)})
	}
	return m
}
