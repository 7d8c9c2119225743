// Package bson provides a BSON codec implementation.
//
// BSON documents must be maps at the top level, so every value is wrapped as
// the single field "v" and unwrapped again by Unmarshal. Marshal lowers
// fastpack values first: *fastpack.Map becomes an ordered bson.D, decimals
// and wide integers become Decimal128 and UUIDs become binary subtype 4.
package bson

import (
	"fmt"
	"math/big"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zoobzio/fastpack"
)

// wrapKey is the field holding the encoded value.
const wrapKey = "v"

// bsonCodec implements fastpack.Codec for BSON.
type bsonCodec struct{}

// New returns a BSON codec.
func New() fastpack.Codec {
	return &bsonCodec{}
}

// ContentType returns the MIME type for BSON.
func (c *bsonCodec) ContentType() string {
	return "application/bson"
}

// Marshal encodes v as BSON.
func (c *bsonCodec) Marshal(v any) ([]byte, error) {
	return bson.Marshal(bson.D{{Key: wrapKey, Value: Lower(v)}})
}

// Unmarshal decodes BSON data into v.
func (c *bsonCodec) Unmarshal(data []byte, v any) error {
	var doc struct {
		V bson.RawValue `bson:"v"`
	}
	if err := bson.Unmarshal(data, &doc); err != nil {
		return err
	}
	if doc.V.Type == 0 {
		return fmt.Errorf("bson: document has no %q field", wrapKey)
	}
	return doc.V.Unmarshal(v)
}

// Lower converts fastpack values into values the BSON encoder understands.
func Lower(v any) any {
	switch v := v.(type) {
	case *fastpack.Map:
		if v == nil {
			return nil
		}
		d := make(bson.D, 0, v.Len())
		for k, val := range v.All() {
			d = append(d, bson.E{Key: keyString(k), Value: Lower(val)})
		}
		return d
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
	case []byte:
		return primitive.Binary{Subtype: bson.TypeBinaryGeneric, Data: v}
	case *big.Int:
		if v == nil {
			return nil
		}
		if v.IsInt64() {
			return v.Int64()
		}
		return decimal128(v.String())
	case *apd.Decimal:
		if v == nil {
			return nil
		}
		return decimal128(v.String())
	case uuid.UUID:
		return primitive.Binary{Subtype: bson.TypeBinaryUUID, Data: v[:]}
	case time.Time:
		return primitive.NewDateTimeFromTime(v)
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

func lowerAll(items []any) bson.A {
	out := make(bson.A, len(items))
	for i, item := range items {
		out[i] = Lower(item)
	}
	return out
}

func lowerRecord(r fastpack.Record) bson.D {
	d := make(bson.D, 0, len(r.Fields)+2)
	d = append(d,
		bson.E{Key: fastpack.MarkerName, Value: r.ID.Name},
		bson.E{Key: fastpack.MarkerNamespace, Value: r.ID.Namespace},
	)
	for _, f := range r.Fields {
		d = append(d, bson.E{Key: f.Name, Value: Lower(f.Value)})
	}
	return d
}

// decimal128 parses s, keeping the text when it exceeds Decimal128 precision.
func decimal128(s string) any {
	d, err := primitive.ParseDecimal128(s)
	if err != nil {
		return s
	}
	return d
}

func keyString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	return fmt.Sprint(k)
}
