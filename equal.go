package fastpack

import (
	"bytes"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Equal reports whether a and b denote the same value in the fastpack value
// model.
//
// Integers compare numerically regardless of Go width, so int(1), uint8(1)
// and big.NewInt(1) are equal. Floats compare by bit pattern after widening,
// which makes NaN equal to itself and keeps 0.0 apart from -0.0. Mappings and
// sets ignore order. A list never equals a tuple, and a set never equals a
// frozenset.
func Equal(a, b any) bool {
	if ai, ok := integerOf(a); ok {
		bi, ok := integerOf(b)
		return ok && ai.Cmp(bi) == 0
	}
	if af, ok := floatOf(a); ok {
		bf, ok := floatOf(b)
		return ok && math.Float64bits(af) == math.Float64bits(bf)
	}

	switch av := a.(type) {
	case nil:
		return b == nil
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case []any:
		bv, ok := b.([]any)
		return ok && equalSeq(av, bv)
	case Tuple:
		bv, ok := b.(Tuple)
		return ok && equalSeq(av, bv)
	case *Map:
		bv, ok := b.(*Map)
		return ok && equalMap(av, bv)
	case *Set:
		bv, ok := b.(*Set)
		return ok && equalElems(&av.elems, &bv.elems)
	case *FrozenSet:
		bv, ok := b.(*FrozenSet)
		return ok && equalElems(&av.elems, &bv.elems)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case *apd.Decimal:
		bv, ok := b.(*apd.Decimal)
		if !ok || av == nil || bv == nil {
			return ok && av == bv
		}
		return av.String() == bv.String()
	case Record:
		switch bv := b.(type) {
		case Record:
			return equalRecord(av, bv)
		case *Record:
			return bv != nil && equalRecord(av, *bv)
		}
		return false
	case *Record:
		if av == nil {
			return b == nil
		}
		return Equal(*av, b)
	}
	return reflect.DeepEqual(a, b)
}

func equalSeq(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func equalMap(a, b *Map) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Len() != b.Len() {
		return false
	}
	for _, e := range a.entries {
		v, ok := b.Get(e.Key)
		if !ok || !Equal(e.Value, v) {
			return false
		}
	}
	return true
}

func equalElems(a, b *elements) bool {
	if a.len() != b.len() {
		return false
	}
	for _, e := range a.m.entries {
		if !b.has(e.Key) {
			return false
		}
	}
	return true
}

func equalRecord(a, b Record) bool {
	if a.ID != b.ID || len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if a.Fields[i].Name != b.Fields[i].Name || !Equal(a.Fields[i].Value, b.Fields[i].Value) {
			return false
		}
	}
	return true
}

// integerOf widens any Go integer to a big.Int.
func integerOf(v any) (*big.Int, bool) {
	switch n := v.(type) {
	case *big.Int:
		if n == nil {
			return nil, false
		}
		return n, true
	case int:
		return big.NewInt(int64(n)), true
	case int8:
		return big.NewInt(int64(n)), true
	case int16:
		return big.NewInt(int64(n)), true
	case int32:
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case uint:
		return new(big.Int).SetUint64(uint64(n)), true
	case uint8:
		return big.NewInt(int64(n)), true
	case uint16:
		return big.NewInt(int64(n)), true
	case uint32:
		return big.NewInt(int64(n)), true
	case uint64:
		return new(big.Int).SetUint64(n), true
	}
	return nil, false
}

func floatOf(v any) (float64, bool) {
	switch f := v.(type) {
	case float64:
		return f, true
	case float32:
		return float64(f), true
	}
	return 0, false
}
