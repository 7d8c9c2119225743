package fastpack

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
)

// assign stores decoded value v into dst, converting between the decoded
// value model and the Go type of dst.
func assign(dst reflect.Value, v any) error {
	if v == nil {
		dst.SetZero()
		return nil
	}

	src := reflect.ValueOf(v)
	typ := dst.Type()

	if src.Type().AssignableTo(typ) {
		if b, ok := v.([]byte); ok {
			v = append([]byte(nil), b...)
			src = reflect.ValueOf(v)
		}
		dst.Set(src)
		return nil
	}

	// Decoded pointers (*big.Int, *apd.Decimal) into their value types.
	if src.Kind() == reflect.Pointer && !src.IsNil() && src.Elem().Type().AssignableTo(typ) {
		dst.Set(src.Elem())
		return nil
	}

	switch typ.Kind() {
	case reflect.Pointer:
		elem := reflect.New(typ.Elem())
		if err := assign(elem.Elem(), v); err != nil {
			return err
		}
		dst.Set(elem)
		return nil

	case reflect.Bool:
		if b, ok := v.(bool); ok {
			dst.SetBool(b)
			return nil
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, ok := integerOf(v)
		if !ok {
			break
		}
		if !n.IsInt64() || dst.OverflowInt(n.Int64()) {
			return fmt.Errorf("%w: %s overflows %s", ErrTypeMismatch, n, typ)
		}
		dst.SetInt(n.Int64())
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		n, ok := integerOf(v)
		if !ok {
			break
		}
		if n.Sign() < 0 || !n.IsUint64() || dst.OverflowUint(n.Uint64()) {
			return fmt.Errorf("%w: %s overflows %s", ErrTypeMismatch, n, typ)
		}
		dst.SetUint(n.Uint64())
		return nil

	case reflect.Float32, reflect.Float64:
		if f, ok := floatOf(v); ok {
			if typ.Kind() == reflect.Float32 && !math.IsInf(f, 0) && !math.IsNaN(f) && dst.OverflowFloat(f) {
				return fmt.Errorf("%w: %v overflows %s", ErrTypeMismatch, f, typ)
			}
			dst.SetFloat(f)
			return nil
		}
		if n, ok := integerOf(v); ok {
			f, _ := new(big.Float).SetInt(n).Float64()
			dst.SetFloat(f)
			return nil
		}

	case reflect.String:
		if s, ok := v.(string); ok {
			dst.SetString(s)
			return nil
		}

	case reflect.Slice:
		if b, ok := v.([]byte); ok && typ.Elem().Kind() == reflect.Uint8 {
			dst.SetBytes(append([]byte(nil), b...))
			return nil
		}
		items, ok := sequenceOf(v)
		if !ok {
			break
		}
		out := reflect.MakeSlice(typ, len(items), len(items))
		for i, item := range items {
			if err := assign(out.Index(i), item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
		return nil

	case reflect.Array:
		if b, ok := v.([]byte); ok && typ.Elem().Kind() == reflect.Uint8 {
			if len(b) != typ.Len() {
				return fmt.Errorf("%w: %d bytes into %s", ErrTypeMismatch, len(b), typ)
			}
			reflect.Copy(dst, reflect.ValueOf(b))
			return nil
		}
		items, ok := sequenceOf(v)
		if !ok {
			break
		}
		if len(items) != typ.Len() {
			return fmt.Errorf("%w: %d elements into %s", ErrTypeMismatch, len(items), typ)
		}
		for i, item := range items {
			if err := assign(dst.Index(i), item); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil

	case reflect.Map:
		return assignMap(dst, v)

	case reflect.Struct:
		m, ok := v.(*Map)
		if !ok {
			break
		}
		fields := make([]Field, 0, m.Len())
		for _, e := range m.entries {
			name, ok := e.Key.(string)
			if !ok || name == MarkerName || name == MarkerNamespace {
				continue
			}
			fields = append(fields, Field{Name: name, Value: e.Value})
		}
		return layoutOf(typ).populate(dst, fields)
	}

	return fmt.Errorf("%w: cannot assign %T to %s", ErrTypeMismatch, v, typ)
}

// assignMap fills a Go map from a decoded Map, or from a set when the map
// value type is struct{} or bool.
func assignMap(dst reflect.Value, v any) error {
	typ := dst.Type()
	out := reflect.MakeMap(typ)

	switch src := v.(type) {
	case *Map:
		for _, e := range src.entries {
			k := reflect.New(typ.Key()).Elem()
			if err := assign(k, e.Key); err != nil {
				return fmt.Errorf("key %v: %w", e.Key, err)
			}
			val := reflect.New(typ.Elem()).Elem()
			if err := assign(val, e.Value); err != nil {
				return fmt.Errorf("[%v]: %w", e.Key, err)
			}
			out.SetMapIndex(k, val)
		}
	case *Set, *FrozenSet:
		items, _ := sequenceOf(v)
		var member reflect.Value
		switch typ.Elem().Kind() {
		case reflect.Bool:
			member = reflect.ValueOf(true).Convert(typ.Elem())
		case reflect.Struct:
			if typ.Elem().NumField() != 0 {
				return fmt.Errorf("%w: cannot assign set to %s", ErrTypeMismatch, typ)
			}
			member = reflect.New(typ.Elem()).Elem()
		default:
			return fmt.Errorf("%w: cannot assign set to %s", ErrTypeMismatch, typ)
		}
		for _, item := range items {
			k := reflect.New(typ.Key()).Elem()
			if err := assign(k, item); err != nil {
				return fmt.Errorf("element %v: %w", item, err)
			}
			out.SetMapIndex(k, member)
		}
	default:
		return fmt.Errorf("%w: cannot assign %T to %s", ErrTypeMismatch, v, typ)
	}

	dst.Set(out)
	return nil
}

// sequenceOf returns the elements of any decoded sequence or set.
func sequenceOf(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case Tuple:
		return s, true
	case *Set:
		return s.Values(), true
	case *FrozenSet:
		return s.Values(), true
	}
	return nil, false
}
