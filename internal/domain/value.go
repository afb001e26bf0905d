package domain

import (
	"encoding/json"
	"math"
	"math/big"
	"reflect"
)

// Document is a deserialized schema or stored document: string keys mapped to
// strings, numbers, booleans, nil, nested mappings or sequences.
type Document map[string]any

// Kind is the structural class of a document value.
type Kind string

const (
	KindNull        Kind = "null"
	KindString      Kind = "string"
	KindNumber      Kind = "number"
	KindBool        Kind = "bool"
	KindMapping     Kind = "mapping"
	KindSequence    Kind = "sequence"
	KindUnsupported Kind = "unsupported"
)

func (k Kind) IsContainer() bool {
	return k == KindMapping || k == KindSequence
}

func KindOf(value any) Kind {
	switch value.(type) {
	case nil:
		return KindNull
	case string:
		return KindString
	case bool:
		return KindBool
	case json.Number:
		return KindNumber
	case Document, map[string]any:
		return KindMapping
	case []any:
		return KindSequence
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return KindNumber
	case reflect.String:
		return KindString
	case reflect.Bool:
		return KindBool
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return KindMapping
		}
	case reflect.Slice, reflect.Array:
		return KindSequence
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return KindNull
		}
		return KindOf(rv.Elem().Interface())
	}
	return KindUnsupported
}

// AsMapping returns the entries of any string-keyed map.
func AsMapping(value any) (map[string]any, bool) {
	switch typed := value.(type) {
	case Document:
		return typed, true
	case map[string]any:
		return typed, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = iter.Value().Interface()
		}
		return out, true
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
		return AsMapping(rv.Elem().Interface())
	}
	return nil, false
}

// AsSequence returns the elements of any slice or array.
func AsSequence(value any) ([]any, bool) {
	if typed, ok := value.([]any); ok {
		return typed, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
		return AsSequence(rv.Elem().Interface())
	}
	return nil, false
}

// number holds an integral value exactly and any other value as a float.
type number struct {
	integer *big.Int
	float   float64
}

func numberValue(value any) (number, bool) {
	if n, ok := value.(json.Number); ok {
		if integer, ok := new(big.Int).SetString(string(n), 10); ok {
			return number{integer: integer}, true
		}
		parsed, ok := new(big.Float).SetString(string(n))
		if !ok {
			return number{}, false
		}
		if parsed.IsInt() {
			integer, _ := parsed.Int(nil)
			return number{integer: integer}, true
		}
		f, _ := parsed.Float64()
		return number{float: f}, true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{integer: big.NewInt(rv.Int())}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return number{integer: new(big.Int).SetUint64(rv.Uint())}, true
	case reflect.Float32, reflect.Float64:
		return floatNumber(rv.Float()), true
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return number{}, false
		}
		return numberValue(rv.Elem().Interface())
	}
	return number{}, false
}

func floatNumber(f float64) number {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return number{float: f}
	}
	integer, _ := big.NewFloat(f).Int(nil)
	return number{integer: integer}
}

// equalNumbers compares integers exactly. NaN equals NaN so a document always
// equals itself.
func equalNumbers(a, b number) bool {
	switch {
	case a.integer != nil && b.integer != nil:
		return a.integer.Cmp(b.integer) == 0
	case a.integer != nil || b.integer != nil:
		return false
	case math.IsNaN(a.float) || math.IsNaN(b.float):
		return math.IsNaN(a.float) && math.IsNaN(b.float)
	}
	return a.float == b.float
}

func scalarValue(value any) any {
	rv := reflect.ValueOf(value)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return rv.Bool()
	}
	return value
}

// Equal reports deep structural equality. Mappings compare key by key,
// sequences element by element, numbers by numeric value whatever their Go type.
// Integers compare exactly at any magnitude.
func Equal(a, b any) bool {
	kind := KindOf(a)
	if kind != KindOf(b) {
		return false
	}

	switch kind {
	case KindNull:
		return true
	case KindString, KindBool:
		return scalarValue(a) == scalarValue(b)
	case KindNumber:
		left, okLeft := numberValue(a)
		right, okRight := numberValue(b)
		return okLeft && okRight && equalNumbers(left, right)
	case KindMapping:
		left, _ := AsMapping(a)
		right, _ := AsMapping(b)
		if len(left) != len(right) {
			return false
		}
		for key, value := range left {
			other, ok := right[key]
			if !ok || !Equal(value, other) {
				return false
			}
		}
		return true
	case KindSequence:
		left, _ := AsSequence(a)
		right, _ := AsSequence(b)
		if len(left) != len(right) {
			return false
		}
		for i := range left {
			if !Equal(left[i], right[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// Matches reports whether every filter key is present in doc with an equal value.
func Matches(doc, filter Document) bool {
	for key, want := range filter {
		got, ok := doc[key]
		if !ok || !Equal(got, want) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy so callers never share nested state with a store.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for key, value := range d {
		out[key] = cloneValue(value)
	}
	return out
}

func cloneValue(value any) any {
	switch KindOf(value) {
	case KindMapping:
		entries, _ := AsMapping(value)
		out := make(map[string]any, len(entries))
		for key, item := range entries {
			out[key] = cloneValue(item)
		}
		return out
	case KindSequence:
		if _, isBytes := value.([]byte); isBytes {
			return append([]byte(nil), value.([]byte)...)
		}
		items, _ := AsSequence(value)
		out := make([]any, len(items))
		for i, item := range items {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return value
	}
}
