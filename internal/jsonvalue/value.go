// Package jsonvalue implements the closed JSON value set the store operates
// on: null, bool, number, string, ordered array, and unordered
// string-keyed object. It is a statically-typed stand-in for dynamic JSON
// values, walking an interface{} decoded by encoding/json while keeping
// json.Number instead of immediately collapsing numbers to float64.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"

	"github.com/shazhou-ww/hstore/internal/herr"
)

// Kind tags which case of the closed JSON value set a Value holds.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Value is the closed JSON value set: exactly one of the Kind-tagged
// fields is meaningful for a given Kind.
type Value struct {
	kind Kind
	b    bool
	n    json.Number
	s    string
	arr  []Value
	obj  map[string]Value
}

func Null() Value               { return Value{kind: KindNull} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func String(s string) Value     { return Value{kind: KindString, s: s} }
func Number(n json.Number) Value { return Value{kind: KindNumber, n: n} }

// Array builds an Array value, preserving the given order.
func Array(items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindArray, arr: cp}
}

// Object builds an Object value from a key->Value mapping. Key order is
// not significant for an Object's identity (§3: "unordered object"); the
// canonical codec is responsible for sorting entries on encode.
func Object(entries map[string]Value) Value {
	cp := make(map[string]Value, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	return Value{kind: KindObject, obj: cp}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) Bool() bool   { return v.b }
func (v Value) String() string {
	if v.kind == KindString {
		return v.s
	}
	return ""
}
func (v Value) NumberLiteral() json.Number { return v.n }

// Elements returns a copy of the array's elements in order, so a caller
// writing into the returned slice cannot change v. Empty for non-arrays.
func (v Value) Elements() []Value {
	cp := make([]Value, len(v.arr))
	copy(cp, v.arr)
	return cp
}

// Keys returns an object's keys sorted by Unicode code-point order — Go's
// native string comparison already is code-point order, not locale
// collation, matching §4.1's requirement directly.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.obj))
	for k := range v.obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Field looks up an object member by key.
func (v Value) Field(key string) (Value, bool) {
	val, ok := v.obj[key]
	return val, ok
}

// PrimitiveLiteral renders a Null/Bool/Number/String value as its minified
// canonical JSON literal. Returns an error if called on an Array or
// Object — callers are expected to branch on Kind first, the same way the
// Canonical Codec does.
func (v Value) PrimitiveLiteral() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		if v.b {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case KindNumber:
		return []byte(v.n.String()), nil
	case KindString:
		return json.Marshal(v.s)
	default:
		return nil, fmt.Errorf("jsonvalue: PrimitiveLiteral called on composite kind %v", v.kind)
	}
}

// IdentityKey returns a stable comparable key for a composite (Array or
// Object) value's underlying storage, and true — usable by a caller-side
// per-call cache to recognize the exact same backing slice/map reused in
// two places within one value graph (§4.4's per-call identity cache). For
// a primitive Value it returns false; primitives are deduplicated by
// value, not identity.
func (v Value) IdentityKey() (any, bool) {
	switch v.kind {
	case KindArray:
		return reflect.ValueOf(v.arr).Pointer(), true
	case KindObject:
		return reflect.ValueOf(v.obj).Pointer(), true
	default:
		return nil, false
	}
}

// Parse decodes a JSON document into a Value, preserving number literals.
func Parse(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, fmt.Errorf("jsonvalue: parse: %w", err)
	}
	return FromGo(raw)
}

// FromGo converts a decoded Go value (the shapes produced by
// encoding/json with UseNumber: nil, bool, json.Number, string,
// []interface{}, map[string]interface{}) into a Value. Values produced by
// an ordinary json.Unmarshal into interface{} (float64 instead of
// json.Number) are also accepted.
func FromGo(raw interface{}) (Value, error) {
	switch val := raw.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(val), nil
	case json.Number:
		if err := checkFinite(val); err != nil {
			return Value{}, err
		}
		return Number(val), nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return Value{}, herr.ErrInvalidNumber
		}
		return Number(json.Number(formatFloat(val))), nil
	case int:
		return Number(json.Number(fmt.Sprintf("%d", val))), nil
	case int64:
		return Number(json.Number(fmt.Sprintf("%d", val))), nil
	case string:
		return String(val), nil
	case []interface{}:
		items := make([]Value, len(val))
		for i, item := range val {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items), nil
	case []Value:
		return Array(val), nil
	case map[string]interface{}:
		obj := make(map[string]Value, len(val))
		for k, item := range val {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, err
			}
			obj[k] = v
		}
		return Object(obj), nil
	case map[string]Value:
		return Object(val), nil
	case Value:
		return val, nil
	default:
		return Value{}, fmt.Errorf("jsonvalue: unsupported Go type %T", raw)
	}
}

func checkFinite(n json.Number) error {
	f, err := n.Float64()
	if err != nil {
		// Integers too large for float64 round-trip are still valid JSON
		// numbers; only reject on an actual parse failure path that
		// indicates a non-numeric literal slipped through.
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange {
			return nil
		}
		return herr.ErrInvalidNumber
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return herr.ErrInvalidNumber
	}
	return nil
}

func formatFloat(f float64) string {
	data, _ := json.Marshal(f)
	return string(data)
}

// Equal reports whether two values are structurally equal after
// canonicalization (sorted object keys, preserved array order). Numbers
// that both parse as float64 compare by value, so literals such as 1 and
// 1.0 are Equal here even though their canonical literals, and therefore
// their node hashes, differ.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindNumber:
		af, aerr := a.n.Float64()
		bf, berr := b.n.Float64()
		if aerr == nil && berr == nil {
			return af == bf
		}
		return a.n.String() == b.n.String()
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if len(a.obj) != len(b.obj) {
			return false
		}
		for k, av := range a.obj {
			bv, ok := b.obj[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// ToGo converts a Value back to a plain Go value tree suitable for
// json.Marshal or caller consumption (numbers as json.Number, arrays as
// []interface{}, objects as map[string]interface{}).
func ToGo(v Value) interface{} {
	switch v.kind {
	case KindNull:
		return nil
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindArray:
		out := make([]interface{}, len(v.arr))
		for i, item := range v.arr {
			out[i] = ToGo(item)
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.obj))
		for k, item := range v.obj {
			out[k] = ToGo(item)
		}
		return out
	}
	return nil
}
