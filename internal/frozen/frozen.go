// Package frozen wraps every JSON value returned from the store so that
// nested arrays and objects stay immutable through the returned
// reference, without relying on a native freeze primitive.
package frozen

import "github.com/shazhou-ww/hstore/internal/jsonvalue"

// Value is an immutable view over a jsonvalue.Value. It exposes only
// accessors; there is no setter anywhere on this type. Freezing is
// idempotent: wrapping an already-frozen Value's underlying data again
// produces an equal, independent Value.
type Value struct {
	v jsonvalue.Value
}

// Freeze wraps a jsonvalue.Value. The caller's value is not retained by
// reference beyond this call for composite kinds — jsonvalue.Array/Object
// already deep-copy their inputs at construction, so Freeze's only job is
// to drop the ability to mutate through the wrapper's API.
func Freeze(v jsonvalue.Value) *Value {
	return &Value{v: v}
}

// Unwrap returns the underlying jsonvalue.Value. Because jsonvalue.Value
// has no exported mutating methods, reading through the unwrapped value is
// safe: there is nothing on it a caller could call to mutate the frozen
// state.
func (f *Value) Unwrap() jsonvalue.Value {
	return f.v
}

// Kind reports the frozen value's JSON kind.
func (f *Value) Kind() jsonvalue.Kind { return f.v.Kind() }

// Equal reports structural equality with another frozen value.
func (f *Value) Equal(other *Value) bool {
	if f == nil || other == nil {
		return f == other
	}
	return jsonvalue.Equal(f.v, other.v)
}

// ToGo materializes a plain Go value tree (json.Number leaves) suitable for
// json.Marshal. The returned tree is a fresh copy on every call, so a
// caller mutating it cannot affect the frozen Value or any other caller's
// copy.
func (f *Value) ToGo() interface{} {
	return jsonvalue.ToGo(f.v)
}
