// Package schema defines the external validator contract the Version
// Store calls on every commit: a small interface accepted at the
// boundary rather than a bundled validation engine, so any validation
// approach can plug in without this package depending on it.
package schema

import "github.com/shazhou-ww/hstore/internal/jsonvalue"

// Validator validates and optionally transforms a value before it is
// committed. Returning a different Value lets a validator apply defaults
// or coercions the way a schema's parse() step would; returning the input
// unchanged is the common case.
type Validator interface {
	Validate(v jsonvalue.Value) (jsonvalue.Value, error)
}

// Any accepts every value unchanged. The zero value is ready to use.
type Any struct{}

func (Any) Validate(v jsonvalue.Value) (jsonvalue.Value, error) { return v, nil }

// Func adapts a plain function to the Validator interface.
type Func func(v jsonvalue.Value) (jsonvalue.Value, error)

func (f Func) Validate(v jsonvalue.Value) (jsonvalue.Value, error) { return f(v) }
