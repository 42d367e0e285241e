// Package patch models PUT bodies where a missing key, an explicit null and a
// value all mean different things.
package patch

import (
	"encoding/json"
	"strings"
)

// Field is one updatable attribute. Set reports whether the key was present in
// the request; a Set field with a nil Value clears the attribute.
type Field[T any] struct {
	Set   bool
	Value *T
}

func Of[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

// IsNull is true for an explicit null.
func (f Field[T]) IsNull() bool {
	return f.Set && f.Value == nil
}

// From builds a Field from a decoded pointer and the key's presence.
func From[T any](present bool, v *T) Field[T] {
	if !present {
		return Field[T]{}
	}
	return Field[T]{Set: true, Value: v}
}

// Keys holds the top-level keys present in a JSON object, case folded the same
// way encoding/json matches struct fields.
type Keys map[string]struct{}

func KeysOf(raw map[string]json.RawMessage) Keys {
	keys := make(Keys, len(raw))
	for k := range raw {
		keys[strings.ToLower(k)] = struct{}{}
	}
	return keys
}

func (k Keys) Has(name string) bool {
	_, ok := k[strings.ToLower(name)]
	return ok
}
