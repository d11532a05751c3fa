// Package patch provides an optional value type for partial updates that
// distinguishes a field that was not supplied from one explicitly set to null.
package patch

import (
	"bytes"
	"encoding/json"
)

// Field holds an optional value. The zero Field is unset.
// A Field decoded from JSON null is set with Null true.
type Field[T any] struct {
	Value T
	Set   bool
	Null  bool
}

// Value returns a set, non-null Field holding v.
func Value[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// Null returns a set Field that clears the target.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// Present reports whether the field carries a non-null value.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// Ptr returns a pointer to the value, or nil when the field is null or unset.
func (f Field[T]) Ptr() *T {
	if !f.Present() {
		return nil
	}
	v := f.Value
	return &v
}

// Or returns the value when present, otherwise current.
func (f Field[T]) Or(current T) T {
	if f.Present() {
		return f.Value
	}
	return current
}

// UnmarshalJSON marks the field as set. JSON null marks it as null.
// Encoding/json does not call UnmarshalJSON for absent keys, so absent fields stay unset.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON encodes the value, or null when the field is unset or null.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}
