package model

import (
	"bytes"
	"encoding/json"
)

// Nullable is a patch field that tells apart "not sent", "sent as null" and "sent with a value".
type Nullable[T any] struct {
	set   bool
	valid bool
	v     T
}

// Value returns a Nullable carrying v.
func Value[T any](v T) Nullable[T] {
	return Nullable[T]{set: true, valid: true, v: v}
}

// Null returns a Nullable that clears the field.
func Null[T any]() Nullable[T] {
	return Nullable[T]{set: true}
}

// FromPtr maps nil to an explicit null and anything else to a value.
func FromPtr[T any](p *T) Nullable[T] {
	if p == nil {
		return Null[T]()
	}
	return Value(*p)
}

func (n Nullable[T]) IsSet() bool  { return n.set }
func (n Nullable[T]) IsNull() bool { return n.set && !n.valid }

// Get returns the value and whether one is present.
func (n Nullable[T]) Get() (T, bool) {
	return n.v, n.valid
}

// Ptr returns a fresh pointer to the value, nil for null or unset.
func (n Nullable[T]) Ptr() *T {
	if !n.valid {
		return nil
	}
	v := n.v
	return &v
}

func (n *Nullable[T]) UnmarshalJSON(data []byte) error {
	n.set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		n.valid = false
		var zero T
		n.v = zero
		return nil
	}
	if err := json.Unmarshal(data, &n.v); err != nil {
		return err
	}
	n.valid = true
	return nil
}

func (n Nullable[T]) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.v)
}
