package models

import (
	"encoding/json"
	"fmt"
)

// NotAvailable is rendered in place of a value that could not be read.
const NotAvailable = "N/A"

// Optional holds a value that may be missing from the system. An absent
// value is distinct from a present zero value.
type Optional[T any] struct {
	Value T
	Valid bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Valid: true}
}

// None returns an absent value.
func None[T any]() Optional[T] {
	return Optional[T]{}
}

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Valid
}

// String formats the value, or NotAvailable when absent.
func (o Optional[T]) String() string {
	if !o.Valid {
		return NotAvailable
	}
	return fmt.Sprint(o.Value)
}

// MarshalJSON encodes the value, or the NotAvailable marker when absent.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return json.Marshal(NotAvailable)
	}
	return json.Marshal(o.Value)
}

// UnmarshalJSON decodes a value; the NotAvailable marker yields an absent value.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	var marker string
	if err := json.Unmarshal(data, &marker); err == nil && marker == NotAvailable {
		*o = Optional[T]{}
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
