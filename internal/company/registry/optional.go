package registry

import (
	"bytes"
	"encoding/json"
)

// Opt is an optional API field. Absent, null or mistyped values decode as
// unset rather than failing the whole record, so one odd attribute never
// discards the rest of a response.
type Opt[T any] struct {
	V   T
	Set bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Opt[T]) UnmarshalJSON(b []byte) error {
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	o.V = v
	o.Set = true
	return nil
}

// Get returns the value and whether it was present.
func (o Opt[T]) Get() (T, bool) {
	return o.V, o.Set
}

// Ptr returns a pointer to a copy of the value, or nil when absent.
func (o Opt[T]) Ptr() *T {
	if !o.Set {
		return nil
	}
	v := o.V
	return &v
}

// Or returns the value, or def when absent.
func (o Opt[T]) Or(def T) T {
	if !o.Set {
		return def
	}
	return o.V
}
