package dto

import "encoding/json"

// Optional distinguishes a JSON field that was absent from one explicitly
// provided, including an explicit null. Updates apply every provided field,
// so `{"description": ""}` clears the description while omitting the key
// leaves it untouched.
type Optional[T any] struct {
	Value T
	Set   bool
}

// UnmarshalJSON marks the field provided. A literal null leaves Value at its
// zero value (nil for pointer types).
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		var zero T
		o.Value = zero
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// MarshalJSON round-trips the wrapped value.
func (o Optional[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Value)
}
