package repository

// Field carries a value together with whether the caller explicitly provided
// it. Updates apply every Set field, including fields explicitly set to their
// zero or null value; unset fields are left untouched.
type Field[T any] struct {
	Value T
	Set   bool
}

// Provided wraps a value as an explicitly supplied field.
func Provided[T any](value T) Field[T] {
	return Field[T]{Value: value, Set: true}
}
