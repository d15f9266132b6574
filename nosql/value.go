package nosql

import (
	"fmt"
	"reflect"
)

// Value is an immutable box around a single datum read from or written to a database.
// The zero Value wraps nil.
//
// A Value never exposes the raw datum for mutation; Get returns it as-is, and the
// As / AsType functions run it through the conversion pipeline (see Converters).
type Value struct {
	raw any
}

// Valuer is anything that can hand out its datum as a Value.
// Value itself, Element, and KeyValueEntity implement it.
type Valuer interface {
	Value() Value
}

// ValueOf wraps a datum in a Value.
//
// Wrapping is idempotent: passing a Value returns it unchanged, never a
// double-boxed Value. Nil is a valid datum and yields a Value for which IsNil
// reports true.
func ValueOf(datum any) Value {
	if v, ok := datum.(Value); ok {
		return v
	}

	return Value{raw: datum}
}

// Get returns the wrapped datum without any conversion.
func (v Value) Get() any {
	return v.raw
}

// IsNil reports whether the wrapped datum is nil.
func (v Value) IsNil() bool {
	return v.raw == nil
}

// Value implements Valuer by returning the Value itself.
func (v Value) Value() Value {
	return v
}

// String renders the wrapped datum for logs and error messages.
// It is not a conversion; use As[string] for that.
func (v Value) String() string {
	return fmt.Sprintf("%v", v.raw)
}

// AsType converts the wrapped datum to the given target type using the
// package-level default Converters.
//
// Returns an error joining ErrUnsupportedConversion when no registered
// ValueReader and no built-in conversion can produce the target type.
func (v Value) AsType(target reflect.Type) (any, error) {
	return DefaultConverters().Read(target, v.raw)
}

// AsTypeWith converts the wrapped datum to the given target type using the
// supplied Converters instead of the package-level default.
func (v Value) AsTypeWith(target reflect.Type, converters *Converters) (any, error) {
	return converters.Read(target, v.raw)
}

// As converts the datum behind any Valuer to T using the package-level
// default Converters.
//
// Container targets convert element-wise, so As[[]int] applied to a Value
// wrapping []string{"1", "2"} yields []int{1, 2}.
func As[T any](source Valuer) (T, error) {
	return AsWith[T](source, DefaultConverters())
}

// AsWith converts the datum behind any Valuer to T using the supplied Converters.
func AsWith[T any](source Valuer, converters *Converters) (T, error) {
	var zero T

	converted, err := converters.Read(reflect.TypeFor[T](), source.Value().Get())
	if err != nil {
		return zero, err
	}

	if converted == nil {
		return zero, nil
	}

	return converted.(T), nil
}
