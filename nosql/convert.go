package nosql

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

var (
	stringType          = reflect.TypeFor[string]()
	bytesType           = reflect.TypeFor[[]byte]()
	timeType            = reflect.TypeFor[time.Time]()
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// timeLayouts are tried in order when parsing a string into a time.Time.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Read converts a raw datum to the target type.
//
// The pipeline is, in order: identity (the datum already is the target type),
// the registered ValueReaders (first registration wins), container
// decomposition (slice, array, map, and pointer targets convert element-wise),
// and finally the built-in scalar conversions. When no stage can produce the
// target type, the returned error wraps ErrUnsupportedConversion.
//
// A nil target type is treated as "no conversion requested" and returns the
// datum unchanged. A nil datum converts to nil for nilable target kinds and
// fails for value kinds.
func (c *Converters) Read(target reflect.Type, datum any) (any, error) {
	if target == nil {
		return datum, nil
	}

	// unwrap nested boxing, a Value never converts to anything but itself
	if boxed, ok := datum.(Value); ok && target != reflect.TypeFor[Value]() {
		return c.Read(target, boxed.Get())
	}

	if datum == nil {
		if isNilable(target.Kind()) {
			return nil, nil
		}

		return nil, conversionError(datum, target)
	}

	source := reflect.TypeOf(datum)
	if source.AssignableTo(target) {
		return datum, nil
	}

	for _, reader := range c.readers {
		if reader.IsCompatible(target) {
			return reader.Read(target, datum)
		}
	}

	// a non-nil pointer datum converts like the value it points to
	if source.Kind() == reflect.Pointer {
		pointer := reflect.ValueOf(datum)
		if pointer.IsNil() {
			if isNilable(target.Kind()) {
				return nil, nil
			}

			return nil, conversionError(datum, target)
		}

		return c.Read(target, pointer.Elem().Interface())
	}

	// strings become byte slices directly, not element-wise
	if target.Kind() == reflect.Slice && target.Elem().Kind() == reflect.Uint8 {
		if s, ok := datum.(string); ok {
			return reflect.ValueOf([]byte(s)).Convert(target).Interface(), nil
		}
	}

	switch target.Kind() {
	case reflect.Slice:
		return c.readSlice(target, datum)
	case reflect.Array:
		return c.readArray(target, datum)
	case reflect.Map:
		if source.Kind() == reflect.Map {
			return c.readMap(target, datum)
		}
	case reflect.Pointer:
		return c.readPointer(target, datum)
	}

	converted, handled, err := readScalar(target, datum)
	if err != nil {
		return nil, err
	}

	if handled {
		return converted, nil
	}

	return nil, conversionError(datum, target)
}

// readSlice converts the datum into a slice of the target's element type.
// A non-container datum becomes a single-element slice.
func (c *Converters) readSlice(target reflect.Type, datum any) (any, error) {
	elements := sourceElements(datum)
	out := reflect.MakeSlice(target, len(elements), len(elements))

	for i, element := range elements {
		converted, err := c.Read(target.Elem(), element)
		if err != nil {
			return nil, err
		}

		out.Index(i).Set(reflectValueOrZero(target.Elem(), converted))
	}

	return out.Interface(), nil
}

// readArray converts the datum into an array of the target's element type.
// The source must hold exactly as many elements as the array holds.
func (c *Converters) readArray(target reflect.Type, datum any) (any, error) {
	elements := sourceElements(datum)
	if len(elements) != target.Len() {
		return nil, fmt.Errorf("%w: cannot convert %d elements to %s", ErrUnsupportedConversion, len(elements), target)
	}

	out := reflect.New(target).Elem()

	for i, element := range elements {
		converted, err := c.Read(target.Elem(), element)
		if err != nil {
			return nil, err
		}

		out.Index(i).Set(reflectValueOrZero(target.Elem(), converted))
	}

	return out.Interface(), nil
}

// readMap converts a map datum into a map of the target's key and element types,
// converting every key and every value through the pipeline.
func (c *Converters) readMap(target reflect.Type, datum any) (any, error) {
	source := reflect.ValueOf(datum)
	out := reflect.MakeMapWithSize(target, source.Len())

	iterator := source.MapRange()
	for iterator.Next() {
		key, err := c.Read(target.Key(), iterator.Key().Interface())
		if err != nil {
			return nil, err
		}

		value, err := c.Read(target.Elem(), iterator.Value().Interface())
		if err != nil {
			return nil, err
		}

		out.SetMapIndex(reflectValueOrZero(target.Key(), key), reflectValueOrZero(target.Elem(), value))
	}

	return out.Interface(), nil
}

// readPointer converts the datum to the pointed-to type and returns a pointer to the result.
func (c *Converters) readPointer(target reflect.Type, datum any) (any, error) {
	converted, err := c.Read(target.Elem(), datum)
	if err != nil {
		return nil, err
	}

	out := reflect.New(target.Elem())
	out.Elem().Set(reflectValueOrZero(target.Elem(), converted))

	return out.Interface(), nil
}

// readScalar applies the built-in scalar conversions.
// The second return value reports whether any built-in applied to this
// target/datum combination at all.
func readScalar(target reflect.Type, datum any) (any, bool, error) {
	switch target {
	case timeType:
		return readTime(datum)
	case durationType:
		return readDuration(datum)
	}

	if converted, handled, err := readTextUnmarshaler(target, datum); handled || err != nil {
		return converted, handled, err
	}

	switch target.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return readSignedInteger(target, datum)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return readUnsignedInteger(target, datum)
	case reflect.Float32, reflect.Float64:
		return readFloat(target, datum)
	case reflect.Bool:
		return readBool(target, datum)
	case reflect.String:
		return readString(target, datum)
	}

	// named types over the same underlying kind convert structurally
	source := reflect.TypeOf(datum)
	if source.Kind() == target.Kind() && source.ConvertibleTo(target) {
		return reflect.ValueOf(datum).Convert(target).Interface(), true, nil
	}

	return nil, false, nil
}

// readTextUnmarshaler handles targets whose pointer type implements
// encoding.TextUnmarshaler, converting from string or []byte data.
// This is how string-backed enumerations convert by name.
func readTextUnmarshaler(target reflect.Type, datum any) (any, bool, error) {
	if !reflect.PointerTo(target).Implements(textUnmarshalerType) {
		return nil, false, nil
	}

	var text []byte
	switch v := datum.(type) {
	case string:
		text = []byte(v)
	case []byte:
		text = v
	default:
		return nil, false, nil
	}

	holder := reflect.New(target)
	if err := holder.Interface().(encoding.TextUnmarshaler).UnmarshalText(text); err != nil {
		return nil, true, errors.Join(ErrUnsupportedConversion, err)
	}

	return holder.Elem().Interface(), true, nil
}

func readSignedInteger(target reflect.Type, datum any) (any, bool, error) {
	rv := reflect.ValueOf(datum)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.Convert(target).Interface(), true, nil

	case reflect.String:
		parsed, err := parseInteger(rv.String())
		if err != nil {
			return nil, true, errors.Join(ErrUnsupportedConversion, err)
		}

		return reflect.ValueOf(parsed).Convert(target).Interface(), true, nil
	}

	return nil, false, nil
}

// parseInteger parses decimal integers and falls back to truncating a float,
// so "10" and "10.0" both parse while "ten" fails with the integer error.
func parseInteger(s string) (int64, error) {
	parsed, err := strconv.ParseInt(s, 10, 64)
	if err == nil {
		return parsed, nil
	}

	f, floatErr := strconv.ParseFloat(s, 64)
	if floatErr != nil {
		return 0, err
	}

	return int64(f), nil
}

func readUnsignedInteger(target reflect.Type, datum any) (any, bool, error) {
	rv := reflect.ValueOf(datum)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return nil, true, conversionError(datum, target)
		}

		return rv.Convert(target).Interface(), true, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Convert(target).Interface(), true, nil

	case reflect.Float32, reflect.Float64:
		if rv.Float() < 0 {
			return nil, true, conversionError(datum, target)
		}

		return rv.Convert(target).Interface(), true, nil

	case reflect.String:
		parsed, err := strconv.ParseUint(rv.String(), 10, 64)
		if err != nil {
			return nil, true, errors.Join(ErrUnsupportedConversion, err)
		}

		return reflect.ValueOf(parsed).Convert(target).Interface(), true, nil
	}

	return nil, false, nil
}

func readFloat(target reflect.Type, datum any) (any, bool, error) {
	rv := reflect.ValueOf(datum)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return rv.Convert(target).Interface(), true, nil

	case reflect.String:
		parsed, err := strconv.ParseFloat(rv.String(), 64)
		if err != nil {
			return nil, true, errors.Join(ErrUnsupportedConversion, err)
		}

		return reflect.ValueOf(parsed).Convert(target).Interface(), true, nil
	}

	return nil, false, nil
}

func readBool(target reflect.Type, datum any) (any, bool, error) {
	rv := reflect.ValueOf(datum)

	switch rv.Kind() {
	case reflect.String:
		parsed, err := strconv.ParseBool(rv.String())
		if err != nil {
			return nil, true, errors.Join(ErrUnsupportedConversion, err)
		}

		return reflect.ValueOf(parsed).Convert(target).Interface(), true, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return reflect.ValueOf(rv.Int() != 0).Convert(target).Interface(), true, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return reflect.ValueOf(rv.Uint() != 0).Convert(target).Interface(), true, nil

	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(rv.Float() != 0).Convert(target).Interface(), true, nil
	}

	return nil, false, nil
}

// readString renders any datum as a string. Times format as RFC 3339 so they
// survive a round trip back through readTime.
func readString(target reflect.Type, datum any) (any, bool, error) {
	var s string

	switch v := datum.(type) {
	case time.Time:
		s = v.Format(time.RFC3339Nano)
	case []byte:
		s = string(v)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprintf("%v", v)
	}

	if target == stringType {
		return s, true, nil
	}

	return reflect.ValueOf(s).Convert(target).Interface(), true, nil
}

func readTime(datum any) (any, bool, error) {
	switch v := datum.(type) {
	case string:
		return parseTime(v)
	case []byte:
		return parseTime(string(v))
	}

	rv := reflect.ValueOf(datum)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.UnixMilli(rv.Int()).UTC(), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.UnixMilli(int64(rv.Uint())).UTC(), true, nil
	case reflect.String:
		return parseTime(rv.String())
	}

	return nil, false, nil
}

func parseTime(s string) (any, bool, error) {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed, true, nil
		}
	}

	return nil, true, fmt.Errorf("%w: %q matches no known time layout", ErrUnsupportedConversion, s)
}

func readDuration(datum any) (any, bool, error) {
	rv := reflect.ValueOf(datum)

	switch rv.Kind() {
	case reflect.String:
		parsed, err := time.ParseDuration(rv.String())
		if err != nil {
			return nil, true, errors.Join(ErrUnsupportedConversion, err)
		}

		return parsed, true, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return time.Duration(rv.Int()), true, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return time.Duration(int64(rv.Uint())), true, nil

	case reflect.Float32, reflect.Float64:
		return time.Duration(int64(rv.Float())), true, nil
	}

	return nil, false, nil
}

// sourceElements flattens the datum for container conversion.
// Slices and arrays enumerate their elements; any other datum is treated
// as a single-element container.
func sourceElements(datum any) []any {
	rv := reflect.ValueOf(datum)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elements := make([]any, rv.Len())
		for i := range elements {
			elements[i] = rv.Index(i).Interface()
		}

		return elements

	default:
		return []any{datum}
	}
}

func reflectValueOrZero(t reflect.Type, v any) reflect.Value {
	if v == nil {
		return reflect.Zero(t)
	}

	return reflect.ValueOf(v)
}

func isNilable(kind reflect.Kind) bool {
	switch kind {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return true
	default:
		return false
	}
}

func conversionError(datum any, target reflect.Type) error {
	return fmt.Errorf("%w: cannot convert %T to %s", ErrUnsupportedConversion, datum, target)
}
