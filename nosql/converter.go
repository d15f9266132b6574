package nosql

import (
	"reflect"
)

// ValueReader converts raw data coming out of a database into a caller-requested type.
//
// Readers registered with a Converters registry take precedence over the built-in
// conversions, so a reader can override how, say, a string becomes a time.Time.
// Readers never need to handle container types; the registry decomposes slices,
// arrays, maps, and pointers and consults readers per element.
type ValueReader interface {
	// IsCompatible reports whether this reader can produce the target type.
	IsCompatible(target reflect.Type) bool

	// Read converts the datum to the target type.
	// It is only called when IsCompatible returned true for the target.
	Read(target reflect.Type, datum any) (any, error)
}

// ValueWriter converts a caller-supplied datum into a form a database can store.
//
// Writers are consulted by the database engines before encoding a datum, so a
// writer can teach every engine how to persist a custom type without the engines
// knowing about it.
type ValueWriter interface {
	// IsCompatible reports whether this writer handles the source type.
	IsCompatible(source reflect.Type) bool

	// Write converts the datum to its storable form.
	// It is only called when IsCompatible returned true for the datum's type.
	Write(datum any) (any, error)
}

// Converters is a priority-ordered registry of ValueReader and ValueWriter
// extensions plus the built-in conversion pipeline.
//
// Registration order is priority order: the first compatible reader or writer
// wins, and the built-ins always come last. Register everything during
// initialization, before the registry is shared; registration is not
// synchronized with concurrent Read or Write calls.
type Converters struct {
	readers []ValueReader
	writers []ValueWriter
}

// NewConverters creates an empty registry that starts with only the built-in conversions.
func NewConverters() *Converters {
	return &Converters{}
}

// RegisterReader appends a reader to the registry.
// Earlier registrations take precedence over later ones.
func (c *Converters) RegisterReader(reader ValueReader) *Converters {
	c.readers = append(c.readers, reader)
	return c
}

// RegisterWriter appends a writer to the registry.
// Earlier registrations take precedence over later ones.
func (c *Converters) RegisterWriter(writer ValueWriter) *Converters {
	c.writers = append(c.writers, writer)
	return c
}

// Write runs the datum through the registered writers and reports whether one
// of them claimed it. A (nil, false, nil) result means the datum should be
// stored as-is.
func (c *Converters) Write(datum any) (any, bool, error) {
	if datum == nil {
		return nil, false, nil
	}

	source := reflect.TypeOf(datum)

	for _, writer := range c.writers {
		if writer.IsCompatible(source) {
			converted, err := writer.Write(datum)
			if err != nil {
				return nil, false, err
			}

			return converted, true, nil
		}
	}

	return nil, false, nil
}

var defaultConverters = NewConverters()

// DefaultConverters returns the package-level registry used by Value.AsType,
// As, and the database engines unless a dedicated registry is configured.
func DefaultConverters() *Converters {
	return defaultConverters
}

// RegisterReader appends a reader to the package-level registry.
func RegisterReader(reader ValueReader) {
	defaultConverters.RegisterReader(reader)
}

// RegisterWriter appends a writer to the package-level registry.
func RegisterWriter(writer ValueWriter) {
	defaultConverters.RegisterWriter(writer)
}
