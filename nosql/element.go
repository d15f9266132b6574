package nosql

// Element is the named tuple every record is made of: a field name paired
// with a boxed Value. It is immutable; WithValue derives a new Element
// instead of mutating.
//
// Document and Column are aliases of Element. The document and column-family
// models differ in how engines lay the tuples out, not in the tuple itself.
type Element struct {
	name  string
	value Value
}

// Document is an alias type for Element in the document model.
type Document = Element

// Column is an alias type for Element in the column-family model.
type Column = Element

// El is the shorthand constructor for an Element, mirroring how conditions
// and entities are usually assembled inline. The name must not be empty;
// use NewElement when the name comes from untrusted input.
func El(name string, datum any) Element {
	return Element{name: name, value: ValueOf(datum)}
}

// NewElement is the validating factory for an Element.
// Returns ErrEmptyElementName when the name is empty.
func NewElement(name string, datum any) (Element, error) {
	if name == "" {
		return Element{}, ErrEmptyElementName
	}

	return El(name, datum), nil
}

// NewDocument is the validating factory for a Document.
func NewDocument(name string, datum any) (Document, error) {
	return NewElement(name, datum)
}

// NewColumn is the validating factory for a Column.
func NewColumn(name string, datum any) (Column, error) {
	return NewElement(name, datum)
}

// Name returns the field name.
func (e Element) Name() string {
	return e.name
}

// Value implements Valuer by returning the boxed datum.
func (e Element) Value() Value {
	return e.value
}

// Get returns the raw datum without conversion.
func (e Element) Get() any {
	return e.value.Get()
}

// WithValue derives a new Element with the same name and a new datum.
func (e Element) WithValue(datum any) Element {
	return Element{name: e.name, value: ValueOf(datum)}
}
