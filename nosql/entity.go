package nosql

import (
	"slices"
)

// Entity is a named collection of Elements, the unit the document and
// column-family managers store and retrieve. The name identifies the
// collection (or column family) the entity belongs to.
//
// Element names are unique within an entity: Add replaces an existing
// element with the same name in place, keeping its position.
type Entity struct {
	name     string
	elements []Element
}

// DocumentEntity is an alias type for Entity in the document model.
type DocumentEntity = Entity

// ColumnEntity is an alias type for Entity in the column-family model.
type ColumnEntity = Entity

// NewEntity creates an Entity for the named collection with the given elements.
// Returns ErrEmptyEntityName when the name is empty.
func NewEntity(name string, elements ...Element) (*Entity, error) {
	if name == "" {
		return nil, ErrEmptyEntityName
	}

	entity := &Entity{name: name}
	entity.AddAll(elements...)

	return entity, nil
}

// NewDocumentEntity is the factory for a DocumentEntity.
func NewDocumentEntity(name string, elements ...Element) (*DocumentEntity, error) {
	return NewEntity(name, elements...)
}

// NewColumnEntity is the factory for a ColumnEntity.
func NewColumnEntity(name string, elements ...Element) (*ColumnEntity, error) {
	return NewEntity(name, elements...)
}

// Name returns the collection name this entity belongs to.
func (e *Entity) Name() string {
	return e.name
}

// Add appends the element, or replaces an existing element with the same
// name in place. Last write wins.
func (e *Entity) Add(element Element) {
	for i := range e.elements {
		if e.elements[i].name == element.name {
			e.elements[i] = element
			return
		}
	}

	e.elements = append(e.elements, element)
}

// AddAll adds every given element with Add semantics.
func (e *Entity) AddAll(elements ...Element) {
	for _, element := range elements {
		e.Add(element)
	}
}

// Find returns the element with the given name.
// The second return value reports whether it exists; absence is not an error.
func (e *Entity) Find(name string) (Element, bool) {
	for _, element := range e.elements {
		if element.name == name {
			return element, true
		}
	}

	return Element{}, false
}

// Remove deletes the element with the given name and reports whether it existed.
func (e *Entity) Remove(name string) bool {
	for i := range e.elements {
		if e.elements[i].name == name {
			e.elements = slices.Delete(e.elements, i, i+1)
			return true
		}
	}

	return false
}

// Len returns the number of elements.
func (e *Entity) Len() int {
	return len(e.elements)
}

// IsEmpty reports whether the entity holds no elements.
func (e *Entity) IsEmpty() bool {
	return len(e.elements) == 0
}

// Elements returns a copy of the element list in insertion order.
func (e *Entity) Elements() []Element {
	return slices.Clone(e.elements)
}

// Names returns the element names in insertion order.
func (e *Entity) Names() []string {
	names := make([]string, len(e.elements))
	for i, element := range e.elements {
		names[i] = element.name
	}

	return names
}

// Copy returns an independent entity with the same name and elements.
// The elements themselves are immutable, so no deeper copy is needed.
func (e *Entity) Copy() *Entity {
	return &Entity{name: e.name, elements: slices.Clone(e.elements)}
}

// KeyValueEntity is the unit the key-value managers store: a key paired with
// a boxed Value. The key is never nil.
type KeyValueEntity struct {
	key   any
	value Value
}

// NewKeyValueEntity creates a KeyValueEntity.
// Returns ErrNilKey when the key is nil.
func NewKeyValueEntity(key any, datum any) (KeyValueEntity, error) {
	if key == nil {
		return KeyValueEntity{}, ErrNilKey
	}

	return KeyValueEntity{key: key, value: ValueOf(datum)}, nil
}

// Key returns the key.
func (e KeyValueEntity) Key() any {
	return e.key
}

// Value implements Valuer by returning the boxed datum.
func (e KeyValueEntity) Value() Value {
	return e.value
}

// Get returns the raw datum without conversion.
func (e KeyValueEntity) Get() any {
	return e.value.Get()
}
