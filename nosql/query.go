package nosql

import (
	"slices"
)

// SortDirection orders a sorted field ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

// Sort pairs a field name with a direction.
type Sort struct {
	field     string
	direction SortDirection
}

// Asc creates an ascending Sort for the field.
func Asc(field string) Sort {
	return Sort{field: field, direction: SortAsc}
}

// Desc creates a descending Sort for the field.
func Desc(field string) Sort {
	return Sort{field: field, direction: SortDesc}
}

// Field returns the sorted field name.
func (s Sort) Field() string {
	return s.field
}

// Direction returns the sort direction.
func (s Sort) Direction() SortDirection {
	return s.direction
}

// Query is an immutable description of a select operation, produced by the
// Select builder and consumed by the document and column managers.
//
// A zero limit or skip means "not set"; engines apply no bound in that case.
type Query struct {
	collection string
	condition  *Condition
	fields     []string
	sorts      []Sort
	limit      uint64
	skip       uint64
}

// Collection returns the queried collection name.
func (q Query) Collection() string {
	return q.collection
}

// Condition returns the filter condition.
// The second return value reports whether one was set; without one the query
// matches every entity of the collection.
func (q Query) Condition() (Condition, bool) {
	if q.condition == nil {
		return Condition{}, false
	}

	return *q.condition, true
}

// Fields returns a copy of the projected field names.
// An empty projection returns whole entities.
func (q Query) Fields() []string {
	return slices.Clone(q.fields)
}

// Sorts returns a copy of the sort directives in precedence order.
func (q Query) Sorts() []Sort {
	return slices.Clone(q.sorts)
}

// Limit returns the maximum number of entities to return, 0 meaning unbounded.
func (q Query) Limit() uint64 {
	return q.limit
}

// Skip returns the number of matching entities to skip, 0 meaning none.
func (q Query) Skip() uint64 {
	return q.skip
}

// DeleteQuery is an immutable description of a delete operation, produced by
// the Delete builder and consumed by the document and column managers.
//
// With a field projection only those fields are removed from matching
// entities; without one the whole entities are deleted.
type DeleteQuery struct {
	collection string
	condition  *Condition
	fields     []string
}

// Collection returns the targeted collection name.
func (q DeleteQuery) Collection() string {
	return q.collection
}

// Condition returns the filter condition.
// The second return value reports whether one was set; without one the delete
// targets every entity of the collection.
func (q DeleteQuery) Condition() (Condition, bool) {
	if q.condition == nil {
		return Condition{}, false
	}

	return *q.condition, true
}

// Fields returns a copy of the field names to remove instead of deleting
// whole entities. Empty means delete whole entities.
func (q DeleteQuery) Fields() []string {
	return slices.Clone(q.fields)
}
