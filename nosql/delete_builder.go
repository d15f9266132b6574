package nosql

import (
	"slices"
)

/***** Delete builder stages *****/

// Delete starts building a DeleteQuery. With field names given only those
// fields are removed from matching entities; without any, whole entities are
// deleted. The stages mirror the Select builder without ordering and
// pagination, which have no meaning for deletes:
//
//   - Delete().From(c)
//   - Delete("f1").From(c)
//   - ... .Where(f).Eq(v).And(f2).Gt(v2)
//   - ... .Where(f).Not().In(v1, v2)
//   - ... .Build()
func Delete(fields ...string) DeleteFrom {
	return deleteBuilder{query: DeleteQuery{fields: slices.Clone(fields)}}
}

// DeleteFrom names the collection the delete runs against.
type DeleteFrom interface {
	// From sets the collection to delete from.
	From(collection string) DeleteQueryBuild
}

// DeleteQueryBuild is the stage after From: filter or build.
type DeleteQueryBuild interface {
	// Where starts the condition with a first field to compare.
	Where(field string) DeleteCondition

	// Build finalizes the immutable DeleteQuery.
	Build() (DeleteQuery, error)
}

// DeleteCondition is the stage right after Where, And, or Or: exactly one
// comparator must follow before the delete can be built.
type DeleteCondition interface {
	// Not negates the comparator that follows.
	Not() DeleteCondition

	// Eq compares the pending field for equality.
	Eq(datum any) DeleteWhere

	// Gt compares the pending field for being greater than the datum.
	Gt(datum any) DeleteWhere

	// Gte compares the pending field for being greater than or equal to the datum.
	Gte(datum any) DeleteWhere

	// Lt compares the pending field for being lesser than the datum.
	Lt(datum any) DeleteWhere

	// Lte compares the pending field for being lesser than or equal to the datum.
	Lte(datum any) DeleteWhere

	// In compares the pending field against every given datum.
	In(data ...any) DeleteWhere

	// Like matches the pending field against a pattern where % stands for
	// any run of characters and _ for a single one.
	Like(pattern string) DeleteWhere

	// Between matches the pending field against an inclusive range.
	Between(low, high any) DeleteWhere
}

// DeleteWhere is the stage with a complete condition: extend it or build.
type DeleteWhere interface {
	// And combines the condition so far with a further comparison on the given field.
	And(field string) DeleteCondition

	// Or alternates the condition so far with a further comparison on the given field.
	Or(field string) DeleteCondition

	// Build finalizes the immutable DeleteQuery.
	Build() (DeleteQuery, error)
}

// deleteBuilder implements all the stage interfaces of the Delete builder.
type deleteBuilder struct {
	query        DeleteQuery
	condition    *Condition
	pendingField string
	pendingOp    Operator
	pendingNot   bool
	err          error
}

func (b deleteBuilder) recordError(err error) deleteBuilder {
	if b.err == nil {
		b.err = err
	}

	return b
}

// From sets the collection to delete from.
func (b deleteBuilder) From(collection string) DeleteQueryBuild {
	b.query.collection = collection

	return b
}

// Where starts the condition with a first field to compare.
func (b deleteBuilder) Where(field string) DeleteCondition {
	if field == "" {
		b = b.recordError(ErrEmptyFieldName)
	}

	b.pendingField = field
	b.pendingOp = ""
	b.pendingNot = false

	return b
}

// And combines the condition so far with a further comparison on the given field.
func (b deleteBuilder) And(field string) DeleteCondition {
	if field == "" {
		b = b.recordError(ErrEmptyFieldName)
	}

	b.pendingField = field
	b.pendingOp = OpAnd
	b.pendingNot = false

	return b
}

// Or alternates the condition so far with a further comparison on the given field.
func (b deleteBuilder) Or(field string) DeleteCondition {
	if field == "" {
		b = b.recordError(ErrEmptyFieldName)
	}

	b.pendingField = field
	b.pendingOp = OpOr
	b.pendingNot = false

	return b
}

// Not negates the comparator that follows.
func (b deleteBuilder) Not() DeleteCondition {
	b.pendingNot = true

	return b
}

func (b deleteBuilder) attach(leaf Condition) deleteBuilder {
	if b.pendingNot {
		leaf = leaf.Negate()
		b.pendingNot = false
	}

	switch {
	case b.condition == nil:
		b.condition = &leaf

	case b.pendingOp == OpOr:
		combined := b.condition.Or(leaf)
		b.condition = &combined

	default:
		combined := b.condition.And(leaf)
		b.condition = &combined
	}

	return b
}

// Eq compares the pending field for equality.
func (b deleteBuilder) Eq(datum any) DeleteWhere {
	return b.attach(Eq(El(b.pendingField, datum)))
}

// Gt compares the pending field for being greater than the datum.
func (b deleteBuilder) Gt(datum any) DeleteWhere {
	return b.attach(Gt(El(b.pendingField, datum)))
}

// Gte compares the pending field for being greater than or equal to the datum.
func (b deleteBuilder) Gte(datum any) DeleteWhere {
	return b.attach(Gte(El(b.pendingField, datum)))
}

// Lt compares the pending field for being lesser than the datum.
func (b deleteBuilder) Lt(datum any) DeleteWhere {
	return b.attach(Lt(El(b.pendingField, datum)))
}

// Lte compares the pending field for being lesser than or equal to the datum.
func (b deleteBuilder) Lte(datum any) DeleteWhere {
	return b.attach(Lte(El(b.pendingField, datum)))
}

// In compares the pending field against every given datum.
func (b deleteBuilder) In(data ...any) DeleteWhere {
	return b.attach(In(El(b.pendingField, slices.Clone(data))))
}

// Like matches the pending field against a pattern.
func (b deleteBuilder) Like(pattern string) DeleteWhere {
	return b.attach(Like(El(b.pendingField, pattern)))
}

// Between matches the pending field against an inclusive range.
func (b deleteBuilder) Between(low, high any) DeleteWhere {
	return b.attach(Between(El(b.pendingField, []any{low, high})))
}

// Build finalizes the immutable DeleteQuery.
// Returns ErrEmptyCollectionName or ErrEmptyFieldName when the call sequence
// supplied empty names.
func (b deleteBuilder) Build() (DeleteQuery, error) {
	if b.err != nil {
		return DeleteQuery{}, b.err
	}

	if b.query.collection == "" {
		return DeleteQuery{}, ErrEmptyCollectionName
	}

	for _, field := range b.query.fields {
		if field == "" {
			return DeleteQuery{}, ErrEmptyFieldName
		}
	}

	query := b.query
	query.condition = b.condition

	return query, nil
}
