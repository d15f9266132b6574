package nosql

import (
	"slices"
)

/***** Select builder stages *****/

// Select starts building a Query, optionally projecting only the named fields.
// The builder's stage interfaces only allow call sequences that produce a
// well-formed query:
//
//   - Select().From(c)
//   - Select("f1", "f2").From(c)
//   - ... .Where(f).Eq(v)
//   - ... .Where(f).Not().Eq(v)
//   - ... .Where(f).Gt(v).And(f2).Like(p)
//   - ... .Where(f).In(v1, v2).Or(f2).Between(lo, hi)
//   - ... .OrderBy(f).Asc().OrderBy(f2).Desc()
//   - ... .Limit(n).Skip(m)
//   - ... .Build()
//
// Conditions fold left to right: each And / Or combines the condition built
// so far with the next comparison. Build returns an error when the collection
// name or any field name supplied along the way was empty.
func Select(fields ...string) SelectFrom {
	return selectBuilder{query: Query{fields: slices.Clone(fields)}}
}

// SelectFrom names the collection the query runs against.
type SelectFrom interface {
	// From sets the collection to query.
	From(collection string) SelectQueryBuild
}

// SelectQueryBuild is the stage after From: filter, order, bound, or build.
type SelectQueryBuild interface {
	// Where starts the condition with a first field to compare.
	Where(field string) SelectCondition

	// OrderBy adds a sort field; its direction must follow.
	OrderBy(field string) SelectOrder

	// Limit bounds the number of returned entities.
	Limit(limit uint64) SelectLimit

	// Skip skips the first matching entities.
	Skip(skip uint64) SelectSkip

	// Build finalizes the immutable Query.
	Build() (Query, error)
}

// SelectCondition is the stage right after Where, And, or Or: exactly one
// comparator must follow before the query can be built.
type SelectCondition interface {
	// Not negates the comparator that follows.
	Not() SelectCondition

	// Eq compares the pending field for equality.
	Eq(datum any) SelectWhere

	// Gt compares the pending field for being greater than the datum.
	Gt(datum any) SelectWhere

	// Gte compares the pending field for being greater than or equal to the datum.
	Gte(datum any) SelectWhere

	// Lt compares the pending field for being lesser than the datum.
	Lt(datum any) SelectWhere

	// Lte compares the pending field for being lesser than or equal to the datum.
	Lte(datum any) SelectWhere

	// In compares the pending field against every given datum.
	In(data ...any) SelectWhere

	// Like matches the pending field against a pattern where % stands for
	// any run of characters and _ for a single one.
	Like(pattern string) SelectWhere

	// Between matches the pending field against an inclusive range.
	Between(low, high any) SelectWhere
}

// SelectWhere is the stage with a complete condition: extend it, order,
// bound, or build.
type SelectWhere interface {
	// And combines the condition so far with a further comparison on the given field.
	And(field string) SelectCondition

	// Or alternates the condition so far with a further comparison on the given field.
	Or(field string) SelectCondition

	// OrderBy adds a sort field; its direction must follow.
	OrderBy(field string) SelectOrder

	// Limit bounds the number of returned entities.
	Limit(limit uint64) SelectLimit

	// Skip skips the first matching entities.
	Skip(skip uint64) SelectSkip

	// Build finalizes the immutable Query.
	Build() (Query, error)
}

// SelectOrder is the stage right after OrderBy: the direction must follow.
type SelectOrder interface {
	// Asc sorts the pending field ascending.
	Asc() SelectOrdered

	// Desc sorts the pending field descending.
	Desc() SelectOrdered
}

// SelectOrdered is the stage after a completed sort directive.
type SelectOrdered interface {
	// OrderBy adds a further sort field; its direction must follow.
	OrderBy(field string) SelectOrder

	// Limit bounds the number of returned entities.
	Limit(limit uint64) SelectLimit

	// Skip skips the first matching entities.
	Skip(skip uint64) SelectSkip

	// Build finalizes the immutable Query.
	Build() (Query, error)
}

// SelectLimit is the stage after Limit.
type SelectLimit interface {
	// Skip skips the first matching entities.
	Skip(skip uint64) SelectSkip

	// Build finalizes the immutable Query.
	Build() (Query, error)
}

// SelectSkip is the stage after Skip.
type SelectSkip interface {
	// Build finalizes the immutable Query.
	Build() (Query, error)
}

// selectBuilder implements all the stage interfaces of the Select builder.
type selectBuilder struct {
	query        Query
	condition    *Condition
	pendingField string
	pendingOp    Operator
	pendingNot   bool
	pendingSort  string
	err          error
}

// recordError keeps the first validation error for Build to report.
func (b selectBuilder) recordError(err error) selectBuilder {
	if b.err == nil {
		b.err = err
	}

	return b
}

// From sets the collection to query.
func (b selectBuilder) From(collection string) SelectQueryBuild {
	b.query.collection = collection

	return b
}

// Where starts the condition with a first field to compare.
func (b selectBuilder) Where(field string) SelectCondition {
	if field == "" {
		b = b.recordError(ErrEmptyFieldName)
	}

	b.pendingField = field
	b.pendingOp = ""
	b.pendingNot = false

	return b
}

// And combines the condition so far with a further comparison on the given field.
func (b selectBuilder) And(field string) SelectCondition {
	if field == "" {
		b = b.recordError(ErrEmptyFieldName)
	}

	b.pendingField = field
	b.pendingOp = OpAnd
	b.pendingNot = false

	return b
}

// Or alternates the condition so far with a further comparison on the given field.
func (b selectBuilder) Or(field string) SelectCondition {
	if field == "" {
		b = b.recordError(ErrEmptyFieldName)
	}

	b.pendingField = field
	b.pendingOp = OpOr
	b.pendingNot = false

	return b
}

// Not negates the comparator that follows.
func (b selectBuilder) Not() SelectCondition {
	b.pendingNot = true

	return b
}

// attach folds a completed leaf into the condition built so far.
func (b selectBuilder) attach(leaf Condition) selectBuilder {
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
func (b selectBuilder) Eq(datum any) SelectWhere {
	return b.attach(Eq(El(b.pendingField, datum)))
}

// Gt compares the pending field for being greater than the datum.
func (b selectBuilder) Gt(datum any) SelectWhere {
	return b.attach(Gt(El(b.pendingField, datum)))
}

// Gte compares the pending field for being greater than or equal to the datum.
func (b selectBuilder) Gte(datum any) SelectWhere {
	return b.attach(Gte(El(b.pendingField, datum)))
}

// Lt compares the pending field for being lesser than the datum.
func (b selectBuilder) Lt(datum any) SelectWhere {
	return b.attach(Lt(El(b.pendingField, datum)))
}

// Lte compares the pending field for being lesser than or equal to the datum.
func (b selectBuilder) Lte(datum any) SelectWhere {
	return b.attach(Lte(El(b.pendingField, datum)))
}

// In compares the pending field against every given datum.
func (b selectBuilder) In(data ...any) SelectWhere {
	return b.attach(In(El(b.pendingField, slices.Clone(data))))
}

// Like matches the pending field against a pattern.
func (b selectBuilder) Like(pattern string) SelectWhere {
	return b.attach(Like(El(b.pendingField, pattern)))
}

// Between matches the pending field against an inclusive range.
func (b selectBuilder) Between(low, high any) SelectWhere {
	return b.attach(Between(El(b.pendingField, []any{low, high})))
}

// OrderBy adds a sort field; its direction must follow.
func (b selectBuilder) OrderBy(field string) SelectOrder {
	if field == "" {
		b = b.recordError(ErrEmptyFieldName)
	}

	b.pendingSort = field

	return b
}

// Asc sorts the pending field ascending.
func (b selectBuilder) Asc() SelectOrdered {
	b.query.sorts = append(slices.Clone(b.query.sorts), Asc(b.pendingSort))

	return b
}

// Desc sorts the pending field descending.
func (b selectBuilder) Desc() SelectOrdered {
	b.query.sorts = append(slices.Clone(b.query.sorts), Desc(b.pendingSort))

	return b
}

// Limit bounds the number of returned entities.
func (b selectBuilder) Limit(limit uint64) SelectLimit {
	b.query.limit = limit

	return b
}

// Skip skips the first matching entities.
func (b selectBuilder) Skip(skip uint64) SelectSkip {
	b.query.skip = skip

	return b
}

// Build finalizes the immutable Query.
// Returns ErrEmptyCollectionName or ErrEmptyFieldName when the call sequence
// supplied empty names.
func (b selectBuilder) Build() (Query, error) {
	if b.err != nil {
		return Query{}, b.err
	}

	if b.query.collection == "" {
		return Query{}, ErrEmptyCollectionName
	}

	for _, field := range b.query.fields {
		if field == "" {
			return Query{}, ErrEmptyFieldName
		}
	}

	query := b.query
	query.condition = b.condition

	return query, nil
}
