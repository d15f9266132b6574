package nosql

import (
	"slices"
)

// Operator identifies how a Condition compares or combines.
type Operator string

// Comparison and combination operators. Engines translate these into their
// native query language; an engine that cannot express one fails the
// operation with ErrUnsupportedOperation instead of approximating it.
const (
	OpEquals            Operator = "EQUALS"
	OpGreaterThan       Operator = "GREATER_THAN"
	OpGreaterEqualsThan Operator = "GREATER_EQUALS_THAN"
	OpLesserThan        Operator = "LESSER_THAN"
	OpLesserEqualsThan  Operator = "LESSER_EQUALS_THAN"
	OpIn                Operator = "IN"
	OpLike              Operator = "LIKE"
	OpBetween           Operator = "BETWEEN"
	OpAnd               Operator = "AND"
	OpOr                Operator = "OR"
	OpNot               Operator = "NOT"
)

// Condition is one node of an immutable condition tree.
//
// A leaf holds a comparison operator and the Element it compares against; a
// combinator holds OpAnd, OpOr, or OpNot and child conditions. And and Or
// derive new trees and flatten nested combinators of the same operator, so
// a.And(b).And(c) holds three children rather than nesting. Negate always
// wraps, it never cancels a previous Negate.
type Condition struct {
	operator Operator
	element  Element
	children []Condition
}

// Eq matches entities whose field equals the element's value.
func Eq(element Element) Condition {
	return Condition{operator: OpEquals, element: element}
}

// Gt matches entities whose field is greater than the element's value.
func Gt(element Element) Condition {
	return Condition{operator: OpGreaterThan, element: element}
}

// Gte matches entities whose field is greater than or equal to the element's value.
func Gte(element Element) Condition {
	return Condition{operator: OpGreaterEqualsThan, element: element}
}

// Lt matches entities whose field is lesser than the element's value.
func Lt(element Element) Condition {
	return Condition{operator: OpLesserThan, element: element}
}

// Lte matches entities whose field is lesser than or equal to the element's value.
func Lte(element Element) Condition {
	return Condition{operator: OpLesserEqualsThan, element: element}
}

// In matches entities whose field equals any entry of the element's value,
// which should hold a container datum.
func In(element Element) Condition {
	return Condition{operator: OpIn, element: element}
}

// Like matches entities whose textual field matches the element's value as a
// pattern, where % stands for any run of characters and _ for a single one.
func Like(element Element) Condition {
	return Condition{operator: OpLike, element: element}
}

// Between matches entities whose field lies in the inclusive range held by
// the element's value, which must be a container of exactly two data.
func Between(element Element) Condition {
	return Condition{operator: OpBetween, element: element}
}

// And derives a condition requiring both c and other to match.
// When c already is an AND combinator, other joins its children.
func (c Condition) And(other Condition) Condition {
	if c.operator == OpAnd {
		return Condition{operator: OpAnd, children: append(slices.Clone(c.children), other)}
	}

	return Condition{operator: OpAnd, children: []Condition{c, other}}
}

// Or derives a condition requiring either c or other to match.
// When c already is an OR combinator, other joins its children.
func (c Condition) Or(other Condition) Condition {
	if c.operator == OpOr {
		return Condition{operator: OpOr, children: append(slices.Clone(c.children), other)}
	}

	return Condition{operator: OpOr, children: []Condition{c, other}}
}

// Negate derives the logical negation of c.
func (c Condition) Negate() Condition {
	return Condition{operator: OpNot, children: []Condition{c}}
}

// Operator returns the node's operator.
func (c Condition) Operator() Operator {
	return c.operator
}

// Element returns the compared element. It is only meaningful on leaf nodes;
// combinators return a zero Element.
func (c Condition) Element() Element {
	return c.element
}

// Conditions returns a copy of the child conditions. It is only meaningful
// on combinator nodes; leaves return nil.
func (c Condition) Conditions() []Condition {
	return slices.Clone(c.children)
}
