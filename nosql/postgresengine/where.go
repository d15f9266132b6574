package postgresengine

import (
	"fmt"
	"reflect"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/polystore-db/polystore-go/nosql"
)

// translateCondition turns a condition tree into a goqu expression over the
// jsonb record column. Comparators that cannot be expressed for the given
// operand fail with ErrUnsupportedOperation.
func (s *Store) translateCondition(condition nosql.Condition) (goqu.Expression, error) {
	switch condition.Operator() {
	case nosql.OpAnd:
		children, err := s.translateChildren(condition)
		if err != nil {
			return nil, err
		}

		return goqu.And(children...), nil

	case nosql.OpOr:
		children, err := s.translateChildren(condition)
		if err != nil {
			return nil, err
		}

		return goqu.Or(children...), nil

	case nosql.OpNot:
		children := condition.Conditions()
		if len(children) != 1 {
			return nil, fmt.Errorf("negation must wrap exactly one condition, got %d", len(children))
		}

		inner, err := s.translateCondition(children[0])
		if err != nil {
			return nil, err
		}

		return goqu.L(exprNot, inner), nil

	default:
		return s.translateLeaf(condition)
	}
}

func (s *Store) translateChildren(condition nosql.Condition) ([]goqu.Expression, error) {
	children := condition.Conditions()
	expressions := make([]goqu.Expression, 0, len(children))

	for _, child := range children {
		expression, err := s.translateCondition(child)
		if err != nil {
			return nil, err
		}

		expressions = append(expressions, expression)
	}

	return expressions, nil
}

//nolint:cyclop
func (s *Store) translateLeaf(condition nosql.Condition) (goqu.Expression, error) {
	field := condition.Element().Name()

	datum, err := s.codec.storableDatum(condition.Element().Get())
	if err != nil {
		return nil, err
	}

	switch condition.Operator() {
	case nosql.OpEquals:
		pair, err := s.codec.encodePair(field, datum)
		if err != nil {
			return nil, err
		}

		return goqu.L(exprContains, pair), nil

	case nosql.OpGreaterThan:
		expression, operand, err := orderedOperand(field, datum)
		if err != nil {
			return nil, err
		}

		return expression.Gt(operand), nil

	case nosql.OpGreaterEqualsThan:
		expression, operand, err := orderedOperand(field, datum)
		if err != nil {
			return nil, err
		}

		return expression.Gte(operand), nil

	case nosql.OpLesserThan:
		expression, operand, err := orderedOperand(field, datum)
		if err != nil {
			return nil, err
		}

		return expression.Lt(operand), nil

	case nosql.OpLesserEqualsThan:
		expression, operand, err := orderedOperand(field, datum)
		if err != nil {
			return nil, err
		}

		return expression.Lte(operand), nil

	case nosql.OpIn:
		return s.translateIn(field, datum)

	case nosql.OpLike:
		pattern, err := nosql.As[string](nosql.ValueOf(datum))
		if err != nil {
			return nil, fmt.Errorf("like condition on %q needs a textual pattern: %w", field, err)
		}

		return goqu.L(exprFieldText, field).Like(pattern), nil

	case nosql.OpBetween:
		return s.translateBetween(field, datum)

	default:
		return nil, fmt.Errorf("%w: operator %s", nosql.ErrUnsupportedOperation, condition.Operator())
	}
}

// translateIn matches the field against every entry by jsonb equality, which
// keeps numbers numeric and strings textual.
func (s *Store) translateIn(field string, datum any) (goqu.Expression, error) {
	entries := conditionEntries(datum)
	if len(entries) == 0 {
		return goqu.L(exprNoMatch), nil
	}

	values := make([]any, 0, len(entries))

	for _, entry := range entries {
		encoded, err := s.codec.encodeDatum(entry)
		if err != nil {
			return nil, err
		}

		values = append(values, goqu.L(castJSONB, encoded))
	}

	return goqu.L(exprFieldJSONB, field).In(values...), nil
}

func (s *Store) translateBetween(field string, datum any) (goqu.Expression, error) {
	bounds := conditionEntries(datum)
	if len(bounds) != 2 {
		return nil, fmt.Errorf("between condition on %q needs exactly two bounds, got %d", field, len(bounds))
	}

	expression, low, err := orderedOperand(field, bounds[0])
	if err != nil {
		return nil, err
	}

	_, high, err := orderedOperand(field, bounds[1])
	if err != nil {
		return nil, err
	}

	return expression.Between(goqu.Range(low, high)), nil
}

// orderedOperand extracts the field as the SQL type matching the operand:
// numeric for numbers, timestamptz for times, text otherwise. The operand is
// coerced so the driver sends a value of the matching type.
func orderedOperand(field string, datum any) (exp.LiteralExpression, any, error) {
	if boxed, ok := datum.(nosql.Value); ok {
		datum = boxed.Get()
	}

	if _, ok := datum.(time.Time); ok {
		return goqu.L(exprFieldTimestamp, field), datum, nil
	}

	if datum != nil && isNumericKind(reflect.TypeOf(datum).Kind()) {
		return goqu.L(exprFieldNumeric, field), datum, nil
	}

	if datum == nil {
		return goqu.L(exprFieldText, field), nil, nil
	}

	rendered, err := nosql.As[string](nosql.ValueOf(datum))
	if err != nil {
		return nil, nil, fmt.Errorf("ordered condition on %q: %w", field, err)
	}

	return goqu.L(exprFieldText, field), rendered, nil
}

func isNumericKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// conditionEntries enumerates a container datum, or wraps a single datum in a
// one-entry list.
func conditionEntries(datum any) []any {
	if datum == nil {
		return nil
	}

	if boxed, ok := datum.(nosql.Value); ok {
		datum = boxed.Get()
	}

	rv := reflect.ValueOf(datum)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		entries := make([]any, rv.Len())
		for i := range rv.Len() {
			entries[i] = rv.Index(i).Interface()
		}

		return entries
	default:
		return []any{datum}
	}
}
