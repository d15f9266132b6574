package memoryengine

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/polystore-db/polystore-go/nosql"
)

// matches evaluates a condition tree against one entity.
//
// Comparisons on a field the entity does not carry never match, the way SQL
// treats comparisons with NULL. Ordered comparisons coerce both sides onto
// the first rung both can reach: number, then timestamp, then string; sides
// that meet on no rung do not match either.
func matches(entity *nosql.Entity, condition nosql.Condition) (bool, error) {
	switch condition.Operator() {
	case nosql.OpAnd:
		for _, child := range condition.Conditions() {
			ok, err := matches(entity, child)
			if err != nil || !ok {
				return false, err
			}
		}

		return true, nil

	case nosql.OpOr:
		for _, child := range condition.Conditions() {
			ok, err := matches(entity, child)
			if err != nil {
				return false, err
			}

			if ok {
				return true, nil
			}
		}

		return false, nil

	case nosql.OpNot:
		children := condition.Conditions()
		if len(children) != 1 {
			return false, fmt.Errorf("negation must wrap exactly one condition, got %d", len(children))
		}

		ok, err := matches(entity, children[0])
		if err != nil {
			return false, err
		}

		return !ok, nil
	}

	return matchesLeaf(entity, condition)
}

func matchesLeaf(entity *nosql.Entity, condition nosql.Condition) (bool, error) {
	element := condition.Element()

	stored, found := entity.Find(element.Name())
	if !found {
		return false, nil
	}

	wanted := element.Get()

	switch condition.Operator() {
	case nosql.OpEquals:
		return dataEqual(stored.Get(), wanted), nil

	case nosql.OpGreaterThan:
		return orderedMatch(stored.Get(), wanted, func(cmp int) bool { return cmp > 0 }), nil

	case nosql.OpGreaterEqualsThan:
		return orderedMatch(stored.Get(), wanted, func(cmp int) bool { return cmp >= 0 }), nil

	case nosql.OpLesserThan:
		return orderedMatch(stored.Get(), wanted, func(cmp int) bool { return cmp < 0 }), nil

	case nosql.OpLesserEqualsThan:
		return orderedMatch(stored.Get(), wanted, func(cmp int) bool { return cmp <= 0 }), nil

	case nosql.OpIn:
		for _, candidate := range containerElements(wanted) {
			if dataEqual(stored.Get(), candidate) {
				return true, nil
			}
		}

		return false, nil

	case nosql.OpLike:
		return likeMatch(stored.Get(), wanted)

	case nosql.OpBetween:
		bounds := containerElements(wanted)
		if len(bounds) != 2 {
			return false, fmt.Errorf("between condition on %q needs exactly two bounds, got %d", element.Name(), len(bounds))
		}

		return orderedMatch(stored.Get(), bounds[0], func(cmp int) bool { return cmp >= 0 }) &&
			orderedMatch(stored.Get(), bounds[1], func(cmp int) bool { return cmp <= 0 }), nil
	}

	return false, fmt.Errorf("%w: operator %s", nosql.ErrUnsupportedOperation, condition.Operator())
}

func orderedMatch(stored, wanted any, accept func(cmp int) bool) bool {
	cmp, err := compareData(stored, wanted)
	if err != nil {
		return false
	}

	return accept(cmp)
}

// dataEqual reports whether two raw data are equal, either structurally or on
// a common comparison rung.
func dataEqual(stored, wanted any) bool {
	if reflect.DeepEqual(stored, wanted) {
		return true
	}

	cmp, err := compareData(stored, wanted)

	return err == nil && cmp == 0
}

// compareData compares two raw data on the first rung both can be coerced to:
// number, then timestamp, then string.
func compareData(stored, wanted any) (int, error) {
	if storedNumber, err := nosql.As[float64](nosql.ValueOf(stored)); err == nil {
		if wantedNumber, err := nosql.As[float64](nosql.ValueOf(wanted)); err == nil {
			return compareFloats(storedNumber, wantedNumber), nil
		}
	}

	if storedTime, err := nosql.As[time.Time](nosql.ValueOf(stored)); err == nil {
		if wantedTime, err := nosql.As[time.Time](nosql.ValueOf(wanted)); err == nil {
			return storedTime.Compare(wantedTime), nil
		}
	}

	storedString, err := nosql.As[string](nosql.ValueOf(stored))
	if err != nil {
		return 0, err
	}

	wantedString, err := nosql.As[string](nosql.ValueOf(wanted))
	if err != nil {
		return 0, err
	}

	return strings.Compare(storedString, wantedString), nil
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// likeMatch matches the stored datum against a pattern where % stands for any
// run of characters and _ for exactly one.
func likeMatch(stored, pattern any) (bool, error) {
	text, err := nosql.As[string](nosql.ValueOf(stored))
	if err != nil {
		return false, nil
	}

	patternString, err := nosql.As[string](nosql.ValueOf(pattern))
	if err != nil {
		return false, err
	}

	expr := "(?s)^" + strings.NewReplacer("%", ".*", "_", ".").Replace(regexp.QuoteMeta(patternString)) + "$"

	matched, err := regexp.MatchString(expr, text)
	if err != nil {
		return false, err
	}

	return matched, nil
}

// containerElements enumerates a slice or array datum; any other datum is
// treated as a single-element container.
func containerElements(datum any) []any {
	if datum == nil {
		return nil
	}

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
