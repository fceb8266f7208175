package rules

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/careline/intake-platform/internal/domain"
)

// EvaluateCondition applies one condition against the state map. A field
// path that does not resolve satisfies not_equals and fails every other
// operator. Malformed values (non-numeric compared numerically, bad
// range bounds) return an error wrapping ErrValidation.
func EvaluateCondition(cond domain.Condition, state map[string]interface{}) (bool, error) {
	val, ok := ResolvePath(state, cond.Field)
	if !ok {
		return cond.Operator == domain.OpNotEquals, nil
	}

	switch cond.Operator {
	case domain.OpEquals:
		return looseEquals(val, cond.Value), nil
	case domain.OpNotEquals:
		return !looseEquals(val, cond.Value), nil
	case domain.OpGreaterThan:
		a, b, err := numericPair(cond.Field, val, cond.Value)
		if err != nil {
			return false, err
		}
		return a > b, nil
	case domain.OpLessThan:
		a, b, err := numericPair(cond.Field, val, cond.Value)
		if err != nil {
			return false, err
		}
		return a < b, nil
	case domain.OpContains:
		haystack := strings.ToLower(fmt.Sprintf("%v", val))
		needle := strings.ToLower(fmt.Sprintf("%v", cond.Value))
		return strings.Contains(haystack, needle), nil
	case domain.OpInRange:
		lo, hi, err := rangeBounds(cond.Field, cond.Value)
		if err != nil {
			return false, err
		}
		n, err := toFloat(val)
		if err != nil {
			return false, fmt.Errorf("%w: field %s is not numeric: %v", ErrValidation, cond.Field, val)
		}
		return n >= lo && n <= hi, nil
	default:
		return false, fmt.Errorf("%w: unknown operator %q", ErrValidation, cond.Operator)
	}
}

// EvaluateChain evaluates conditions strictly left to right without
// short-circuiting. The running result starts at true and combines with
// AND; after each step, the step's OWN logical operator (default AND)
// becomes the combinator for the NEXT step. An empty chain is vacuously
// true.
//
// This ordering means a condition's logical operator governs how the
// following condition joins the chain, not itself. Existing rule
// catalogs depend on it, so it is a compatibility contract.
func EvaluateChain(conds []domain.Condition, state map[string]interface{}) (bool, error) {
	result := true
	op := domain.LogicAnd

	for _, cond := range conds {
		stepResult, err := EvaluateCondition(cond, state)
		if err != nil {
			return false, err
		}

		if op == domain.LogicOr {
			result = result || stepResult
		} else {
			result = result && stepResult
		}

		op = cond.Logical
		if op == "" {
			op = domain.LogicAnd
		}
	}

	return result, nil
}

// looseEquals compares values by normalized string form so that state
// values (e.g. int 3) match catalog values (e.g. float64 3 after JSON
// decoding, or the string "3").
func looseEquals(a, b interface{}) bool {
	if fa, errA := toFloat(a); errA == nil {
		if fb, errB := toFloat(b); errB == nil {
			return fa == fb
		}
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func numericPair(field string, val, condValue interface{}) (float64, float64, error) {
	a, err := toFloat(val)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: field %s is not numeric: %v", ErrValidation, field, val)
	}
	b, err := toFloat(condValue)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: comparison value for %s is not numeric: %v", ErrValidation, field, condValue)
	}
	return a, b, nil
}

// rangeBounds extracts [lo, hi] from a two-element condition value.
func rangeBounds(field string, condValue interface{}) (float64, float64, error) {
	var raw []interface{}
	switch v := condValue.(type) {
	case []interface{}:
		raw = v
	case []float64:
		for _, f := range v {
			raw = append(raw, f)
		}
	case []int:
		for _, n := range v {
			raw = append(raw, n)
		}
	default:
		return 0, 0, fmt.Errorf("%w: in_range value for %s must be a two-element list", ErrValidation, field)
	}
	if len(raw) != 2 {
		return 0, 0, fmt.Errorf("%w: in_range value for %s must have exactly two bounds", ErrValidation, field)
	}

	lo, err := toFloat(raw[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: in_range lower bound for %s is not numeric", ErrValidation, field)
	}
	hi, err := toFloat(raw[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: in_range upper bound for %s is not numeric", ErrValidation, field)
	}
	return lo, hi, nil
}

func toFloat(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("not numeric: %T", v)
	}
}
