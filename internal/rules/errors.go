package rules

import "errors"

var (
	// ErrRuleNotFound is returned by catalog lookups for unknown rule IDs.
	ErrRuleNotFound = errors.New("automation rule not found")

	// ErrValidation wraps malformed rule or condition shapes, such as a
	// non-numeric value compared numerically.
	ErrValidation = errors.New("validation failed")
)
