// Package validation derives per-field validity and error messages from a
// set of values and a map of rules. Nothing is stored: every result is
// recomputed from the current inputs.
package validation

import (
	"fmt"
	"strings"
)

// DefaultMessage is reported when a validator returns false and its rule has
// no message of its own.
const DefaultMessage = "Invalid value"

// ValidatorFunc checks value, with access to every current value. It returns
// a non-blank string (the error message), false (invalid, use the rule's
// message) or anything else (valid).
type ValidatorFunc func(value any, values map[string]any) any

// Rule is a validator with an optional fallback message.
type Rule struct {
	Validate ValidatorFunc
	Message  string
}

// RulesMap maps a field name to its rules in evaluation order.
type RulesMap map[string][]Rule

// FieldState is the derived state of one field.
type FieldState struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Check wraps a bare validator into a rule without a message.
func Check(fn ValidatorFunc) Rule {
	return Rule{Validate: fn}
}

// EvaluateRule runs rule against value and returns its error message, if any.
// A panicking validator is reported as an error on the field.
func EvaluateRule(rule Rule, value any, values map[string]any) (msg string, failed bool) {
	if rule.Validate == nil {
		return "", false
	}
	defer func() {
		if r := recover(); r != nil {
			msg, failed = fmt.Sprintf("validator panicked: %v", r), true
		}
	}()

	switch result := rule.Validate(value, values).(type) {
	case string:
		if strings.TrimSpace(result) == "" {
			return "", false
		}
		return result, true
	case bool:
		if result {
			return "", false
		}
		if rule.Message != "" {
			return rule.Message, true
		}
		return DefaultMessage, true
	}
	return "", false
}
