package validation

import (
	"sort"

	"github.com/suar-net/suar-reactive/internal/reactive"
)

// Engine exposes the derived validation state of a set of values.
type Engine struct {
	Fields  *reactive.Computed[map[string]FieldState]
	Errors  *reactive.Computed[map[string][]string]
	IsValid *reactive.Computed[bool]
}

// New derives validation state from values and rules. Either input may be a
// static value or a reactive cell; results follow every change of either.
func New(values reactive.Source[map[string]any], rules reactive.Source[RulesMap]) *Engine {
	e := &Engine{}
	e.Fields = reactive.Derive(func() map[string]FieldState {
		return Evaluate(reactive.Unwrap(values), reactive.Unwrap(rules))
	}, values, rules)

	e.Errors = reactive.Derive(func() map[string][]string {
		fields := e.Fields.Read()
		errs := make(map[string][]string, len(fields))
		for name, state := range fields {
			errs[name] = state.Errors
		}
		return errs
	}, e.Fields)

	e.IsValid = reactive.Derive(func() bool {
		for _, state := range e.Fields.Read() {
			if !state.Valid {
				return false
			}
		}
		return true
	}, e.Fields)

	return e
}

// Close unlinks the engine from its inputs so a long-lived values or rules
// cell no longer holds on to it. Reads keep working but are not cached.
func (e *Engine) Close() {
	e.Fields.Detach()
	e.Errors.Detach()
	e.IsValid.Detach()
}

// GetFieldState returns the state of name. Unknown fields are valid.
func (e *Engine) GetFieldState(name string) FieldState {
	state, ok := e.Fields.Read()[name]
	if !ok {
		return FieldState{Valid: true, Errors: []string{}}
	}
	return state
}

// ValidateField reports whether name is currently valid.
func (e *Engine) ValidateField(name string) bool {
	return e.GetFieldState(name).Valid
}

// ValidateAll reports whether every field is currently valid.
func (e *Engine) ValidateAll() bool {
	return e.IsValid.Read()
}

// Evaluate computes the state of every field present in values or rules.
func Evaluate(values map[string]any, rules RulesMap) map[string]FieldState {
	if values == nil {
		values = map[string]any{}
	}

	keys := make(map[string]struct{}, len(values)+len(rules))
	for k := range values {
		keys[k] = struct{}{}
	}
	for k := range rules {
		keys[k] = struct{}{}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	fields := make(map[string]FieldState, len(names))
	for _, name := range names {
		errs := []string{}
		for _, rule := range rules[name] {
			if msg, failed := EvaluateRule(rule, values[name], values); failed {
				errs = append(errs, msg)
			}
		}
		fields[name] = FieldState{Valid: len(errs) == 0, Errors: errs}
	}
	return fields
}
