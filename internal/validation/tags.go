package validation

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Tag builds a rule from a validator tag such as "required,email". When
// message is empty the failing tag is described instead.
func Tag(tag, message string) Rule {
	return Rule{
		Message: message,
		Validate: func(value any, _ map[string]any) any {
			err := validate.Var(value, tag)
			if err == nil {
				return true
			}
			if message != "" {
				return false
			}
			var fieldErrs validator.ValidationErrors
			if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
				return Describe(fieldErrs[0].Tag(), fieldErrs[0].Param())
			}
			return err.Error()
		},
	}
}

// TagRules turns a field → tags map into a RulesMap, one rule per tag string.
func TagRules(tags map[string][]string) RulesMap {
	rules := make(RulesMap, len(tags))
	for field, list := range tags {
		for _, tag := range list {
			rules[field] = append(rules[field], Tag(tag, ""))
		}
	}
	return rules
}

// Describe returns a human readable message for a failed validator tag.
func Describe(tag, param string) string {
	switch tag {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "url":
		return "Must be a valid URL"
	case "min":
		return fmt.Sprintf("Must be at least %s", param)
	case "max":
		return fmt.Sprintf("Must be at most %s", param)
	case "len":
		return fmt.Sprintf("Must have length %s", param)
	case "gte":
		return fmt.Sprintf("Must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("Must be less than or equal to %s", param)
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", param)
	default:
		return fmt.Sprintf("Failed on the '%s' rule", tag)
	}
}
