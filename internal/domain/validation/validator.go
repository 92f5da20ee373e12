package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Rule is a custom string check usable by name in validate tags.
type Rule struct {
	Tag     string
	Message string
	Check   func(string) bool
}

// Validator checks tagged structs and reports failures as *Error, one
// entry per field in declaration order. Field names come from json tags.
type Validator struct {
	validate *validator.Validate
	messages map[string]string
}

// New builds a Validator with the given custom rules registered.
func New(rules ...Rule) (*Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	messages := make(map[string]string, len(rules))
	for _, rule := range rules {
		check := rule.Check
		if check == nil {
			return nil, fmt.Errorf("validation rule %q has no check", rule.Tag)
		}
		err := v.RegisterValidation(rule.Tag, func(fl validator.FieldLevel) bool {
			return check(fl.Field().String())
		})
		if err != nil {
			return nil, fmt.Errorf("registering rule %q: %w", rule.Tag, err)
		}
		messages[rule.Tag] = rule.Message
	}
	return &Validator{validate: v, messages: messages}, nil
}

// MustNew is like New but panics if a rule cannot be registered.
func MustNew(rules ...Rule) *Validator {
	v, err := New(rules...)
	if err != nil {
		panic(err)
	}
	return v
}

// Struct validates s. It returns nil, a *Error, or a non-validation error
// when s is not a struct.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &Error{}
	for _, fe := range fieldErrs {
		out.Add(fe.Field(), v.message(fe))
	}
	return out.Err()
}

func (v *Validator) message(fe validator.FieldError) string {
	if msg, ok := v.messages[fe.Tag()]; ok {
		return msg
	}
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		if fe.Param() == "0" {
			return field + " must be a positive integer"
		}
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	}
	return field + " is invalid"
}
