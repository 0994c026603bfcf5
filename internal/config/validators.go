package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/idelchi/gogen/pkg/validator"
)

// register adds the custom validations with their messages and reports fields by their flag names.
func register(v *validator.Validator) error {
	rules := []struct {
		tag      string
		fn       func(validator.FieldLevel) bool
		template string
	}{
		{tag: "exclusive", fn: validateExclusive, template: "{0} is mutually exclusive with {1}"},
		{tag: "differs", fn: validateDiffers, template: "{0} must differ from {1}"},
		{tag: "suffix", fn: validateSuffix, template: "{0} must start with '.' and must not contain a path separator"},
	}

	for _, rule := range rules {
		if err := v.RegisterValidationAndTranslation(rule.tag, rule.fn, rule.template); err != nil {
			return fmt.Errorf("registering %s validation: %w", rule.tag, err)
		}
	}

	v.Validator().RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := labelOf(fld); name != "" {
			return name
		}

		return fld.Name
	})

	return nil
}

// validateExclusive checks that a field and the field labelled by the parameter are not both set.
func validateExclusive(fl validator.FieldLevel) bool {
	field := fl.Field()
	otherField := byLabel(fl.Parent(), fl.Param())

	if !field.IsValid() || !otherField.IsValid() {
		return true
	}

	return field.IsZero() || otherField.IsZero()
}

// validateDiffers checks that a string field does not equal the field labelled by the parameter.
func validateDiffers(fl validator.FieldLevel) bool {
	field := fl.Field()
	otherField := byLabel(fl.Parent(), fl.Param())

	if field.Kind() != reflect.String || otherField.Kind() != reflect.String {
		return true
	}

	return field.String() != otherField.String()
}

// validateSuffix accepts file name suffixes such as ".encrypted".
func validateSuffix(fl validator.FieldLevel) bool {
	suffix := fl.Field().String()

	return len(suffix) > 1 &&
		strings.HasPrefix(suffix, ".") &&
		!strings.ContainsAny(suffix, "/"+string(filepath.Separator))
}

// byLabel returns the field of parent whose label is name, or the field called name.
// The zero Value is returned when neither exists.
func byLabel(parent reflect.Value, name string) reflect.Value {
	parent = reflect.Indirect(parent)
	if parent.Kind() != reflect.Struct {
		return reflect.Value{}
	}

	typ := parent.Type()

	for i := range typ.NumField() {
		if labelOf(typ.Field(i)) == name {
			return parent.Field(i)
		}
	}

	return parent.FieldByName(name)
}

func labelOf(fld reflect.StructField) string {
	const splitSize = 2

	name := strings.SplitN(fld.Tag.Get("label"), ",", splitSize)[0]
	if name == "-" {
		return ""
	}

	return name
}
