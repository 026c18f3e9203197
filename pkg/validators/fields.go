package validators

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps form field names to their validation messages
type FieldErrors map[string][]string

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// gin only looks at "binding", so binding a form decodes it without
	// validating. Forms are normalized first and validated here
	v.SetTagName("validate")
	v.RegisterTagNameFunc(fieldName)

	return v
}

func fieldName(f reflect.StructField) string {
	name := strings.Split(f.Tag.Get("form"), ",")[0]
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}

	return name
}

// Struct validates v using its validate tags
func Struct(v any) FieldErrors {
	return Describe(structValidator.Struct(v))
}

// Describe turns validation errors into per field messages. Returns nil
// when err isn't a validation error
func Describe(err error) FieldErrors {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	fields := FieldErrors{}
	for _, fe := range verrs {
		name := fe.Field()
		// Errors produced by gin's validator use the struct field name
		if fe.StructField() == name {
			name = snake(name)
		}

		fields[name] = append(fields[name], message(fe))
	}

	return fields
}

// Summary returns a single line describing fields
func (f FieldErrors) Summary() string {
	var first, msg string
	total := 0

	for name, list := range f {
		total += len(list)
		if (first == "" || name < first) && len(list) > 0 {
			first, msg = name, list[0]
		}
	}

	if first == "" {
		return "validation failed"
	}

	label := strings.ReplaceAll(first, "_", " ")
	if total > 1 {
		return fmt.Sprintf("%s %s, and %d other error(s)", label, msg, total-1)
	}

	return label + " " + msg
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "numeric":
		return "must contain digits only"
	case "eqfield":
		return "must match " + snake(fe.Param())
	default:
		return "is invalid"
	}
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
		}
		b.WriteRune(r)
	}

	return strings.ToLower(b.String())
}
