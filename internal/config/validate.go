package config

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"trackerdeploy/internal/errors"
)

var environmentNamePattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their TOML key
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("envname", func(fl validator.FieldLevel) bool {
		return ValidEnvironmentName(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// ValidEnvironmentName reports whether name can be used as an environment
// name: lowercase letters, digits and inner hyphens, at most 63 characters
func ValidEnvironmentName(name string) bool {
	return environmentNamePattern.MatchString(name)
}

// validateStruct runs the tag validation and converts the result into a
// CONFIG_VALIDATION error listing every failing field
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.Wrap(errors.ErrConfigValidation, "Configuration validation failed", err)
	}

	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, describeFieldError(fe))
	}
	first := verrs[0]
	return errors.ConfigValidationError(fieldPath(first), strings.Join(problems, "; ")).
		WithCause(err).
		WithContext("fields", len(verrs))
}

// fieldPath drops the root struct name from the namespace
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describeFieldError(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be an email address", field)
	case "fqdn":
		return fmt.Sprintf("%s must be a fully qualified domain name", field)
	case "cron":
		return fmt.Sprintf("%s must be a cron expression", field)
	case "envname":
		return fmt.Sprintf("%s must contain lowercase letters, digits and hyphens", field)
	default:
		return fmt.Sprintf("%s failed the %q check", field, fe.Tag())
	}
}
