// Package validation runs go-playground/validator over request structs and
// reports failures as field-scoped ValidationErrors keyed by JSON name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/yungbote/foodgram-backend/internal/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// Get returns the shared validator with the custom tags registered.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonName)
		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("notnumeric", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			return strings.Trim(s, "0123456789") != ""
		})
	})
	return validate
}

// UsernameValid reports whether s matches the username pattern.
func UsernameValid(s string) bool {
	return usernamePattern.MatchString(s)
}

// Struct validates s. It returns nil when every rule passes.
func Struct(s any) *pkgerrors.ValidationError {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return pkgerrors.Field("non_field_errors", err.Error())
	}
	out := pkgerrors.NewValidationError()
	for _, fe := range verrs {
		out.Add(fieldKey(fe), message(fe))
	}
	return out
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// fieldKey reduces a namespace such as "RecipeInput.ingredients[0].amount"
// to its top-level JSON field.
func fieldKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if i := strings.IndexAny(ns, ".["); i >= 0 {
		ns = ns[:i]
	}
	if ns == "" {
		return fe.Field()
	}
	return ns
}

func message(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	isList := fe.Kind() == reflect.Slice || fe.Kind() == reflect.Array
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "username":
		return "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
	case "notnumeric":
		return "This password is entirely numeric."
	case "url":
		return "Enter a valid URL."
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	case "min", "gte":
		switch {
		case isString:
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		case isList:
			return fmt.Sprintf("Ensure this field has at least %s elements.", fe.Param())
		default:
			return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
		}
	case "max", "lte":
		switch {
		case isString:
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		case isList:
			return fmt.Sprintf("Ensure this field has no more than %s elements.", fe.Param())
		default:
			return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
		}
	default:
		return "Invalid value."
	}
}
