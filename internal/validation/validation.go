// Package validation checks request structs against their validate tags and
// reports the first failure as a domain error.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"storefront/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Struct validates v and returns a VALIDATION_FAILED error naming the first
// offending field, or nil.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return model.NewValidationError(err.Error())
	}

	fe := fieldErrs[0]
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return model.NewValidationError(fmt.Sprintf("%s is required", field))
	case "email":
		return model.NewValidationError(fmt.Sprintf("%s must be a valid email", field))
	case "min", "max", "gte", "lte":
		return model.NewValidationError(fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
	default:
		return model.NewValidationError(fmt.Sprintf("%s is invalid", field))
	}
}
