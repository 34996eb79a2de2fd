package models

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldError describes one rejected field
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// ValidationErrors is returned by Validate
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fe.Field+" failed "+fe.Rule)
	}
	return "invalid request: " + strings.Join(parts, ", ")
}

// Validate checks the struct's validate tags
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{
			Field: jsonPath(fe.Namespace()),
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return out
}

// jsonPath drops the root type name: "ForecastRequest.series[2].value" becomes "series[2].value"
func jsonPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
