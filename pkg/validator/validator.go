package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]

		if name == "-" {
			return fld.Name
		}

		return name
	})

	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) ([]ValidationError, bool) {
	err := v.validate.Struct(i)
	if err == nil {
		return nil, true
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []ValidationError{{Code: "INVALID", Message: err.Error()}}, false
	}

	result := make([]ValidationError, 0, len(validationErrors))
	for _, err := range validationErrors {
		var message string
		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min", "gte":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max", "lte":
			message = fmt.Sprintf("%s must not exceed %s", err.Field(), err.Param())
		case "oneof":
			message = fmt.Sprintf("%s must be one of [%s]", err.Field(), err.Param())
		default:
			message = fmt.Sprintf("%s failed %s validation", err.Field(), err.Tag())
		}

		result = append(result, ValidationError{
			Field:   err.Field(),
			Code:    strings.ToUpper(err.Tag()),
			Message: message,
		})
	}

	return result, false
}

// Join flattens validation errors into a single error.
func Join(errs []ValidationError) error {
	joined := make([]error, 0, len(errs))
	for _, e := range errs {
		joined = append(joined, e)
	}

	return errors.Join(joined...)
}
