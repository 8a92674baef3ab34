package common

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator. Field names in errors use the
// json tag so messages match request bodies.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if tag == "" || tag == "-" {
				return f.Name
			}
			return tag
		})
		validate = v
	})
	return validate
}

// ValidationDetails flattens validator errors into field -> message.
func ValidationDetails(err error) map[string]string {
	details := map[string]string{}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return details
	}
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			details[fe.Field()] = "is required"
		case "min":
			details[fe.Field()] = "must be at least " + fe.Param() + " characters"
		case "max":
			details[fe.Field()] = "must be at most " + fe.Param() + " characters"
		case "email":
			details[fe.Field()] = "must be a valid email"
		default:
			details[fe.Field()] = "is invalid"
		}
	}
	return details
}
