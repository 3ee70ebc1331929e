package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// ValidationMessage converts validator errors into readable messages
func ValidationMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "is required"
	case "gt":
		return fmt.Sprintf("must be greater than %s", err.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s element(s)", err.Param())
	default:
		return "is invalid"
	}
}
