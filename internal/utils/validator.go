// internal/utils/validator.go
package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

var platformPattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,49}$`)

func init() {
	validate = validator.New()
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	validate.RegisterValidation("platform", validatePlatform)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidateRequest validates s and wraps failures into a VALIDATION_ERROR
// carrying the per-field details.
func ValidateRequest(s interface{}) error {
	if err := ValidateStruct(s); err != nil {
		return ValidationWithDetails("Invalid input", GetValidationErrors(err))
	}
	return nil
}

// decimalValue lets numeric tags like gte and lte apply to decimal fields.
func decimalValue(field reflect.Value) interface{} {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validatePlatform(fl validator.FieldLevel) bool {
	return platformPattern.MatchString(fl.Field().String())
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   strings.ToLower(e.Field()),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return e.Field() + " must be at least " + e.Param()
	case "max":
		return e.Field() + " must be at most " + e.Param()
	case "gte":
		return e.Field() + " must be greater than or equal to " + e.Param()
	case "lte":
		return e.Field() + " must be less than or equal to " + e.Param()
	case "gt":
		return e.Field() + " must be greater than " + e.Param()
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "uuid":
		return e.Field() + " must be a valid id"
	case "platform":
		return "Platform must be a lowercase name such as instagram or tiktok"
	default:
		return e.Field() + " is invalid"
	}
}
