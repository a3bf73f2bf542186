package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/benvon/taskcloud/internal/models"
	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name so messages match what clients send
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := Validate.RegisterValidation("priority", validatePriority); err != nil {
		panic(fmt.Sprintf("failed to register priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("wiretime", validateWireTime); err != nil {
		panic(fmt.Sprintf("failed to register wiretime validator: %v", err))
	}
}

// validatePriority validates that a string is a wire priority
func validatePriority(fl validator.FieldLevel) bool {
	return models.IsValidPriority(models.Priority(fl.Field().String()))
}

// validateWireTime validates that a string parses as a wire timestamp
func validateWireTime(fl validator.FieldLevel) bool {
	_, err := models.ParseWireTime(fl.Field().String())
	return err == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// Message turns the first validation failure in err into a client-facing message
func Message(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "Validation failed"
	}

	fe := validationErrors[0]
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "eqfield":
		return "passwords do not match"
	case "priority":
		return "priority must be one of high, medium, low"
	case "wiretime":
		return fmt.Sprintf("%s must be a timestamp like %s", field, models.WireTimeLayout)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
