// Package validation checks model parameters at the public entry points and
// reports every violation as a single configuration error.
package validation

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rzzdr/ccr-analytics/pkg/utils/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their wire names (n_paths rather than NPaths)
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// Struct validates a tagged parameter struct
func Struct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return errors.Wrap(err, "parameter validation failed")
	}

	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errors.Configuration("invalid parameters: " + strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s, got %v", field, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s, got %v", field, fe.Param(), fe.Value())
	case "lt":
		return fmt.Sprintf("%s must be less than %s, got %v", field, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s, got %v", field, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}

// Positive checks value > 0
func Positive(value float64, name string) error {
	if !(value > 0) {
		return errors.Configurationf("%s must be positive, got %v", name, value)
	}
	return nil
}

// NonNegative checks value >= 0
func NonNegative(value float64, name string) error {
	if !(value >= 0) {
		return errors.Configurationf("%s must be non-negative, got %v", name, value)
	}
	return nil
}

// Probability checks 0 <= value <= 1
func Probability(value float64, name string) error {
	if !(value >= 0 && value <= 1) {
		return errors.Configurationf("%s must be between 0 and 1, got %v", name, value)
	}
	return nil
}

// Finite checks that value is neither NaN nor infinite
func Finite(value float64, name string) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return errors.Configurationf("%s must be finite, got %v", name, value)
	}
	return nil
}

// NotEmpty checks that a series has at least one element
func NotEmpty(n int, name string) error {
	if n == 0 {
		return errors.Configurationf("%s is empty", name)
	}
	return nil
}
