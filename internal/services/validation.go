package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrValidation wraps every request validation failure.
var ErrValidation = errors.New("validation failed")

var validate = validator.New()

// validateStruct runs the struct tags and flattens the failures into one
// readable message.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required", "required_without":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "len":
		return field + " must be " + fe.Param() + " characters"
	default:
		return field + " is invalid"
	}
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return validationError("%s must be greater than zero", field)
	}
	return requireCents(field, amount)
}

func requireNonNegative(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return validationError("%s must not be negative", field)
	}
	return requireCents(field, amount)
}

// requireCents rejects amounts finer than the NUMERIC(14,2) columns hold.
func requireCents(field string, amount decimal.Decimal) error {
	if !amount.Equal(amount.Round(2)) {
		return validationError("%s has more than two decimal places", field)
	}
	return nil
}
