// Package validator provides validation infrastructure for the application.
// This is part of the platform layer and contains no business logic.
package validator

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var platePattern = regexp.MustCompile(`^[A-Z]{3}-?[0-9][A-Z0-9][0-9]{2}$`)

// Validator wraps the go-playground validator for structured validation.
// Using a struct allows for dependency injection and easier testing.
type Validator struct {
	v *validator.Validate
}

// New creates a new Validator instance with the shared domain rules registered.
// plate accepts the old (ABC-1234) and Mercosul (ABC1D23) layouts.
// decimal.Decimal fields validate as float64, so gt/gte/lte tags apply to money.
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("plate", func(fl validator.FieldLevel) bool {
		return platePattern.MatchString(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
	})
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	return &Validator{v: v}
}

func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

// Struct validates a struct based on validation tags.
func (val *Validator) Struct(s any) error {
	return val.v.Struct(s)
}

// Var validates a single variable against a tag.
func (val *Validator) Var(field any, tag string) error {
	return val.v.Var(field, tag)
}

// RegisterValidation registers a custom validation function.
func (val *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return val.v.RegisterValidation(tag, fn)
}
