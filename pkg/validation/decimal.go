package validation

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// DecimalAmount backs the "decimal_amount" struct tag: a non-negative decimal
// string with at most two fraction digits. Monetary fields are stored as
// strings and computed with fixed-point decimals, never floats.
func DecimalAmount(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	if d.IsNegative() {
		return false
	}
	return d.Exponent() >= -2
}

// Register installs the shared custom validations on a validator instance.
func Register(v *validator.Validate) error {
	return v.RegisterValidation("decimal_amount", DecimalAmount)
}
