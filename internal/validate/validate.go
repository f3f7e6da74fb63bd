package validate

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Price accepts a positive amount with at most two decimal places, the fixed
// format every monetary value is exchanged in.
func Price(fl validator.FieldLevel) bool {
	value, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return false
	}
	return d.IsPositive() && d.Exponent() >= -2
}

func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("price", Price)
	return v
}
