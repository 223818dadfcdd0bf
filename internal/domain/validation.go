package domain

import (
	"math"

	"github.com/go-playground/validator/v10"
)

// validate checks the struct tags of requests, configurations, reports, and
// event payloads. Besides the stock tags it understands "finite", which
// rejects NaN and infinite floats; NaN passes every min/max comparison.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("finite", finiteFloat); err != nil {
		panic(err)
	}
	return v
}

func finiteFloat(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
