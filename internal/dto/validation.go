package dto

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// RegisterValidations installs the custom binding rules used by request DTOs.
// It is called once at startup against gin's binding engine.
func RegisterValidations(v *validator.Validate) error {
	return v.RegisterValidation("rfc3339", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.RFC3339, fl.Field().String())
		return err == nil
	})
}
