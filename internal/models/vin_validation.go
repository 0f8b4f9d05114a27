package models

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// VINLength is the only accepted VIN length. No check digit is verified.
const VINLength = 17

var vinValidate = validator.New()

// NormalizeVIN uppercases vin. Surrounding whitespace is kept, so a padded
// VIN fails validation.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(vin)
}

// ValidateVIN reports whether vin is exactly 17 ASCII letters or digits.
func ValidateVIN(vin string) error {
	return vinValidate.Var(vin, "len=17,alphanum")
}

// IsVINShape is ValidateVIN as a predicate, used by the bot to route free text.
func IsVINShape(vin string) bool {
	return ValidateVIN(vin) == nil
}
