package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterValidation("phone", validatePhone)
	validate.RegisterValidation("coordinates", validateCoordinates)
	validate.RegisterValidation("slot", validateSlot)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// ValidationErrors flattens validator errors into the field->message map
// the API error envelope carries.
func ValidationErrors(err error) map[string]string {
	out := make(map[string]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, ferr := range verrs {
			out[strings.ToLower(ferr.Field())] = "failed on '" + ferr.Tag() + "' validation"
		}
	}
	return out
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsValidPhone(fl.Field().String())
}

func validateCoordinates(fl validator.FieldLevel) bool {
	coords, ok := fl.Field().Interface().([]float64)
	if !ok || len(coords) != 2 {
		return false
	}
	lng, lat := coords[0], coords[1]
	return lng >= -180 && lng <= 180 && lat >= -90 && lat <= 90
}

var slotRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

func validateSlot(fl validator.FieldLevel) bool {
	return slotRegex.MatchString(fl.Field().String())
}

func IsValidEmail(email string) bool {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	return emailRegex.MatchString(email)
}

func IsValidName(name string) bool {
	if len(strings.TrimSpace(name)) < 2 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '-' && r != '\'' && r != '.' {
			return false
		}
	}
	return true
}

func SanitizeString(input string) string {
	htmlRegex := regexp.MustCompile(`<[^>]*>`)
	return strings.TrimSpace(htmlRegex.ReplaceAllString(input, ""))
}

func IsValidPlate(plate string) bool {
	plateRegex := regexp.MustCompile(`^[A-Z0-9\-\s]{2,12}$`)
	return plateRegex.MatchString(strings.ToUpper(plate))
}
