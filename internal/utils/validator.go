package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"

	"github.com/kazuki11111/expiry-tracker/pkg/expiry"
)

var Validate *validator.Validate

var hhmmPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// InitValidator builds the shared validator with the domain tags
// "category", "isodate" and "hhmm".
func InitValidator() {
	if Validate != nil {
		return
	}
	v := validator.New()
	tags := map[string]validator.Func{
		"category": func(fl validator.FieldLevel) bool {
			_, ok := expiry.ParseCategory(fl.Field().String())
			return ok
		},
		"isodate": func(fl validator.FieldLevel) bool {
			return expiry.ValidDate(fl.Field().String())
		},
		"hhmm": func(fl validator.FieldLevel) bool {
			return ValidClockTime(fl.Field().String())
		},
	}
	for tag, fn := range tags {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Fatalf("error registering validation %q: %v", tag, err)
		}
	}
	Validate = v
}

// ValidClockTime reports whether s is a 24-hour HH:MM time.
func ValidClockTime(s string) bool {
	return hhmmPattern.MatchString(s)
}
