// Package validation checks request input before it reaches the service layer.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/kjstillabower/weather-advisor-service/internal/cities"
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/travel"
)

// MaxCityLen bounds the city path segment in runes.
const MaxCityLen = 40

// ErrCityEmpty is returned when city is empty or whitespace-only after trim.
var ErrCityEmpty = errors.New("city is required")

// ErrCityTooLong is returned when city length exceeds MaxCityLen.
var ErrCityTooLong = errors.New("city too long")

// ErrCityInvalidChars is returned when city contains disallowed characters.
var ErrCityInvalidChars = errors.New("city contains invalid characters")

// ErrInvalidQuery is returned when query parameters or a request body fail validation.
var ErrInvalidQuery = errors.New("invalid request parameters")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("lang", func(fl validator.FieldLevel) bool {
		_, ok := i18n.ParseLang(fl.Field().String())
		return ok
	})
	return v
}

// ValidateCity trims the input, enforces the length bound and allowed
// characters (Unicode letters, digits, space, hyphen), then resolves it in
// the city registry. Unknown names wrap cities.ErrUnknownCity.
func ValidateCity(input string) (cities.City, error) {
	s := strings.TrimSpace(input)
	r := []rune(s)
	if len(r) == 0 {
		return cities.City{}, ErrCityEmpty
	}
	if len(r) > MaxCityLen {
		return cities.City{}, ErrCityTooLong
	}
	for _, c := range r {
		if !isAllowedCityRune(c) {
			return cities.City{}, ErrCityInvalidChars
		}
	}
	city, err := cities.Lookup(s)
	if err != nil {
		return cities.City{}, fmt.Errorf("%q: %w", s, err)
	}
	return city, nil
}

func isAllowedCityRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsNumber(r) {
		return true
	}
	return r == ' ' || r == '-'
}

// LangQuery is the optional ?lang= parameter.
type LangQuery struct {
	Lang string `validate:"omitempty,lang"`
}

// ValidateLang checks a ?lang= value. An empty value is valid and yields ok=false.
func ValidateLang(raw string) (lang i18n.Lang, ok bool, err error) {
	q := LangQuery{Lang: strings.TrimSpace(raw)}
	if err := validate.Struct(q); err != nil {
		return "", false, fmt.Errorf("%w: lang must be one of %v", ErrInvalidQuery, i18n.Supported())
	}
	if q.Lang == "" {
		return "", false, nil
	}
	lang, _ = i18n.ParseLang(q.Lang)
	return lang, true, nil
}

// conditionRules bounds the physically meaningful range of a scored day.
type conditionRules struct {
	TempAvg      float64 `validate:"gte=-40,lte=60"`
	PopMax       float64 `validate:"gte=0,lte=100"`
	WindSpeedAvg float64 `validate:"gte=0,lte=100"`
	HumidityAvg  float64 `validate:"gte=0,lte=100"`
}

// ValidateConditions rejects out-of-range travel inputs. The error names
// the first offending field.
func ValidateConditions(c travel.Conditions) error {
	err := validate.Struct(conditionRules{
		TempAvg:      c.TempAvg,
		PopMax:       c.PopMax,
		WindSpeedAvg: c.WindSpeedAvg,
		HumidityAvg:  c.HumidityAvg,
	})
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fmt.Errorf("%w: %s out of range", ErrInvalidQuery, lowerFirst(verrs[0].Field()))
	}
	return fmt.Errorf("%w: %v", ErrInvalidQuery, err)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
