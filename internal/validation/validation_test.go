package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/kjstillabower/weather-advisor-service/internal/cities"
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/travel"
)

func TestValidateCity_EmptyAndWhitespace(t *testing.T) {
	for _, input := range []string{"", "   ", "\t"} {
		if _, err := ValidateCity(input); !errors.Is(err, ErrCityEmpty) {
			t.Errorf("ValidateCity(%q) error = %v, want ErrCityEmpty", input, err)
		}
	}
}

func TestValidateCity_TooLong(t *testing.T) {
	_, err := ValidateCity(strings.Repeat("a", MaxCityLen+1))
	if !errors.Is(err, ErrCityTooLong) {
		t.Errorf("error = %v, want ErrCityTooLong", err)
	}
}

func TestValidateCity_InvalidChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"slash", "tai/pei"},
		{"backslash", "tai\\pei"},
		{"semicolon", "taipei;drop"},
		{"angle", "<script>"},
		{"comma", "Taipei,TW"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ValidateCity(tc.input); !errors.Is(err, ErrCityInvalidChars) {
				t.Errorf("error = %v, want ErrCityInvalidChars", err)
			}
		})
	}
}

func TestValidateCity_Resolves(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Taipei", "Taipei"},
		{"  kaohsiung  ", "Kaohsiung"},
		{"new-taipei", "New Taipei"},
		{"New Taipei", "New Taipei"},
		{"台中", "Taichung"},
		{"臺南", "Tainan"},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ValidateCity(tc.input)
			if err != nil {
				t.Fatalf("ValidateCity(%q) error = %v", tc.input, err)
			}
			if got.Name != tc.want {
				t.Errorf("ValidateCity(%q) = %q, want %q", tc.input, got.Name, tc.want)
			}
		})
	}
}

func TestValidateCity_Unknown(t *testing.T) {
	_, err := ValidateCity("Seattle")
	if !errors.Is(err, cities.ErrUnknownCity) {
		t.Errorf("error = %v, want cities.ErrUnknownCity", err)
	}
}

func TestValidateLang(t *testing.T) {
	tests := []struct {
		raw     string
		want    i18n.Lang
		wantOK  bool
		wantErr bool
	}{
		{"", "", false, false},
		{"zh_tw", i18n.ZhTW, true, false},
		{"zh-TW", i18n.ZhTW, true, false},
		{"en", i18n.EN, true, false},
		{"EN-us", i18n.EN, true, false},
		{"fr", "", false, true},
		{"klingon", "", false, true},
	}
	for _, tc := range tests {
		t.Run(tc.raw, func(t *testing.T) {
			got, ok, err := ValidateLang(tc.raw)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateLang(%q) error = %v, wantErr %v", tc.raw, err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidQuery) {
				t.Errorf("error = %v, want ErrInvalidQuery", err)
			}
			if got != tc.want || ok != tc.wantOK {
				t.Errorf("ValidateLang(%q) = %q, %v, want %q, %v", tc.raw, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestValidateConditions(t *testing.T) {
	if err := ValidateConditions(travel.DefaultConditions()); err != nil {
		t.Errorf("defaults rejected: %v", err)
	}

	tests := []struct {
		name  string
		mod   func(*travel.Conditions)
		field string
	}{
		{"pop above 100", func(c *travel.Conditions) { c.PopMax = 150 }, "popMax"},
		{"negative wind", func(c *travel.Conditions) { c.WindSpeedAvg = -1 }, "windSpeedAvg"},
		{"humidity above 100", func(c *travel.Conditions) { c.HumidityAvg = 101 }, "humidityAvg"},
		{"absurd temperature", func(c *travel.Conditions) { c.TempAvg = 99 }, "tempAvg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := travel.DefaultConditions()
			tc.mod(&c)
			err := ValidateConditions(c)
			if !errors.Is(err, ErrInvalidQuery) {
				t.Fatalf("error = %v, want ErrInvalidQuery", err)
			}
			if !strings.Contains(err.Error(), tc.field) {
				t.Errorf("error = %v, want mention of %s", err, tc.field)
			}
		})
	}
}
