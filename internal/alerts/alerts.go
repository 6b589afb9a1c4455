// Package alerts evaluates weather readings against alert thresholds.
package alerts

import (
	"math"

	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
	"github.com/kjstillabower/weather-advisor-service/internal/threshold"
)

// Kind distinguishes templated rule alerts from relayed official warnings.
type Kind string

const (
	KindRule     Kind = "rule"
	KindOfficial Kind = "official"
)

// Alert is one emitted warning. Rule alerts carry a templated Message;
// official alerts carry the provider's Event and Description verbatim.
type Alert struct {
	Kind        Kind               `json:"kind"`
	Severity    threshold.Severity `json:"severity"`
	Icon        string             `json:"icon"`
	Title       i18n.Message       `json:"title"`
	Message     *i18n.Message      `json:"message,omitempty"`
	Event       string             `json:"event,omitempty"`
	Description string             `json:"description,omitempty"`
	Value       float64            `json:"value"`
	Threshold   float64            `json:"threshold"`
}

var icons = map[string]string{
	"extreme_heat":  "🔥",
	"high_temp":     "🌡️",
	"extreme_cold":  "🥶",
	"low_temp":      "❄️",
	"strong_wind":   "🌪️",
	"high_wind":     "💨",
	"high_humidity": "💧",
	"heavy_rain":    "⛈️",
	"rain":          "🌧️",
	"temp_swing":    "🌡️",
}

// ruleAlert builds a templated alert. shown is the value as it appears in
// the message; thresholds are whole numbers and render without decimals.
func ruleAlert(b threshold.Band, value float64, shown any) Alert {
	msg := i18n.Message{
		Key:    "alert." + b.Tag + "_msg",
		Params: i18n.Params{"v": shown, "t": int(b.Threshold)},
	}
	return Alert{
		Kind:      KindRule,
		Severity:  b.Severity,
		Icon:      icons[b.Tag],
		Title:     i18n.Key("alert." + b.Tag + "_title"),
		Message:   &msg,
		Value:     value,
		Threshold: b.Threshold,
	}
}

// Evaluate applies every alert dimension to a reading. A nil current yields
// an empty slice. Rain and swing use daily[0] and are skipped when daily is
// empty. Output order: high temperature, low temperature, wind, humidity,
// rain, swing.
func Evaluate(current *models.CurrentWeather, daily []models.DailySummary) []Alert {
	out := []Alert{}
	if current == nil {
		return out
	}

	if b, ok := threshold.HighTemperature(current.Temperature); ok {
		out = append(out, ruleAlert(b, current.Temperature, current.Temperature))
	}
	if b, ok := threshold.LowTemperature(current.Temperature); ok {
		out = append(out, ruleAlert(b, current.Temperature, current.Temperature))
	}
	if b, ok := threshold.Wind(current.WindSpeed); ok {
		out = append(out, ruleAlert(b, current.WindSpeed, current.WindSpeed))
	}
	if b, ok := threshold.Humidity(float64(current.Humidity)); ok {
		out = append(out, ruleAlert(b, float64(current.Humidity), current.Humidity))
	}

	if len(daily) == 0 {
		return out
	}
	today := daily[0]
	if b, ok := threshold.Rain(today.PopMax); ok {
		out = append(out, ruleAlert(b, today.PopMax, today.PopMax))
	}
	delta := today.TempMax - today.TempMin
	if b, ok := threshold.Swing(delta); ok {
		rounded := math.Round(delta*10) / 10
		out = append(out, ruleAlert(b, rounded, rounded))
	}
	return out
}
