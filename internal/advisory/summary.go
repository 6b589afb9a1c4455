package advisory

import (
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
)

// Summary describes the reading and up to HorizonDays of forecast for an AI prompt.
func Summary(cw models.CurrentWeather, daily []models.DailySummary) []i18n.Message {
	h := newHorizon(daily)
	out := []i18n.Message{
		msg("ai.summary_now", i18n.Params{
			"current":         i18n.Key("ai.summary_current"),
			"temp_label":      i18n.Key("ai.summary_temp"),
			"feels_label":     i18n.Key("ai.summary_feels"),
			"humidity_label":  i18n.Key("ai.summary_humidity"),
			"wind_label":      i18n.Key("ai.summary_wind"),
			"condition_label": i18n.Key("ai.summary_condition"),
			"forecast":        i18n.Key("ai.summary_forecast"),
			"temp":            cw.Temperature,
			"feels":           cw.FeelsLike,
			"humidity":        cw.Humidity,
			"wind":            cw.WindSpeed,
			"desc":            cw.Weather,
		}),
	}
	for _, d := range h.days {
		out = append(out, msg("ai.summary_day", i18n.Params{
			"date":       d.Date.Format("01/02"),
			"weekday":    WeekdayKey(d.Date),
			"temp_label": i18n.Key("ai.summary_temp_range"),
			"rain_label": i18n.Key("ai.summary_rain"),
			"tmin":       d.TempMin,
			"tmax":       d.TempMax,
			"pop":        int(d.PopMax),
			"weather":    d.Weather,
		}))
	}
	return out
}
