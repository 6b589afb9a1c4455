// Package advisory builds weather, activity, outfit and health advice,
// either from deterministic rules or from an AI completion provider.
package advisory

import (
	"strconv"
	"time"

	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
)

// HorizonDays bounds how many forecast days the rules look at.
const HorizonDays = 5

type horizon struct {
	days     []models.DailySummary
	tempsMax []float64
	tempsMin []float64
	pops     []float64
}

func newHorizon(daily []models.DailySummary) horizon {
	if len(daily) > HorizonDays {
		daily = daily[:HorizonDays]
	}
	h := horizon{days: daily}
	for _, d := range daily {
		h.tempsMax = append(h.tempsMax, d.TempMax)
		h.tempsMin = append(h.tempsMin, d.TempMin)
		h.pops = append(h.pops, d.PopMax)
	}
	return h
}

func (h horizon) todayPop() float64 {
	if len(h.pops) == 0 {
		return 0
	}
	return h.pops[0]
}

func msg(key string, params i18n.Params) i18n.Message {
	return i18n.Message{Key: key, Params: params}
}

func rule(name string) i18n.Message {
	return i18n.Key("rule." + name)
}

// WeekdayKey maps Monday to weekday.0 through Sunday to weekday.6.
func WeekdayKey(d time.Time) i18n.Message {
	n := (int(d.Weekday()) + 6) % 7
	return i18n.Key("weekday." + strconv.Itoa(n))
}

func popIcon(pop float64) string {
	switch {
	case pop > 60:
		return "🌧️"
	case pop > 30:
		return "🌂"
	default:
		return "☀️"
	}
}

// WeatherAnalysis summarises today and the trend over the forecast horizon.
func WeatherAnalysis(cw models.CurrentWeather, daily []models.DailySummary) []i18n.Message {
	h := newHorizon(daily)
	temp := cw.Temperature
	lines := []i18n.Message{
		rule("today_summary_title"),
		msg("rule.today_summary", i18n.Params{
			"temp":     temp,
			"feels":    cw.FeelsLike,
			"desc":     cw.Weather,
			"humidity": cw.Humidity,
			"wind":     cw.WindSpeed,
		}),
	}

	switch {
	case temp > 35:
		lines = append(lines, rule("high_temp_warn"))
	case temp > 30:
		lines = append(lines, rule("hot"))
	case temp < 10:
		lines = append(lines, rule("low_temp_warn"))
	case temp < 15:
		lines = append(lines, rule("cool"))
	default:
		lines = append(lines, rule("comfortable"))
	}

	switch {
	case cw.Humidity > 80:
		lines = append(lines, rule("high_humidity"))
	case cw.Humidity < 30:
		lines = append(lines, rule("low_humidity"))
	}

	switch {
	case cw.WindSpeed > 10:
		lines = append(lines, rule("strong_wind"))
	case cw.WindSpeed > 5:
		lines = append(lines, rule("breeze"))
	}

	lines = append(lines, rule("trend_title"))
	trend := 0.0
	if len(h.tempsMax) > 1 {
		trend = h.tempsMax[len(h.tempsMax)-1] - h.tempsMax[0]
	}
	switch {
	case trend > 3:
		lines = append(lines, rule("trend_warming"))
	case trend < -3:
		lines = append(lines, rule("trend_cooling"))
	default:
		lines = append(lines, rule("trend_stable"))
	}

	rainy := 0
	for _, p := range h.pops {
		if p > 60 {
			rainy++
		}
	}
	switch {
	case rainy >= 3:
		lines = append(lines, msg("rule.rain_many", i18n.Params{"n": rainy}))
	case rainy >= 1:
		lines = append(lines, msg("rule.rain_some", i18n.Params{"n": rainy}))
	default:
		lines = append(lines, rule("rain_none"))
	}

	lines = append(lines, rule("daily_overview_title"))
	for _, d := range h.days {
		lines = append(lines, msg("rule.daily_overview_row", i18n.Params{
			"date":    d.Date.Format("01/02"),
			"weekday": WeekdayKey(d.Date),
			"tmin":    d.TempMin,
			"tmax":    d.TempMax,
			"pop":     int(d.PopMax),
			"icon":    popIcon(d.PopMax),
			"weather": d.Weather,
		}))
	}
	return lines
}

// Activities suggests outdoor or indoor activities and exercise timing.
func Activities(cw models.CurrentWeather, daily []models.DailySummary) []i18n.Message {
	h := newHorizon(daily)
	temp, wind, pop := cw.Temperature, cw.WindSpeed, h.todayPop()
	lines := []i18n.Message{rule("act_title")}

	outdoorOK := temp >= 15 && temp <= 33 && pop < 60 && wind < 10
	if outdoorOK {
		lines = append(lines, rule("act_outdoor_ok"))
		if temp >= 25 {
			lines = append(lines, rule("act_swim"), rule("act_evening_walk"))
		} else {
			lines = append(lines, rule("act_cycling"), rule("act_hiking"))
		}
		if cw.Humidity < 70 {
			lines = append(lines, rule("act_photo"))
		}
	} else {
		lines = append(lines, rule("act_outdoor_no"))
		var reasons i18n.List
		if temp > 33 {
			reasons = append(reasons, rule("act_reason_hot"))
		}
		if temp < 15 {
			reasons = append(reasons, rule("act_reason_cold"))
		}
		if pop >= 60 {
			reasons = append(reasons, rule("act_reason_rain"))
		}
		if wind >= 10 {
			reasons = append(reasons, rule("act_reason_wind"))
		}
		if len(reasons) > 0 {
			lines = append(lines, msg("rule.act_reason_prefix", i18n.Params{"reasons": reasons}))
		}
		lines = append(lines, rule("act_indoor_movie"), rule("act_indoor_gym"), rule("act_indoor_cafe"))
	}

	lines = append(lines, rule("act_exercise_title"))
	switch {
	case temp > 30:
		lines = append(lines, rule("act_exercise_hot"))
	case temp < 10:
		lines = append(lines, rule("act_exercise_cold"))
	default:
		lines = append(lines, rule("act_exercise_normal"))
	}
	return lines
}

type outfitBand struct {
	above float64
	name  string
	parts []string
}

// outfitBands are checked in order; temperatures at or below 15 use outfitCold.
var outfitBands = []outfitBand{
	{above: 30, name: "hot", parts: []string{"top", "bottom", "acc"}},
	{above: 25, name: "warm", parts: []string{"top", "bottom", "jacket"}},
	{above: 20, name: "mild", parts: []string{"top", "bottom", "jacket"}},
	{above: 15, name: "cool", parts: []string{"top", "bottom", "jacket", "acc"}},
}

var outfitCold = outfitBand{name: "cold", parts: []string{"top", "bottom", "jacket", "acc"}}

// Outfit recommends clothing for today and flags changes ahead.
func Outfit(cw models.CurrentWeather, daily []models.DailySummary) []i18n.Message {
	h := newHorizon(daily)
	temp, pop := cw.Temperature, h.todayPop()
	lines := []i18n.Message{rule("outfit_title")}

	band := outfitCold
	for _, b := range outfitBands {
		if temp > b.above {
			band = b
			break
		}
	}
	for _, part := range band.parts {
		lines = append(lines, rule("outfit_"+band.name+"_"+part))
	}

	switch {
	case pop > 60:
		lines = append(lines, rule("outfit_rain_must"))
	case pop > 30:
		lines = append(lines, rule("outfit_rain_maybe"))
	}
	if cw.Humidity > 80 {
		lines = append(lines, rule("outfit_humid"))
	}

	lines = append(lines, rule("outfit_future_title"))
	minFuture := temp
	if len(h.tempsMin) > 0 {
		minFuture = h.tempsMin[0]
		for _, v := range h.tempsMin[1:] {
			if v < minFuture {
				minFuture = v
			}
		}
	}
	maxPop := 0.0
	for _, p := range h.pops {
		if p > maxPop {
			maxPop = p
		}
	}
	switch {
	case minFuture < temp-5:
		lines = append(lines, rule("outfit_future_colder"))
	case minFuture > temp+5:
		lines = append(lines, rule("outfit_future_warmer"))
	default:
		lines = append(lines, rule("outfit_future_stable"))
	}
	if maxPop > 60 {
		lines = append(lines, rule("outfit_future_rain"))
	}
	return lines
}

// Health lists heat, cold, humidity and wind risks plus exercise, diet
// and at-risk group reminders.
func Health(cw models.CurrentWeather, daily []models.DailySummary) []i18n.Message {
	h := newHorizon(daily)
	temp := cw.Temperature
	lines := []i18n.Message{rule("health_title")}

	switch {
	case temp > 33:
		lines = append(lines, rule("health_heatstroke"))
	case temp > 28:
		lines = append(lines, rule("health_warm"))
	}
	switch {
	case temp < 10:
		lines = append(lines, rule("health_cold_warn"))
	case temp < 15:
		lines = append(lines, rule("health_cool"))
	}
	switch {
	case cw.Humidity > 80:
		lines = append(lines, rule("health_humid"))
	case cw.Humidity < 30:
		lines = append(lines, rule("health_dry"))
	}
	if cw.WindSpeed > 10 {
		lines = append(lines, rule("health_wind"))
	}

	lines = append(lines, rule("health_exercise_title"))
	switch {
	case temp > 30:
		lines = append(lines, rule("health_exercise_hot"))
	case temp < 10:
		lines = append(lines, rule("health_exercise_cold"))
	default:
		lines = append(lines, rule("health_exercise_normal"))
	}

	lines = append(lines, rule("health_diet_title"))
	switch {
	case temp > 30:
		lines = append(lines, rule("health_diet_hot"))
	case temp < 15:
		lines = append(lines, rule("health_diet_cold"))
	default:
		lines = append(lines, rule("health_diet_normal"))
	}

	lines = append(lines, rule("health_special_title"))
	if temp > 33 || temp < 10 {
		lines = append(lines, rule("health_elderly"), rule("health_children"))
	}
	if cw.Humidity > 70 {
		lines = append(lines, rule("health_allergy"))
	}
	if h.todayPop() > 60 {
		lines = append(lines, rule("health_asthma"))
	}
	return lines
}
