package advisory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
)

func reading(temp float64, humidity int, wind float64) models.CurrentWeather {
	return models.CurrentWeather{
		City:        "Taipei",
		CityTW:      "台北",
		Temperature: temp,
		FeelsLike:   temp + 1,
		Humidity:    humidity,
		WindSpeed:   wind,
		Weather:     "few clouds",
	}
}

// forecast builds consecutive days starting Monday 2026-03-02.
func forecast(tmax, tmin, pops []float64) []models.DailySummary {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	out := make([]models.DailySummary, len(tmax))
	for i := range tmax {
		out[i] = models.DailySummary{
			Date:    start.AddDate(0, 0, i),
			TempMax: tmax[i],
			TempMin: tmin[i],
			PopMax:  pops[i],
			Weather: "light rain",
		}
	}
	return out
}

func keys(msgs []i18n.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Key
	}
	return out
}

func TestWeatherAnalysis_TemperatureTag(t *testing.T) {
	tests := []struct {
		temp float64
		want string
	}{
		{36, "rule.high_temp_warn"},
		{35, "rule.hot"},
		{30.5, "rule.hot"},
		{30, "rule.comfortable"},
		{15, "rule.comfortable"},
		{14.9, "rule.cool"},
		{10, "rule.cool"},
		{9.9, "rule.low_temp_warn"},
	}
	for _, tt := range tests {
		got := keys(WeatherAnalysis(reading(tt.temp, 50, 2), nil))
		require.GreaterOrEqual(t, len(got), 3)
		assert.Equal(t, tt.want, got[2], "temp %v", tt.temp)
	}
}

func TestWeatherAnalysis_Structure(t *testing.T) {
	daily := forecast(
		[]float64{25, 26, 27, 28, 30, 31},
		[]float64{18, 19, 20, 21, 22, 23},
		[]float64{70, 20, 65, 40, 90, 99},
	)
	got := WeatherAnalysis(reading(25, 85, 6), daily)

	assert.Equal(t, []string{
		"rule.today_summary_title",
		"rule.today_summary",
		"rule.comfortable",
		"rule.high_humidity",
		"rule.breeze",
		"rule.trend_title",
		"rule.trend_warming",
		"rule.rain_many",
		"rule.daily_overview_title",
		"rule.daily_overview_row",
		"rule.daily_overview_row",
		"rule.daily_overview_row",
		"rule.daily_overview_row",
		"rule.daily_overview_row",
	}, keys(got))
	assert.Equal(t, 3, got[7].Params["n"])

	first := got[9].Params
	assert.Equal(t, "03/02", first["date"])
	assert.Equal(t, i18n.Key("weekday.0"), first["weekday"])
	assert.Equal(t, "🌧️", first["icon"])
	assert.Equal(t, 70, first["pop"])
	assert.Equal(t, "🌂", got[12].Params["icon"])
	assert.Equal(t, "☀️", got[10].Params["icon"])
}

func TestWeatherAnalysis_TrendAndRain(t *testing.T) {
	tests := []struct {
		name  string
		tmax  []float64
		pops  []float64
		trend string
		rain  string
	}{
		{"cooling some rain", []float64{30, 28, 26.9}, []float64{61, 0, 0}, "rule.trend_cooling", "rule.rain_some"},
		{"stable at +3", []float64{25, 28}, []float64{60, 60}, "rule.trend_stable", "rule.rain_none"},
		{"single day is stable", []float64{40}, []float64{0}, "rule.trend_stable", "rule.rain_none"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmin := make([]float64, len(tt.tmax))
			got := keys(WeatherAnalysis(reading(20, 50, 1), forecast(tt.tmax, tmin, tt.pops)))
			assert.Contains(t, got, tt.trend)
			assert.Contains(t, got, tt.rain)
		})
	}
}

func TestWeatherAnalysis_NoDaily(t *testing.T) {
	got := keys(WeatherAnalysis(reading(20, 50, 1), nil))
	assert.Equal(t, []string{
		"rule.today_summary_title",
		"rule.today_summary",
		"rule.comfortable",
		"rule.trend_title",
		"rule.trend_stable",
		"rule.rain_none",
		"rule.daily_overview_title",
	}, got)
}

func TestActivities(t *testing.T) {
	tests := []struct {
		name string
		cw   models.CurrentWeather
		pops []float64
		want []string
	}{
		{
			name: "warm outdoor with photo",
			cw:   reading(28, 60, 3),
			pops: []float64{10},
			want: []string{"rule.act_title", "rule.act_outdoor_ok", "rule.act_swim", "rule.act_evening_walk", "rule.act_photo",
				"rule.act_exercise_title", "rule.act_exercise_normal"},
		},
		{
			name: "cool outdoor humid",
			cw:   reading(15, 75, 9.9),
			pops: []float64{59},
			want: []string{"rule.act_title", "rule.act_outdoor_ok", "rule.act_cycling", "rule.act_hiking",
				"rule.act_exercise_title", "rule.act_exercise_normal"},
		},
		{
			name: "indoor hot and windy",
			cw:   reading(34, 50, 10),
			pops: []float64{60},
			want: []string{"rule.act_title", "rule.act_outdoor_no", "rule.act_reason_prefix",
				"rule.act_indoor_movie", "rule.act_indoor_gym", "rule.act_indoor_cafe",
				"rule.act_exercise_title", "rule.act_exercise_hot"},
		},
		{
			name: "indoor cold",
			cw:   reading(5, 50, 1),
			want: []string{"rule.act_title", "rule.act_outdoor_no", "rule.act_reason_prefix",
				"rule.act_indoor_movie", "rule.act_indoor_gym", "rule.act_indoor_cafe",
				"rule.act_exercise_title", "rule.act_exercise_cold"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daily := forecast(make([]float64, len(tt.pops)), make([]float64, len(tt.pops)), tt.pops)
			assert.Equal(t, tt.want, keys(Activities(tt.cw, daily)))
		})
	}
}

func TestActivities_Reasons(t *testing.T) {
	daily := forecast([]float64{0}, []float64{0}, []float64{80})
	got := Activities(reading(34, 50, 12), daily)
	require.Equal(t, "rule.act_reason_prefix", got[2].Key)
	assert.Equal(t, i18n.List{
		i18n.Key("rule.act_reason_hot"),
		i18n.Key("rule.act_reason_rain"),
		i18n.Key("rule.act_reason_wind"),
	}, got[2].Params["reasons"])

	c := i18n.MustLoad()
	assert.Equal(t, "- 原因：氣溫過高、降雨機率高、風速過大\n", c.Render(i18n.ZhTW, got[2]))
}

func TestOutfit_Bands(t *testing.T) {
	tests := []struct {
		temp float64
		band string
		n    int
	}{
		{31, "hot", 3},
		{30, "warm", 3},
		{25, "mild", 3},
		{20, "cool", 4},
		{15, "cold", 4},
		{-2, "cold", 4},
	}
	for _, tt := range tests {
		got := keys(Outfit(reading(tt.temp, 50, 1), nil))
		require.Greater(t, len(got), tt.n)
		for _, k := range got[1 : 1+tt.n] {
			assert.Contains(t, k, "rule.outfit_"+tt.band+"_", "temp %v", tt.temp)
		}
	}
}

func TestOutfit_RainHumidityAndFuture(t *testing.T) {
	daily := forecast([]float64{30, 30, 30}, []float64{22, 14, 20}, []float64{61, 10, 10})
	got := keys(Outfit(reading(20, 85, 1), daily))
	assert.Equal(t, []string{
		"rule.outfit_title",
		"rule.outfit_cool_top", "rule.outfit_cool_bottom", "rule.outfit_cool_jacket", "rule.outfit_cool_acc",
		"rule.outfit_rain_must",
		"rule.outfit_humid",
		"rule.outfit_future_title",
		"rule.outfit_future_colder",
		"rule.outfit_future_rain",
	}, got)

	daily = forecast([]float64{30}, []float64{26}, []float64{31})
	got = keys(Outfit(reading(20, 50, 1), daily))
	assert.Contains(t, got, "rule.outfit_rain_maybe")
	assert.Contains(t, got, "rule.outfit_future_warmer")
	assert.NotContains(t, got, "rule.outfit_future_rain")

	got = keys(Outfit(reading(20, 50, 1), nil))
	assert.Contains(t, got, "rule.outfit_future_stable")
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name string
		cw   models.CurrentWeather
		pops []float64
		want []string
	}{
		{
			name: "heat humid windy rain",
			cw:   reading(34, 85, 11),
			pops: []float64{70},
			want: []string{"rule.health_title", "rule.health_heatstroke", "rule.health_humid", "rule.health_wind",
				"rule.health_exercise_title", "rule.health_exercise_hot",
				"rule.health_diet_title", "rule.health_diet_hot",
				"rule.health_special_title", "rule.health_elderly", "rule.health_children",
				"rule.health_allergy", "rule.health_asthma"},
		},
		{
			name: "warm",
			cw:   reading(29, 50, 1),
			want: []string{"rule.health_title", "rule.health_warm",
				"rule.health_exercise_title", "rule.health_exercise_normal",
				"rule.health_diet_title", "rule.health_diet_normal",
				"rule.health_special_title"},
		},
		{
			name: "cold dry",
			cw:   reading(8, 20, 1),
			want: []string{"rule.health_title", "rule.health_cold_warn", "rule.health_dry",
				"rule.health_exercise_title", "rule.health_exercise_cold",
				"rule.health_diet_title", "rule.health_diet_cold",
				"rule.health_special_title", "rule.health_elderly", "rule.health_children"},
		},
		{
			name: "cool",
			cw:   reading(12, 71, 1),
			want: []string{"rule.health_title", "rule.health_cool",
				"rule.health_exercise_title", "rule.health_exercise_normal",
				"rule.health_diet_title", "rule.health_diet_cold",
				"rule.health_special_title", "rule.health_allergy"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			daily := forecast(make([]float64, len(tt.pops)), make([]float64, len(tt.pops)), tt.pops)
			assert.Equal(t, tt.want, keys(Health(tt.cw, daily)))
		})
	}
}

func TestRuleReport(t *testing.T) {
	cw := reading(22, 60, 2)
	daily := forecast([]float64{25}, []float64{18}, []float64{10})
	r := RuleReport(cw, daily)
	assert.Equal(t, ModeFallback, r.Mode)
	for _, s := range []Section{r.WeatherAnalysis, r.Activities, r.Outfit, r.Health} {
		assert.Equal(t, SectionRules, s.Kind)
		assert.NotEmpty(t, s.Lines)
	}
	assert.Equal(t, r, RuleReport(cw, daily))
}

// Every key the rules can emit must exist in both locale tables.
func TestRuleKeysAreLocalized(t *testing.T) {
	c := i18n.MustLoad()
	readings := []models.CurrentWeather{reading(40, 95, 16), reading(-3, 10, 0), reading(22, 60, 6), reading(27, 20, 3)}
	daily := forecast([]float64{20, 30, 35}, []float64{10, 12, 14}, []float64{90, 40, 0})
	for _, cw := range readings {
		r := RuleReport(cw, daily)
		for _, s := range []Section{r.WeatherAnalysis, r.Activities, r.Outfit, r.Health} {
			for _, m := range s.Lines {
				for _, lang := range i18n.Supported() {
					assert.True(t, c.Has(lang, m.Key), "%s missing %s", lang, m.Key)
				}
			}
		}
	}
}
