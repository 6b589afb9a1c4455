package threshold

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type bandCase struct {
	name  string
	value float64
	tag   string // empty means no band
	sev   Severity
}

func runBands(t *testing.T, classify func(float64) (Band, bool), cases []bandCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, ok := classify(tc.value)
			if tc.tag == "" {
				assert.False(t, ok, "value %v should not classify, got %q", tc.value, b.Tag)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tc.tag, b.Tag)
			assert.Equal(t, tc.sev, b.Severity)
		})
	}
}

func TestHighTemperature(t *testing.T) {
	runBands(t, HighTemperature, []bandCase{
		{"mild", 25, "", ""},
		{"at 33", 33, "", ""},
		{"above 33", 33.0001, "high_temp", Caution},
		{"at 36", 36, "high_temp", Caution},
		{"above 36", 36.0001, "extreme_heat", Danger},
	})
}

func TestLowTemperature(t *testing.T) {
	runBands(t, LowTemperature, []bandCase{
		{"mild", 20, "", ""},
		{"at 10", 10, "", ""},
		{"below 10", 9.9999, "low_temp", Caution},
		{"at 5", 5, "low_temp", Caution},
		{"below 5", 4.9999, "extreme_cold", Danger},
	})
}

func TestWind(t *testing.T) {
	runBands(t, Wind, []bandCase{
		{"at 10", 10, "", ""},
		{"above 10", 10.0001, "high_wind", Caution},
		{"at 15", 15, "high_wind", Caution},
		{"above 15", 15.0001, "strong_wind", Danger},
	})
}

func TestHumidity(t *testing.T) {
	runBands(t, Humidity, []bandCase{
		{"at 90", 90, "", ""},
		{"above 90", 91, "high_humidity", Caution},
	})
}

func TestRain(t *testing.T) {
	runBands(t, Rain, []bandCase{
		{"at 60", 60, "", ""},
		{"above 60", 60.0001, "rain", Caution},
		{"at 80", 80, "rain", Caution},
		{"above 80", 80.0001, "heavy_rain", Danger},
	})
}

func TestSwing(t *testing.T) {
	runBands(t, Swing, []bandCase{
		{"at 10", 10, "", ""},
		{"above 10", 10.0001, "temp_swing", Caution},
	})
}

// Every temperature resolves to at most one high band and at most one low band.
func TestTemperatureBandsExclusive(t *testing.T) {
	for v := -20.0; v <= 50; v += 0.5 {
		_, hi := HighTemperature(v)
		_, lo := LowTemperature(v)
		assert.False(t, hi && lo, "temperature %v classified both hot and cold", v)
	}
}

func TestAQILevel(t *testing.T) {
	tests := []struct {
		aqi   int
		key   string
		color string
	}{
		{0, "aqi.level_good", "#00e400"},
		{50, "aqi.level_good", "#00e400"},
		{51, "aqi.level_moderate", "#ffff00"},
		{100, "aqi.level_moderate", "#ffff00"},
		{101, "aqi.level_sensitive", "#ff7e00"},
		{150, "aqi.level_sensitive", "#ff7e00"},
		{151, "aqi.level_unhealthy", "#ff0000"},
		{200, "aqi.level_unhealthy", "#ff0000"},
		{201, "aqi.level_very_unhealthy", "#8f3f97"},
		{300, "aqi.level_very_unhealthy", "#8f3f97"},
		{301, "aqi.level_hazardous", "#7e0023"},
		{500, "aqi.level_hazardous", "#7e0023"},
	}
	for _, tt := range tests {
		got := AQILevel(tt.aqi)
		assert.Equal(t, tt.key, got.Key, "aqi %d", tt.aqi)
		assert.Equal(t, tt.color, got.Color, "aqi %d", tt.aqi)
	}
}

func TestUVLevel(t *testing.T) {
	tests := []struct {
		uvi float64
		key string
	}{
		{0, "uv.level_low"},
		{2, "uv.level_low"},
		{2.01, "uv.level_moderate"},
		{2.5, "uv.level_moderate"},
		{5, "uv.level_moderate"},
		{5.1, "uv.level_high"},
		{7, "uv.level_high"},
		{7.1, "uv.level_very_high"},
		{10, "uv.level_very_high"},
		{10.5, "uv.level_extreme"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.key, UVLevel(tt.uvi).Key, "uvi %v", tt.uvi)
	}
	assert.Equal(t, "#8f3f97", UVLevel(11).Color)
	assert.Equal(t, "#00e400", UVLevel(1).Color)
}
