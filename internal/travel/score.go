// Package travel scores forecast days for outdoor travel and picks the best ones.
package travel

import (
	"encoding/json"
	"math"
)

// Conditions are the inputs to Score. Fields absent from a JSON body keep
// the values from DefaultConditions.
type Conditions struct {
	TempAvg      float64 `json:"tempAvg"`
	PopMax       float64 `json:"popMax"`
	WindSpeedAvg float64 `json:"windSpeedAvg"`
	HumidityAvg  float64 `json:"humidityAvg"`
}

// DefaultConditions describes a neutral day.
func DefaultConditions() Conditions {
	return Conditions{TempAvg: 22, PopMax: 0, WindSpeedAvg: 0, HumidityAvg: 60}
}

// UnmarshalJSON decodes over the defaults so partial input scores sensibly.
func (c *Conditions) UnmarshalJSON(data []byte) error {
	type plain Conditions
	p := plain(DefaultConditions())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*c = Conditions(p)
	return nil
}

// DayScore is a 0-100 travel score with its four components.
type DayScore struct {
	Total         float64 `json:"total"`
	TempScore     float64 `json:"tempScore"`
	RainScore     float64 `json:"rainScore"`
	WindScore     float64 `json:"windScore"`
	HumidityScore float64 `json:"humidityScore"`
}

const (
	maxTemp     = 40.0
	maxRain     = 25.0
	maxWind     = 15.0
	maxHumidity = 20.0
)

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Score computes the weighted travel score for one day.
// Temperature peaks at 18-26°C, wind at or below 5 m/s and humidity at 40-70%.
func Score(c Conditions) DayScore {
	temp := maxTemp
	if c.TempAvg < 18 || c.TempAvg > 26 {
		diff := c.TempAvg - 26
		if c.TempAvg < 18 {
			diff = 18 - c.TempAvg
		}
		temp = math.Max(0, maxTemp-diff*3)
	}

	rain := math.Max(0, maxRain-c.PopMax/10*2.5)

	wind := maxWind
	if c.WindSpeedAvg > 5 {
		wind = math.Max(0, maxWind-(c.WindSpeedAvg-5)*3)
	}

	hum := maxHumidity
	if c.HumidityAvg < 40 || c.HumidityAvg > 70 {
		diff := c.HumidityAvg - 70
		if c.HumidityAvg < 40 {
			diff = 40 - c.HumidityAvg
		}
		hum = math.Max(0, maxHumidity-diff/5*2)
	}

	s := DayScore{
		TempScore:     round1(temp),
		RainScore:     round1(rain),
		WindScore:     round1(wind),
		HumidityScore: round1(hum),
	}
	s.Total = round1(s.TempScore + s.RainScore + s.WindScore + s.HumidityScore)
	return s
}
