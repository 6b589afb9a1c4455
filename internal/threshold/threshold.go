// Package threshold maps scalar weather readings to graded bands.
//
// Alert bands use strict comparisons and are evaluated most severe first;
// the first matching band wins. AQI and UV levels use inclusive upper bounds.
package threshold

// Severity grades an alert band.
type Severity string

const (
	Caution Severity = "caution"
	Danger  Severity = "danger"
)

// Band is one classification outcome.
type Band struct {
	Tag       string
	Severity  Severity
	Threshold float64
}

type direction int

const (
	above direction = iota
	below
)

// table is an ordered band list over a single metric.
type table struct {
	dir   direction
	bands []Band
}

func (t table) classify(v float64) (Band, bool) {
	for _, b := range t.bands {
		if (t.dir == above && v > b.Threshold) || (t.dir == below && v < b.Threshold) {
			return b, true
		}
	}
	return Band{}, false
}

var (
	highTemp = table{dir: above, bands: []Band{
		{Tag: "extreme_heat", Severity: Danger, Threshold: 36},
		{Tag: "high_temp", Severity: Caution, Threshold: 33},
	}}
	lowTemp = table{dir: below, bands: []Band{
		{Tag: "extreme_cold", Severity: Danger, Threshold: 5},
		{Tag: "low_temp", Severity: Caution, Threshold: 10},
	}}
	wind = table{dir: above, bands: []Band{
		{Tag: "strong_wind", Severity: Danger, Threshold: 15},
		{Tag: "high_wind", Severity: Caution, Threshold: 10},
	}}
	humidity = table{dir: above, bands: []Band{
		{Tag: "high_humidity", Severity: Caution, Threshold: 90},
	}}
	rain = table{dir: above, bands: []Band{
		{Tag: "heavy_rain", Severity: Danger, Threshold: 80},
		{Tag: "rain", Severity: Caution, Threshold: 60},
	}}
	swing = table{dir: above, bands: []Band{
		{Tag: "temp_swing", Severity: Caution, Threshold: 10},
	}}
)

// HighTemperature classifies heat: extreme_heat above 36, high_temp above 33.
func HighTemperature(t float64) (Band, bool) { return highTemp.classify(t) }

// LowTemperature classifies cold: extreme_cold below 5, low_temp below 10.
func LowTemperature(t float64) (Band, bool) { return lowTemp.classify(t) }

// Wind classifies wind speed in m/s.
func Wind(speed float64) (Band, bool) { return wind.classify(speed) }

// Humidity classifies relative humidity in percent.
func Humidity(h float64) (Band, bool) { return humidity.classify(h) }

// Rain classifies a day's maximum precipitation probability in percent.
func Rain(pop float64) (Band, bool) { return rain.classify(pop) }

// Swing classifies a day's temperature range (max minus min).
func Swing(delta float64) (Band, bool) { return swing.classify(delta) }
