// Package airquality turns MOENV station records into per-city readings.
package airquality

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kjstillabower/weather-advisor-service/internal/cities"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
	"github.com/kjstillabower/weather-advisor-service/internal/threshold"
)

// Reading is the representative station for one city.
type Reading struct {
	City      string          `json:"city"`
	County    string          `json:"county"`
	Station   string          `json:"station"`
	AQI       int             `json:"aqi"`
	PM25      *float64        `json:"pm25"`
	PM10      *float64        `json:"pm10"`
	O3        *float64        `json:"o3"`
	Pollutant string          `json:"pollutant"`
	Status    string          `json:"status"`
	Level     threshold.Level `json:"level"`
}

// ForCity picks the station in city's county with the highest AQI. Stations
// with a non-numeric AQI count as 0; ties keep the first station listed.
// ok is false when the county has no stations.
func ForCity(records []models.AQIRecord, city cities.City) (r Reading, ok bool) {
	best := -1
	bestAQI := 0
	for i, rec := range records {
		if rec.County != city.County {
			continue
		}
		if aqi := parseAQI(rec.AQI); best < 0 || aqi > bestAQI {
			best, bestAQI = i, aqi
		}
	}
	if best < 0 {
		return Reading{}, false
	}

	rec := records[best]
	return Reading{
		City:      city.Name,
		County:    city.County,
		Station:   rec.SiteName,
		AQI:       bestAQI,
		PM25:      parseOptional(rec.PM25),
		PM10:      parseOptional(rec.PM10),
		O3:        parseOptional(rec.O3),
		Pollutant: rec.Pollutant,
		Status:    rec.Status,
		Level:     threshold.AQILevel(bestAQI),
	}, true
}

// Ranking returns a reading for every registry city that has stations,
// ordered by AQI descending. Equal AQIs keep registry order.
func Ranking(records []models.AQIRecord) []Reading {
	out := make([]Reading, 0, len(cities.All()))
	for _, c := range cities.All() {
		if r, ok := ForCity(records, c); ok {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AQI > out[j].AQI })
	return out
}

func parseAQI(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func parseOptional(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	return &v
}
