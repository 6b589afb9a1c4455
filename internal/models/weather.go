package models

import "time"

// CurrentWeather is a normalized observation for one city.
type CurrentWeather struct {
	City        string    `json:"city"`
	CityTW      string    `json:"cityTw"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	Humidity    int       `json:"humidity"`
	Pressure    int       `json:"pressure"`
	WindSpeed   float64   `json:"windSpeed"`
	Clouds      int       `json:"clouds"`
	Weather     string    `json:"weather"`
	WeatherMain string    `json:"weatherMain"`
	Icon        string    `json:"icon"`
	Sunrise     time.Time `json:"sunrise"`
	Sunset      time.Time `json:"sunset"`
	ObservedAt  time.Time `json:"observedAt"`
}

// ForecastSample is one 3-hourly forecast entry.
type ForecastSample struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feelsLike"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	Humidity    int       `json:"humidity"`
	WindSpeed   float64   `json:"windSpeed"`
	Clouds      int       `json:"clouds"`
	Pop         float64   `json:"pop"` // percent, 0-100
	Weather     string    `json:"weather"`
	WeatherMain string    `json:"weatherMain"`
	Icon        string    `json:"icon"`
}

// DailySummary aggregates one calendar day of forecast samples.
// Sequences are ordered by Date ascending with unique dates.
type DailySummary struct {
	Date         time.Time `json:"date"`
	TempMin      float64   `json:"tempMin"`
	TempMax      float64   `json:"tempMax"`
	TempAvg      float64   `json:"tempAvg"`
	PopMax       float64   `json:"popMax"`
	HumidityAvg  float64   `json:"humidityAvg"`
	WindSpeedAvg float64   `json:"windSpeedAvg"`
	Weather      string    `json:"weather"`
	Icon         string    `json:"icon"`
}

// CityWeather is the cached unit: a current reading plus its daily summaries.
type CityWeather struct {
	Current   CurrentWeather `json:"current"`
	Daily     []DailySummary `json:"daily"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Stale     bool           `json:"stale,omitempty"` // Indicates data served from stale cache
}
