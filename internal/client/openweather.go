package client

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/kjstillabower/weather-advisor-service/internal/cities"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
)

// TaiwanLocation is UTC+8, used to group forecast samples into local days.
var TaiwanLocation = time.FixedZone("CST", 8*60*60)

// WeatherClient fetches current and forecast data for a registry city.
type WeatherClient interface {
	CurrentWeather(ctx context.Context, city cities.City, lang string) (models.CurrentWeather, error)
	Forecast(ctx context.Context, city cities.City, lang string) ([]models.ForecastSample, error)
	ValidateAPIKey(ctx context.Context) error
}

// OpenWeatherClient calls the OpenWeather 2.5 /weather and /forecast endpoints.
type OpenWeatherClient struct {
	upstream
	apiKey  string
	baseURL string
	retry   RetryPolicy
}

// NewOpenWeatherClient creates a client for baseURL (e.g. https://api.openweathermap.org/data/2.5).
func NewOpenWeatherClient(apiKey, baseURL string, timeout time.Duration, retry RetryPolicy) (*OpenWeatherClient, error) {
	if err := validateKey(apiKey); err != nil {
		return nil, err
	}
	return &OpenWeatherClient{
		upstream: newUpstream(APIOpenWeather, timeout),
		apiKey:   apiKey,
		baseURL:  strings.TrimRight(baseURL, "/"),
		retry:    retry,
	}, nil
}

type owMain struct {
	Temp      float64 `json:"temp"`
	FeelsLike float64 `json:"feels_like"`
	TempMin   float64 `json:"temp_min"`
	TempMax   float64 `json:"temp_max"`
	Humidity  int     `json:"humidity"`
	Pressure  int     `json:"pressure"`
}

type owCondition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type owWind struct {
	Speed float64 `json:"speed"`
}

type owClouds struct {
	All int `json:"all"`
}

type currentResponse struct {
	Dt      int64         `json:"dt"`
	Main    *owMain       `json:"main"`
	Weather []owCondition `json:"weather"`
	Wind    owWind        `json:"wind"`
	Clouds  owClouds      `json:"clouds"`
	Sys     struct {
		Sunrise int64 `json:"sunrise"`
		Sunset  int64 `json:"sunset"`
	} `json:"sys"`
}

type forecastResponse struct {
	List []struct {
		Dt      int64         `json:"dt"`
		Main    *owMain       `json:"main"`
		Weather []owCondition `json:"weather"`
		Wind    owWind        `json:"wind"`
		Clouds  owClouds      `json:"clouds"`
		Pop     float64       `json:"pop"`
	} `json:"list"`
}

// CurrentWeather returns the current reading for city. lang is an OpenWeather
// language code (zh_tw, en) used for the description.
func (c *OpenWeatherClient) CurrentWeather(ctx context.Context, city cities.City, lang string) (models.CurrentWeather, error) {
	var resp currentResponse
	if err := c.callWithRetry(ctx, c.retry, c.request("weather", city.Name, lang), &resp); err != nil {
		return models.CurrentWeather{}, err
	}
	if resp.Main == nil {
		return models.CurrentWeather{}, fmt.Errorf("parse response: missing main block")
	}

	cond := firstCondition(resp.Weather)
	return models.CurrentWeather{
		City:        city.Name,
		CityTW:      city.NameTW,
		Temperature: round1(resp.Main.Temp),
		FeelsLike:   round1(resp.Main.FeelsLike),
		TempMin:     round1(resp.Main.TempMin),
		TempMax:     round1(resp.Main.TempMax),
		Humidity:    resp.Main.Humidity,
		Pressure:    resp.Main.Pressure,
		WindSpeed:   round1(resp.Wind.Speed),
		Clouds:      resp.Clouds.All,
		Weather:     cond.Description,
		WeatherMain: cond.Main,
		Icon:        cond.Icon,
		Sunrise:     unixOrZero(resp.Sys.Sunrise),
		Sunset:      unixOrZero(resp.Sys.Sunset),
		ObservedAt:  unixOrZero(resp.Dt),
	}, nil
}

// Forecast returns the 3-hourly samples for city, in upstream order.
// Entries without a main block are skipped.
func (c *OpenWeatherClient) Forecast(ctx context.Context, city cities.City, lang string) ([]models.ForecastSample, error) {
	var resp forecastResponse
	if err := c.callWithRetry(ctx, c.retry, c.request("forecast", city.Name, lang), &resp); err != nil {
		return nil, err
	}

	samples := make([]models.ForecastSample, 0, len(resp.List))
	for _, item := range resp.List {
		if item.Main == nil {
			continue
		}
		cond := firstCondition(item.Weather)
		samples = append(samples, models.ForecastSample{
			Time:        time.Unix(item.Dt, 0).UTC(),
			Temperature: round1(item.Main.Temp),
			FeelsLike:   round1(item.Main.FeelsLike),
			TempMin:     round1(item.Main.TempMin),
			TempMax:     round1(item.Main.TempMax),
			Humidity:    item.Main.Humidity,
			WindSpeed:   round1(item.Wind.Speed),
			Clouds:      item.Clouds.All,
			Pop:         math.Round(item.Pop * 100),
			Weather:     cond.Description,
			WeatherMain: cond.Main,
			Icon:        cond.Icon,
		})
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("forecast for %s: %w", city.Name, ErrEmptyResponse)
	}
	return samples, nil
}

// ValidateAPIKey makes one unretried current-weather call for Taipei.
func (c *OpenWeatherClient) ValidateAPIKey(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var resp currentResponse
	if err := c.call(ctx, c.request("weather", "Taipei", "en"), &resp); err != nil {
		return fmt.Errorf("validate API key: %w", err)
	}
	return nil
}

func (c *OpenWeatherClient) request(endpoint, city, lang string) requestBuilder {
	return func(ctx context.Context) (*http.Request, error) {
		u, err := url.Parse(c.baseURL + "/" + endpoint)
		if err != nil {
			return nil, fmt.Errorf("invalid API URL: %w", err)
		}
		params := url.Values{}
		params.Set("q", city+",TW")
		params.Set("appid", c.apiKey)
		params.Set("units", "metric")
		if lang != "" {
			params.Set("lang", lang)
		}
		u.RawQuery = params.Encode()
		return http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	}
}

// SummarizeDaily groups samples by calendar date in loc and returns the first
// days dates in ascending order. Weather and icon come from the middle sample
// of each day.
func SummarizeDaily(samples []models.ForecastSample, days int, loc *time.Location) []models.DailySummary {
	if loc == nil {
		loc = TaiwanLocation
	}
	byDate := make(map[time.Time][]models.ForecastSample)
	for _, s := range samples {
		t := s.Time.In(loc)
		date := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		byDate[date] = append(byDate[date], s)
	}

	dates := make([]time.Time, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	if days >= 0 && len(dates) > days {
		dates = dates[:days]
	}

	out := make([]models.DailySummary, 0, len(dates))
	for _, date := range dates {
		items := byDate[date]
		sort.SliceStable(items, func(i, j int) bool { return items[i].Time.Before(items[j].Time) })

		day := models.DailySummary{
			Date:    date,
			TempMin: items[0].TempMin,
			TempMax: items[0].TempMax,
		}
		var tempSum, windSum float64
		var humiditySum int
		for _, it := range items {
			tempSum += it.Temperature
			windSum += it.WindSpeed
			humiditySum += it.Humidity
			day.TempMin = min(day.TempMin, it.TempMin)
			day.TempMax = max(day.TempMax, it.TempMax)
			day.PopMax = max(day.PopMax, it.Pop)
		}
		n := float64(len(items))
		day.TempAvg = round1(tempSum / n)
		day.HumidityAvg = math.Round(float64(humiditySum) / n)
		day.WindSpeedAvg = round1(windSum / n)
		mid := items[len(items)/2]
		day.Weather = mid.Weather
		day.Icon = mid.Icon
		out = append(out, day)
	}
	return out
}

func firstCondition(conds []owCondition) owCondition {
	if len(conds) == 0 {
		return owCondition{}
	}
	return conds[0]
}

func unixOrZero(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
