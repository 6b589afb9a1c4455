// Package service composes the upstream clients, caches and rule engines
// into the operations the HTTP layer exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjstillabower/weather-advisor-service/internal/advisory"
	"github.com/kjstillabower/weather-advisor-service/internal/airquality"
	"github.com/kjstillabower/weather-advisor-service/internal/alerts"
	"github.com/kjstillabower/weather-advisor-service/internal/cache"
	"github.com/kjstillabower/weather-advisor-service/internal/cities"
	"github.com/kjstillabower/weather-advisor-service/internal/client"
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
	"github.com/kjstillabower/weather-advisor-service/internal/observability"
	"github.com/kjstillabower/weather-advisor-service/internal/threshold"
	"github.com/kjstillabower/weather-advisor-service/internal/travel"
)

var (
	// ErrNotConfigured means the optional upstream behind an operation has no API key.
	ErrNotConfigured = errors.New("feature not configured")
	// ErrNoStations means MOENV published no station for the city's county.
	ErrNoStations = errors.New("no monitoring stations for city")
)

const aqiCacheKey = "aqx_p_432"

// AQISource fetches the nationwide station records.
type AQISource interface {
	FetchAQI(ctx context.Context) ([]models.AQIRecord, error)
}

// UVSource reads the current UV index at a coordinate.
type UVSource interface {
	UVIndex(ctx context.Context, lat, lon float64) (float64, error)
}

// Deps are the collaborators of AdvisorService. Official, UV and AQI are
// optional; operations that need a missing one return ErrNotConfigured.
type Deps struct {
	Weather      client.WeatherClient
	Official     alerts.OfficialSource
	UV           UVSource
	AQI          AQISource
	Orchestrator *advisory.Orchestrator
	WeatherCache *cache.Cache[models.CityWeather]
	AQICache     *cache.Cache[[]models.AQIRecord]
}

// Config tunes caching and coalescing.
type Config struct {
	CacheTTL        time.Duration
	StaleCacheTTL   time.Duration // 0 disables stale fallback
	AQICacheTTL     time.Duration
	CoalesceTimeout time.Duration // 0 disables coalescing
	ForecastDays    int
}

// AdvisorService serves weather-derived advice per city using a cache-aside
// pattern with upstream fallback.
type AdvisorService struct {
	deps          Deps
	cfg           Config
	logger        *zap.Logger
	weatherFlight *coalescer[models.CityWeather]
	aqiFlight     *coalescer[[]models.AQIRecord]
}

// AlertsResult is the alert list for one city with what it was computed from.
type AlertsResult struct {
	City     cities.City    `json:"city"`
	Alerts   []alerts.Alert `json:"alerts"`
	Coverage Coverage       `json:"coverage"`
	Stale    bool           `json:"stale,omitempty"`
}

// Coverage tells callers which inputs were available, so an empty alert list
// can be told apart from missing data.
type Coverage struct {
	Forecast bool `json:"forecast"`
	Official bool `json:"official"`
}

// UVReading is the current UV index for one city.
type UVReading struct {
	City  string          `json:"city"`
	UVI   float64         `json:"uvi"`
	Level threshold.Level `json:"level"`
}

// NewAdvisorService wires deps. A nil cache disables caching for that dataset.
func NewAdvisorService(deps Deps, cfg Config, logger *zap.Logger) *AdvisorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = advisory.HorizonDays
	}
	if cfg.AQICacheTTL <= 0 {
		cfg.AQICacheTTL = 30 * time.Minute
	}
	s := &AdvisorService{deps: deps, cfg: cfg, logger: logger}
	if cfg.CoalesceTimeout > 0 {
		s.weatherFlight = newCoalescer[models.CityWeather](cfg.CoalesceTimeout)
		s.aqiFlight = newCoalescer[[]models.AQIRecord](cfg.CoalesceTimeout)
	}
	return s
}

// AIEnabled reports whether advisories can come from the completion provider.
func (s *AdvisorService) AIEnabled() bool {
	return s.deps.Orchestrator != nil && s.deps.Orchestrator.AIEnabled()
}

// CityWeather returns the current reading and daily summaries for city, with
// descriptions in lang. Served from cache when fresh; on upstream failure a
// stale entry within StaleCacheTTL is returned with Stale set.
func (s *AdvisorService) CityWeather(ctx context.Context, city cities.City, lang i18n.Lang) (models.CityWeather, error) {
	key := weatherKey(city, lang)
	logger := observability.LoggerFromContext(ctx, s.logger)
	start := time.Now()

	if s.deps.WeatherCache != nil {
		cached, ok, err := s.deps.WeatherCache.Get(ctx, key)
		switch {
		case err != nil:
			observability.CacheErrorsTotal.WithLabelValues("get").Inc()
			logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		case ok:
			observability.CacheHitsTotal.WithLabelValues("weather", "fresh").Inc()
			logger.Debug("weather served", zap.String("city", city.Name), zap.Bool("cached", true), zap.Duration("duration", time.Since(start)))
			return cached, nil
		}
	}

	logger.Debug("cache miss, fetching upstream", zap.String("key", key))
	data, shared, err := s.weatherFlight.Do(ctx, key, func(ctx context.Context) (models.CityWeather, error) {
		return s.refreshWeather(ctx, city, lang)
	})
	if err != nil {
		if stale, ok := s.staleWeather(ctx, key, logger); ok {
			return stale, nil
		}
		return models.CityWeather{}, fmt.Errorf("fetch weather for %s: %w", city.Name, err)
	}
	logger.Debug("weather served", zap.String("city", city.Name), zap.Bool("cached", false), zap.Bool("coalesced", shared), zap.Duration("duration", time.Since(start)))
	return data, nil
}

// Refresh fetches city weather upstream and overwrites the cache entry.
func (s *AdvisorService) Refresh(ctx context.Context, city cities.City, lang i18n.Lang) error {
	_, _, err := s.weatherFlight.Do(ctx, weatherKey(city, lang), func(ctx context.Context) (models.CityWeather, error) {
		return s.refreshWeather(ctx, city, lang)
	})
	return err
}

func (s *AdvisorService) refreshWeather(ctx context.Context, city cities.City, lang i18n.Lang) (models.CityWeather, error) {
	var (
		current models.CurrentWeather
		samples []models.ForecastSample
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.deps.Weather.CurrentWeather(gctx, city, string(lang))
		return err
	})
	g.Go(func() error {
		var err error
		samples, err = s.deps.Weather.Forecast(gctx, city, string(lang))
		return err
	})
	if err := g.Wait(); err != nil {
		return models.CityWeather{}, err
	}

	data := models.CityWeather{
		Current:   current,
		Daily:     client.SummarizeDaily(samples, s.cfg.ForecastDays, client.TaiwanLocation),
		FetchedAt: time.Now().UTC(),
	}
	if s.deps.WeatherCache != nil {
		if err := s.deps.WeatherCache.Set(ctx, weatherKey(city, lang), data, s.cfg.CacheTTL); err != nil {
			observability.CacheErrorsTotal.WithLabelValues("set").Inc()
			observability.LoggerFromContext(ctx, s.logger).Warn("cache set failed", zap.String("city", city.Name), zap.Error(err))
		}
	}
	return data, nil
}

func (s *AdvisorService) staleWeather(ctx context.Context, key string, logger *zap.Logger) (models.CityWeather, bool) {
	if s.deps.WeatherCache == nil || s.cfg.StaleCacheTTL <= 0 {
		return models.CityWeather{}, false
	}
	stale, storedAt, ok, err := s.deps.WeatherCache.GetStale(ctx, key, s.cfg.StaleCacheTTL)
	if err != nil || !ok {
		return models.CityWeather{}, false
	}
	observability.CacheHitsTotal.WithLabelValues("weather", "stale").Inc()
	logger.Info("serving stale cache", zap.String("key", key), zap.Duration("age", time.Since(storedAt)))
	stale.Stale = true
	return stale, true
}

// Alerts evaluates rule alerts on the city's weather and appends any
// official warnings. Official lookup failures never fail the call.
func (s *AdvisorService) Alerts(ctx context.Context, city cities.City, lang i18n.Lang) (AlertsResult, error) {
	cw, err := s.CityWeather(ctx, city, lang)
	if err != nil {
		return AlertsResult{}, err
	}

	list := alerts.Evaluate(&cw.Current, cw.Daily)
	if s.deps.Official != nil {
		list = append(list, alerts.Official(ctx, s.deps.Official, city.Lat, city.Lon, observability.LoggerFromContext(ctx, s.logger))...)
	}
	for _, a := range list {
		observability.AlertsEmittedTotal.WithLabelValues(string(a.Kind), string(a.Severity)).Inc()
	}
	return AlertsResult{
		City:   city,
		Alerts: list,
		Coverage: Coverage{
			Forecast: len(cw.Daily) > 0,
			Official: s.deps.Official != nil,
		},
		Stale: cw.Stale,
	}, nil
}

// Travel ranks the city's forecast days for outings.
func (s *AdvisorService) Travel(ctx context.Context, city cities.City, lang i18n.Lang) ([]travel.RankedDay, error) {
	cw, err := s.CityWeather(ctx, city, lang)
	if err != nil {
		return nil, err
	}
	return travel.Recommend(cw.Daily), nil
}

// Advisory returns the four-section report for city in lang.
func (s *AdvisorService) Advisory(ctx context.Context, city cities.City, lang i18n.Lang) (advisory.Report, error) {
	cw, err := s.CityWeather(ctx, city, lang)
	if err != nil {
		return advisory.Report{}, err
	}
	if s.deps.Orchestrator == nil {
		report := advisory.RuleReport(cw.Current, cw.Daily)
		observability.AdvisoryReportsTotal.WithLabelValues(string(report.Mode)).Inc()
		return report, nil
	}
	return s.deps.Orchestrator.Analyze(ctx, lang, city.DisplayName(string(lang)), cw.Current, cw.Daily), nil
}

// AirQuality returns the representative station reading for city.
func (s *AdvisorService) AirQuality(ctx context.Context, city cities.City) (airquality.Reading, error) {
	records, err := s.aqiRecords(ctx)
	if err != nil {
		return airquality.Reading{}, err
	}
	r, ok := airquality.ForCity(records, city)
	if !ok {
		return airquality.Reading{}, fmt.Errorf("%s: %w", city.Name, ErrNoStations)
	}
	return r, nil
}

// AirQualityRanking returns every city with stations, worst AQI first.
func (s *AdvisorService) AirQualityRanking(ctx context.Context) ([]airquality.Reading, error) {
	records, err := s.aqiRecords(ctx)
	if err != nil {
		return nil, err
	}
	return airquality.Ranking(records), nil
}

func (s *AdvisorService) aqiRecords(ctx context.Context) ([]models.AQIRecord, error) {
	if s.deps.AQI == nil {
		return nil, fmt.Errorf("air quality: %w", ErrNotConfigured)
	}
	logger := observability.LoggerFromContext(ctx, s.logger)

	if s.deps.AQICache != nil {
		cached, ok, err := s.deps.AQICache.Get(ctx, aqiCacheKey)
		switch {
		case err != nil:
			observability.CacheErrorsTotal.WithLabelValues("get").Inc()
			logger.Warn("cache get failed", zap.String("key", aqiCacheKey), zap.Error(err))
		case ok:
			observability.CacheHitsTotal.WithLabelValues("aqi", "fresh").Inc()
			return cached, nil
		}
	}

	records, _, err := s.aqiFlight.Do(ctx, aqiCacheKey, func(ctx context.Context) ([]models.AQIRecord, error) {
		records, err := s.deps.AQI.FetchAQI(ctx)
		if err != nil {
			return nil, err
		}
		if s.deps.AQICache != nil {
			if err := s.deps.AQICache.Set(ctx, aqiCacheKey, records, s.cfg.AQICacheTTL); err != nil {
				observability.CacheErrorsTotal.WithLabelValues("set").Inc()
				logger.Warn("cache set failed", zap.String("key", aqiCacheKey), zap.Error(err))
			}
		}
		return records, nil
	})
	if err != nil {
		if s.deps.AQICache != nil && s.cfg.StaleCacheTTL > 0 {
			if stale, storedAt, ok, staleErr := s.deps.AQICache.GetStale(ctx, aqiCacheKey, s.cfg.StaleCacheTTL); staleErr == nil && ok {
				observability.CacheHitsTotal.WithLabelValues("aqi", "stale").Inc()
				logger.Info("serving stale cache", zap.String("key", aqiCacheKey), zap.Duration("age", time.Since(storedAt)))
				return stale, nil
			}
		}
		return nil, fmt.Errorf("fetch air quality: %w", err)
	}
	return records, nil
}

// UV returns the current UV index for city. The value is not cached.
func (s *AdvisorService) UV(ctx context.Context, city cities.City) (UVReading, error) {
	if s.deps.UV == nil {
		return UVReading{}, fmt.Errorf("uv index: %w", ErrNotConfigured)
	}
	uvi, err := s.deps.UV.UVIndex(ctx, city.Lat, city.Lon)
	if err != nil {
		return UVReading{}, fmt.Errorf("fetch uv index for %s: %w", city.Name, err)
	}
	return UVReading{City: city.Name, UVI: uvi, Level: threshold.UVLevel(uvi)}, nil
}

// weatherKey is per language because descriptions are localized upstream.
func weatherKey(city cities.City, lang i18n.Lang) string {
	return string(lang) + ":" + city.Slug
}
