//go:build integration

// Package testhelpers builds live collaborators for integration tests.
package testhelpers

import (
	"os"
	"testing"
	"time"

	"github.com/kjstillabower/weather-advisor-service/internal/advisory"
	"github.com/kjstillabower/weather-advisor-service/internal/cache"
	"github.com/kjstillabower/weather-advisor-service/internal/client"
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
	"github.com/kjstillabower/weather-advisor-service/internal/service"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	OpenWeatherKey string
	OpenWeatherURL string
	MOENVKey       string
	CacheBackend   string // "in_memory", "memcached" or "valkey"
	MemcachedAddrs string
	ValkeyAddr     string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test if OPENWEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	key := os.Getenv("OPENWEATHER_API_KEY")
	if key == "" {
		t.Skip("OPENWEATHER_API_KEY not set, skipping integration test")
	}
	return IntegrationTestConfig{
		OpenWeatherKey: key,
		OpenWeatherURL: envOr("OPENWEATHER_API_URL", "https://api.openweathermap.org/data/2.5"),
		MOENVKey:       os.Getenv("MOENV_API_KEY"),
		CacheBackend:   os.Getenv("INTEGRATION_CACHE_BACKEND"),
		MemcachedAddrs: envOr("MEMCACHED_ADDRS", "localhost:11211"),
		ValkeyAddr:     envOr("VALKEY_ADDR", "localhost:6379"),
	}
}

// Backend returns the configured cache backend, falling back to in-memory
// when the remote one cannot be reached. The backend is closed on cleanup.
func Backend(t *testing.T, cfg IntegrationTestConfig) cache.Backend {
	t.Helper()
	var backend cache.Backend = cache.NewInMemory()
	switch cfg.CacheBackend {
	case "memcached":
		backend = cache.NewMemcached(cfg.MemcachedAddrs, 500*time.Millisecond, 2)
	case "valkey":
		v, err := cache.NewValkey(cfg.ValkeyAddr)
		if err != nil {
			t.Logf("valkey not available (%v), using in-memory cache", err)
			break
		}
		backend = v
	}
	if err := backend.Ping(t.Context()); err != nil {
		t.Logf("%s not reachable (%v), using in-memory cache", cfg.CacheBackend, err)
		_ = backend.Close()
		backend = cache.NewInMemory()
	}
	t.Cleanup(func() { _ = backend.Close() })
	return backend
}

// SetupIntegrationService creates an AdvisorService backed by the live
// OpenWeather API, and MOENV when a key is set. AI stays disabled.
func SetupIntegrationService(t *testing.T, cfg IntegrationTestConfig) *service.AdvisorService {
	t.Helper()
	weather := SetupIntegrationClient(t, cfg)
	backend := Backend(t, cfg)

	deps := service.Deps{
		Weather:      weather,
		Orchestrator: advisory.NewOrchestrator(nil, i18n.MustLoad(), advisory.Config{}, nil),
		WeatherCache: cache.New[models.CityWeather](backend, "it:weather:", time.Hour),
		AQICache:     cache.New[[]models.AQIRecord](backend, "it:aqi:", time.Hour),
	}
	if cfg.MOENVKey != "" {
		moenv, err := client.NewMOENVClient(cfg.MOENVKey, "", 10*time.Second)
		if err != nil {
			t.Fatalf("NewMOENVClient() error = %v", err)
		}
		deps.AQI = moenv
	}
	return service.NewAdvisorService(deps, service.Config{
		CacheTTL:        time.Minute,
		StaleCacheTTL:   time.Hour,
		CoalesceTimeout: 15 * time.Second,
	}, nil)
}

// SetupIntegrationClient creates a live OpenWeather client.
func SetupIntegrationClient(t *testing.T, cfg IntegrationTestConfig) *client.OpenWeatherClient {
	t.Helper()
	c, err := client.NewOpenWeatherClient(cfg.OpenWeatherKey, cfg.OpenWeatherURL, 5*time.Second, client.DefaultRetryPolicy())
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}
	return c
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
