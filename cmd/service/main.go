package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-advisor-service/internal/advisory"
	"github.com/kjstillabower/weather-advisor-service/internal/cache"
	"github.com/kjstillabower/weather-advisor-service/internal/circuitbreaker"
	"github.com/kjstillabower/weather-advisor-service/internal/client"
	"github.com/kjstillabower/weather-advisor-service/internal/config"
	httphandler "github.com/kjstillabower/weather-advisor-service/internal/http"
	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
	"github.com/kjstillabower/weather-advisor-service/internal/lifecycle"
	"github.com/kjstillabower/weather-advisor-service/internal/models"
	"github.com/kjstillabower/weather-advisor-service/internal/observability"
	"github.com/kjstillabower/weather-advisor-service/internal/scheduler"
	"github.com/kjstillabower/weather-advisor-service/internal/service"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	lifecycle.MarkStarted(time.Now())

	weatherClient, err := client.NewOpenWeatherClient(cfg.OpenWeatherAPIKey, cfg.OpenWeatherURL, cfg.OpenWeatherTimeout, client.RetryPolicy{
		Attempts:  cfg.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay,
		MaxDelay:  cfg.RetryMaxDelay,
	})
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}
	weatherClient.SetCircuitBreaker(newBreaker(cfg, client.APIOpenWeather))

	backend, err := buildBackend(cfg)
	if err != nil {
		logger.Fatal("cache backend", zap.String("backend", cfg.CacheBackend), zap.Error(err))
	}
	logger.Info("cache backend", zap.String("backend", cfg.CacheBackend))

	deps, err := buildDeps(cfg, logger)
	if err != nil {
		logger.Fatal("upstream clients", zap.Error(err))
	}
	deps.Weather = weatherClient
	deps.WeatherCache, deps.AQICache = buildCaches(cfg, backend)

	catalog := i18n.MustLoad()
	var completer advisory.Completer
	if cfg.AIEnabled() {
		ai, err := client.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIURL, cfg.OpenAIModel, cfg.OpenAIMaxTokens, cfg.OpenAITimeout)
		if err != nil {
			logger.Fatal("openai client", zap.Error(err))
		}
		ai.SetCircuitBreaker(newBreaker(cfg, client.APIOpenAI))
		completer = ai
	}
	deps.Orchestrator = advisory.NewOrchestrator(completer, catalog, advisory.Config{
		CallTimeout: cfg.OpenAITimeout,
		OnCompletion: func(topic advisory.Topic, err error) {
			observability.RecordCompletion(string(topic), err)
		},
		OnReport: func(mode advisory.Mode) {
			observability.AdvisoryReportsTotal.WithLabelValues(string(mode)).Inc()
		},
	}, logger)
	logger.Info("advisory mode", zap.Bool("ai_enabled", completer != nil))

	svc := service.NewAdvisorService(deps, service.Config{
		CacheTTL:        cfg.CacheTTL,
		StaleCacheTTL:   cfg.StaleCacheTTL,
		AQICacheTTL:     cfg.AQICacheTTL,
		CoalesceTimeout: cfg.CoalesceTimeout,
	}, logger)

	warmCities, err := scheduler.ResolveCities(cfg.WarmCities)
	if err != nil {
		logger.Fatal("warm cities", zap.Error(err))
	}
	warmer := scheduler.New(svc, scheduler.Config{
		Cities:   warmCities,
		Langs:    i18n.Supported(),
		Interval: cfg.WarmInterval,
		Timeout:  cfg.RequestTimeout,
	}, logger)
	if err := warmer.Start(); err != nil {
		logger.Warn("cache warming not started", zap.Error(err))
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	observability.RegisterRateLimitGauges(cfg.HealthWindow)

	healthConfig := &httphandler.HealthConfig{
		Window:           cfg.HealthWindow,
		DegradedErrorPct: cfg.DegradedErrorPct,
		Optional:         optionalUpstreams(cfg),
		CachePing:        backend.Ping,
		Version:          version,
	}
	handler := httphandler.NewHandler(svc, weatherClient, catalog, cfg.DefaultLang, healthConfig, logger)
	router := httphandler.NewRouter(handler, httphandler.RouterConfig{
		Logger:         logger,
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	if err := httphandler.WaitForInFlight(shutdownCtx, 100*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}
	warmer.Stop()

	if err := observability.FlushTelemetry(context.Background(), logger, backend.Close); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	logger.Info("shutdown complete", zap.Int64("peak_in_flight", httphandler.PeakInFlight()))
}

// buildBackend returns the cache backend named by cfg.CacheBackend.
func buildBackend(cfg *config.Config) (cache.Backend, error) {
	switch cfg.CacheBackend {
	case "memcached":
		return cache.NewMemcached(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns), nil
	case "valkey":
		return cache.NewValkey(cfg.ValkeyAddr)
	case "", "in_memory":
		return cache.NewInMemory(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

// buildCaches returns the weather and AQI caches. Both keep entries for
// StaleCacheTTL past expiry so the service can fall back to them.
func buildCaches(cfg *config.Config, backend cache.Backend) (*cache.Cache[models.CityWeather], *cache.Cache[[]models.AQIRecord]) {
	return cache.New[models.CityWeather](backend, "weather:", cfg.StaleCacheTTL),
		cache.New[[]models.AQIRecord](backend, "aqi:", cfg.StaleCacheTTL)
}

// buildDeps creates the optional upstream clients. A client is only set when
// its key is configured, so nil interface checks in the service stay valid.
func buildDeps(cfg *config.Config, logger *zap.Logger) (service.Deps, error) {
	var deps service.Deps
	if cfg.OneCallAPIKey != "" {
		oc, err := client.NewOneCallClient(cfg.OneCallAPIKey, cfg.OneCallURL, cfg.OneCallTimeout)
		if err != nil {
			return deps, fmt.Errorf("onecall: %w", err)
		}
		oc.SetCircuitBreaker(newBreaker(cfg, client.APIOneCall))
		deps.Official = oc
		deps.UV = oc
	} else {
		logger.Info("official alerts and UV disabled", zap.String("reason", "no onecall key"))
	}
	if cfg.MOENVAPIKey != "" {
		mc, err := client.NewMOENVClient(cfg.MOENVAPIKey, cfg.MOENVURL, cfg.MOENVTimeout)
		if err != nil {
			return deps, fmt.Errorf("moenv: %w", err)
		}
		mc.SetCircuitBreaker(newBreaker(cfg, client.APIMOENV))
		deps.AQI = mc
	} else {
		logger.Info("air quality disabled", zap.String("reason", "no moenv key"))
	}
	return deps, nil
}

func newBreaker(cfg *config.Config, component string) *circuitbreaker.CircuitBreaker {
	return circuitbreaker.New(circuitbreaker.Config{
		FailureThreshold: cfg.CircuitFailureThreshold,
		SuccessThreshold: cfg.CircuitSuccessThreshold,
		Timeout:          cfg.CircuitTimeout,
		Component:        component,
		OnStateChange:    observability.BreakerStateChanged,
	})
}

// optionalUpstreams reports which optional upstreams are configured.
func optionalUpstreams(cfg *config.Config) map[string]bool {
	return map[string]bool{
		client.APIOneCall: cfg.OneCallAPIKey != "",
		client.APIMOENV:   cfg.MOENVAPIKey != "",
		client.APIOpenAI:  cfg.AIEnabled(),
	}
}
