package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/weather-advisor-service/internal/i18n"
)

// Config holds service configuration loaded from .env, YAML and env.
type Config struct {
	ServerPort  string
	DefaultLang i18n.Lang
	LogLevel    string

	OpenWeatherAPIKey  string
	OpenWeatherURL     string
	OpenWeatherTimeout time.Duration

	OneCallAPIKey  string // optional; enables official alerts and UV
	OneCallURL     string
	OneCallTimeout time.Duration

	MOENVAPIKey  string // optional; enables air quality
	MOENVURL     string
	MOENVTimeout time.Duration

	OpenAIAPIKey    string // optional; absence selects rule-engine advisories
	OpenAIURL       string
	OpenAIModel     string
	OpenAIMaxTokens int
	OpenAITimeout   time.Duration

	RequestTimeout time.Duration
	CacheTTL       time.Duration
	StaleCacheTTL  time.Duration
	AQICacheTTL    time.Duration
	CacheBackend   string // "in_memory", "memcached" or "valkey"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int
	ValkeyAddr            string

	CoalesceTimeout time.Duration

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	CircuitFailureThreshold int
	CircuitSuccessThreshold int
	CircuitTimeout          time.Duration

	ShutdownTimeout time.Duration

	HealthWindow     time.Duration
	DegradedErrorPct int

	WarmCities   []string
	WarmInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port        string `yaml:"port"`
		DefaultLang string `yaml:"default_lang"`
	} `yaml:"server"`

	Upstreams struct {
		OpenWeather struct {
			URL     string `yaml:"url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"openweather"`
		OneCall struct {
			URL     string `yaml:"url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"onecall"`
		MOENV struct {
			URL     string `yaml:"url"`
			Timeout string `yaml:"timeout"`
		} `yaml:"moenv"`
		OpenAI struct {
			URL       string `yaml:"url"`
			Model     string `yaml:"model"`
			MaxTokens int    `yaml:"max_tokens"`
			Timeout   string `yaml:"timeout"`
		} `yaml:"openai"`
	} `yaml:"upstreams"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Cache struct {
		Backend         string `yaml:"backend"`
		TTL             string `yaml:"ttl"`
		StaleTTL        string `yaml:"stale_ttl"`
		AQITTL          string `yaml:"aqi_ttl"`
		CoalesceTimeout string `yaml:"coalesce_timeout"`
		Memcached       struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Valkey struct {
			Addr string `yaml:"addr"`
		} `yaml:"valkey"`
		Warm struct {
			Cities   []string `yaml:"cities"`
			Interval string   `yaml:"interval"`
		} `yaml:"warm"`
	} `yaml:"cache"`

	Reliability struct {
		RetryMaxAttempts        int    `yaml:"retry_max_attempts"`
		RetryBaseDelay          string `yaml:"retry_base_delay"`
		RetryMaxDelay           string `yaml:"retry_max_delay"`
		RateLimitRPS            int    `yaml:"rate_limit_rps"`
		RateLimitBurst          int    `yaml:"rate_limit_burst"`
		CircuitFailureThreshold int    `yaml:"circuit_failure_threshold"`
		CircuitSuccessThreshold int    `yaml:"circuit_success_threshold"`
		CircuitTimeout          string `yaml:"circuit_timeout"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Health struct {
		Window           string `yaml:"window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"health"`
}

type secretsFile struct {
	OpenWeatherAPIKey string `yaml:"openweather_api_key"`
	OneCallAPIKey     string `yaml:"onecall_api_key"`
	MOENVAPIKey       string `yaml:"moenv_api_key"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
}

// Load reads an optional .env, then config/{ENV_NAME}.yaml (default dev) and
// config/secrets.yaml. Environment variables win over the secrets file.
// Call from project root.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	sec, err := loadSecrets(filepath.Join(cwd, "config", "secrets.yaml"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfg.ServerPort = envOr("PORT", fc.Server.Port, "8080")
	cfg.DefaultLang = i18n.DefaultLang
	if s := strings.TrimSpace(fc.Server.DefaultLang); s != "" {
		cfg.DefaultLang = i18n.Lang(s)
		if lang, ok := i18n.ParseLang(s); ok {
			cfg.DefaultLang = lang
		}
	}
	cfg.LogLevel = envOr("LOG_LEVEL", "", "INFO")

	cfg.OpenWeatherAPIKey = envOr("OPENWEATHER_API_KEY", sec.OpenWeatherAPIKey, "")
	if cfg.OpenWeatherAPIKey == "" {
		return nil, fmt.Errorf("OPENWEATHER_API_KEY required (set env or config/secrets.yaml openweather_api_key)")
	}
	cfg.OneCallAPIKey = envOr("ONECALL_API_KEY", sec.OneCallAPIKey, "")
	cfg.MOENVAPIKey = envOr("MOENV_API_KEY", sec.MOENVAPIKey, "")
	cfg.OpenAIAPIKey = envOr("OPENAI_API_KEY", sec.OpenAIAPIKey, "")

	ups := fc.Upstreams
	cfg.OpenWeatherURL = orDefault(ups.OpenWeather.URL, "https://api.openweathermap.org/data/2.5")
	cfg.OpenWeatherTimeout = parseDurationOrZero(ups.OpenWeather.Timeout, 5*time.Second)
	cfg.OneCallURL = orDefault(ups.OneCall.URL, "https://api.openweathermap.org/data/3.0")
	cfg.OneCallTimeout = parseDuration(ups.OneCall.Timeout, 5*time.Second)
	cfg.MOENVURL = orDefault(ups.MOENV.URL, "https://data.moenv.gov.tw/api/v2/aqx_p_432")
	cfg.MOENVTimeout = parseDuration(ups.MOENV.Timeout, 10*time.Second)
	cfg.OpenAIURL = orDefault(ups.OpenAI.URL, "https://api.openai.com/v1")
	cfg.OpenAIModel = orDefault(ups.OpenAI.Model, "gpt-4o-mini")
	cfg.OpenAIMaxTokens = ups.OpenAI.MaxTokens
	if cfg.OpenAIMaxTokens <= 0 {
		cfg.OpenAIMaxTokens = 1000
	}
	cfg.OpenAITimeout = parseDuration(ups.OpenAI.Timeout, 30*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 10*time.Minute)
	cfg.StaleCacheTTL = parseDurationOrZero(fc.Cache.StaleTTL, time.Hour)
	if cfg.StaleCacheTTL < 0 {
		cfg.StaleCacheTTL = 0
	}
	cfg.AQICacheTTL = parseDuration(fc.Cache.AQITTL, 30*time.Minute)
	cfg.CoalesceTimeout = parseDurationOrZero(fc.Cache.CoalesceTimeout, 15*time.Second)
	if cfg.CoalesceTimeout < 0 {
		cfg.CoalesceTimeout = 0
	}
	cfg.CacheBackend = strings.ToLower(envOr("CACHE_BACKEND", fc.Cache.Backend, "in_memory"))
	cfg.MemcachedAddrs = envOr("MEMCACHED_ADDRS", fc.Cache.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.ValkeyAddr = envOr("VALKEY_ADDR", fc.Cache.Valkey.Addr, "localhost:6379")
	cfg.WarmCities = fc.Cache.Warm.Cities
	cfg.WarmInterval = parseDuration(fc.Cache.Warm.Interval, 10*time.Minute)

	rel := fc.Reliability
	cfg.RetryAttempts = rel.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(rel.RetryBaseDelay, 100*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(rel.RetryMaxDelay, 2*time.Second)
	cfg.RateLimitRPS = rel.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 20
	}
	cfg.RateLimitBurst = rel.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 50
	}
	cfg.CircuitFailureThreshold = rel.CircuitFailureThreshold
	if cfg.CircuitFailureThreshold <= 0 {
		cfg.CircuitFailureThreshold = 5
	}
	cfg.CircuitSuccessThreshold = rel.CircuitSuccessThreshold
	if cfg.CircuitSuccessThreshold <= 0 {
		cfg.CircuitSuccessThreshold = 2
	}
	cfg.CircuitTimeout = parseDuration(rel.CircuitTimeout, 30*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.HealthWindow = parseDuration(fc.Health.Window, 60*time.Second)
	cfg.DegradedErrorPct = fc.Health.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// AIEnabled reports whether an OpenAI key is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func loadSecrets(path string) (secretsFile, error) {
	var sec secretsFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sec, nil
		}
		return sec, fmt.Errorf("read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return sec, fmt.Errorf("parse secrets file: %w", err)
	}
	return sec, nil
}

// envOr returns the trimmed env var, else fileVal, else def.
func envOr(key, fileVal, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return orDefault(fileVal, def)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Zero or negative durations are returned as-is.
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate checks loaded values. RequestTimeout is raised above the
// OpenWeather timeout when needed.
func validate(cfg *Config) error {
	if cfg.OpenWeatherTimeout <= 0 {
		return fmt.Errorf("upstreams.openweather.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.OpenWeatherTimeout {
		cfg.RequestTimeout = cfg.OpenWeatherTimeout + time.Second
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached", "valkey":
	default:
		return fmt.Errorf("cache.backend must be in_memory, memcached or valkey, got %q", cfg.CacheBackend)
	}
	if _, ok := i18n.ParseLang(string(cfg.DefaultLang)); !ok {
		return fmt.Errorf("server.default_lang must be one of %v, got %q", i18n.Supported(), cfg.DefaultLang)
	}
	if cfg.DegradedErrorPct > 100 {
		return fmt.Errorf("health.degraded_error_pct must be at most 100, got %d", cfg.DegradedErrorPct)
	}
	return nil
}
