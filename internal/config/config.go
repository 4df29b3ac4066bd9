package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	WeatherAPIKey string
	GeoURL        string
	WeatherURL    string
	ForecastURL   string

	UpstreamTimeout time.Duration
	RequestTimeout  time.Duration

	UpstreamRPS   float64
	UpstreamBurst int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold uint32
	CircuitBreakerTimeout          time.Duration

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		GeoURL      string `yaml:"geo_url"`
		WeatherURL  string `yaml:"weather_url"`
		ForecastURL string `yaml:"forecast_url"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Reliability struct {
		UpstreamRPS                    float64 `yaml:"upstream_rps"`
		UpstreamBurst                  int     `yaml:"upstream_burst"`
		CircuitBreakerEnabled          bool    `yaml:"circuit_breaker_enabled"`
		CircuitBreakerFailureThreshold uint32  `yaml:"circuit_breaker_failure_threshold"`
		CircuitBreakerTimeout          string  `yaml:"circuit_breaker_timeout"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev), a .env
// file when present, and the process environment. The API key comes from
// WEATHER_API_KEY env or config/secrets.yaml; a missing key is NOT an error
// here, it surfaces as a per-request configuration error so the process can
// still serve health checks.
func Load() (*Config, error) {
	// .env is optional and only fills env vars that are unset.
	_ = godotenv.Load()

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}

	var fc fileConfig
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	case os.IsNotExist(err):
		// Defaults and env cover everything; a config file is optional.
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = os.Getenv("PORT")
	if cfg.ServerPort == "" {
		cfg.ServerPort = fc.Server.Port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "3000"
	}

	cfg.WeatherAPIKey = os.Getenv("WEATHER_API_KEY")
	if cfg.WeatherAPIKey == "" {
		secretsPath := filepath.Join(cwd, "config", "secrets.yaml")
		secretsData, err := os.ReadFile(secretsPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read secrets file: %w", err)
			}
		} else {
			var sec secretsFile
			if err := yaml.Unmarshal(secretsData, &sec); err != nil {
				return nil, fmt.Errorf("parse secrets file: %w", err)
			}
			cfg.WeatherAPIKey = sec.WeatherAPIKey
		}
	}

	cfg.GeoURL = fc.WeatherAPI.GeoURL
	if cfg.GeoURL == "" {
		cfg.GeoURL = "https://api.openweathermap.org/geo/1.0/direct"
	}
	cfg.WeatherURL = fc.WeatherAPI.WeatherURL
	if cfg.WeatherURL == "" {
		cfg.WeatherURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	cfg.ForecastURL = fc.WeatherAPI.ForecastURL
	if cfg.ForecastURL == "" {
		cfg.ForecastURL = "https://api.openweathermap.org/data/2.5/forecast"
	}
	cfg.UpstreamTimeout = parseDuration(fc.WeatherAPI.Timeout, 5*time.Second)

	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	cfg.UpstreamRPS = fc.Reliability.UpstreamRPS
	if cfg.UpstreamRPS <= 0 {
		cfg.UpstreamRPS = 25
	}
	cfg.UpstreamBurst = fc.Reliability.UpstreamBurst
	if cfg.UpstreamBurst <= 0 {
		cfg.UpstreamBurst = 50
	}
	cfg.CircuitBreakerEnabled = fc.Reliability.CircuitBreakerEnabled
	cfg.CircuitBreakerFailureThreshold = fc.Reliability.CircuitBreakerFailureThreshold
	if cfg.CircuitBreakerFailureThreshold == 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerTimeout = parseDuration(fc.Reliability.CircuitBreakerTimeout, 30*time.Second)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseDuration parses a duration string and returns defaultVal on empty
// input, parse error, or a non-positive result.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. The request timeout must exceed the
// upstream timeout so handler deadlines do not fire before the client's own.
func validate(cfg *Config) error {
	if cfg.UpstreamTimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.UpstreamTimeout {
		cfg.RequestTimeout = cfg.UpstreamTimeout + time.Second
	}
	return nil
}
