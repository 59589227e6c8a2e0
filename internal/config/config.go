package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/i474232898/coord-weather/internal/weather"
	"github.com/i474232898/coord-weather/internal/weather/providers"
)

type AppConfig struct {
	OpenWeatherAPIKey string
	AccuWeatherAPIKey string
	WeatherAPIKey     string

	// HTTPTimeout bounds every outbound provider call.
	HTTPTimeout time.Duration

	// DefaultProvider is used by the API and the form when none is chosen.
	DefaultProvider string

	// ShowProviderSelect renders the provider selector in the form.
	ShowProviderSelect bool

	// APIBaseURL is the backend the form calls; empty means same origin.
	APIBaseURL string

	CORSAllowedOrigins string
	MaxCoordinates     int           // per API request
	RequestDelay       time.Duration // between provider calls in the API

	Port     string
	AppEnv   string
	LogLevel slog.Level
}

// Credentials returns the provider API keys.
func (c *AppConfig) Credentials() providers.Credentials {
	return providers.Credentials{
		OpenWeatherAPIKey: c.OpenWeatherAPIKey,
		AccuWeatherAPIKey: c.AccuWeatherAPIKey,
		WeatherAPIKey:     c.WeatherAPIKey,
	}
}

// Load reads configuration from an optional .env file, an optional
// config.yaml and the environment, in increasing order of precedence.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "error", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// OPENWEATHER_API_KEY → openweather_api_key
	v.AutomaticEnv()

	cfg := &AppConfig{
		OpenWeatherAPIKey:  strings.TrimSpace(v.GetString("openweather_api_key")),
		AccuWeatherAPIKey:  strings.TrimSpace(v.GetString("accuweather_api_key")),
		WeatherAPIKey:      strings.TrimSpace(v.GetString("weatherapi_api_key")),
		DefaultProvider:    strings.ToLower(strings.TrimSpace(v.GetString("default_provider"))),
		ShowProviderSelect: v.GetBool("web_show_provider_select"),
		APIBaseURL:         strings.TrimRight(strings.TrimSpace(v.GetString("api_base_url")), "/"),
		CORSAllowedOrigins: strings.TrimSpace(v.GetString("cors_allowed_origins")),
		MaxCoordinates:     v.GetInt("api_max_coords"),
		Port:               strings.TrimSpace(v.GetString("port")),
		AppEnv:             strings.TrimSpace(v.GetString("app_env")),
	}

	var err error
	if cfg.HTTPTimeout, err = parseDuration(v, "http_timeout"); err != nil {
		return nil, err
	}
	if cfg.RequestDelay, err = parseDuration(v, "api_delay"); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = parseLogLevel(v.GetString("log_level")); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("openweather_api_key", "")
	v.SetDefault("accuweather_api_key", "")
	v.SetDefault("weatherapi_api_key", "")
	v.SetDefault("http_timeout", "20s")
	v.SetDefault("default_provider", weather.ProviderOpenMeteo)
	v.SetDefault("web_show_provider_select", false)
	v.SetDefault("api_base_url", "")
	v.SetDefault("cors_allowed_origins", "*")
	v.SetDefault("api_max_coords", 50)
	v.SetDefault("api_delay", "0s")
	v.SetDefault("port", "8080")
	v.SetDefault("app_env", "dev")
	v.SetDefault("log_level", "info")
}

// Validate checks the settings every command relies on.
func (c *AppConfig) Validate() error {
	var errs []string

	if !weather.IsKnownProvider(c.DefaultProvider) {
		errs = append(errs, fmt.Sprintf("DEFAULT_PROVIDER %q is not one of %s", c.DefaultProvider, strings.Join(weather.ProviderNames, ", ")))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, "HTTP_TIMEOUT must be positive")
	}
	return joinErrors(errs)
}

// ValidateServer checks the settings only the API server uses.
func (c *AppConfig) ValidateServer() error {
	var errs []string

	if c.RequestDelay < 0 {
		errs = append(errs, "API_DELAY must not be negative")
	}
	if c.MaxCoordinates <= 0 {
		errs = append(errs, "API_MAX_COORDS must be positive")
	}
	if c.Port == "" {
		errs = append(errs, "PORT is required")
	}
	if c.CORSAllowedOrigins == "" {
		errs = append(errs, "CORS_ALLOWED_ORIGINS must not be empty")
	}
	switch c.AppEnv {
	case "dev", "prod":
	default:
		errs = append(errs, fmt.Sprintf("APP_ENV %q is invalid (allowed: dev, prod)", c.AppEnv))
	}
	return joinErrors(errs)
}

func joinErrors(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	s := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", strings.ToUpper(key), err)
	}
	return d, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
