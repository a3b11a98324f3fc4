package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/farewatch/fare-service/internal/http/ratelimit"
	"github.com/farewatch/fare-service/internal/telemetry"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	Render    RenderConfig     `mapstructure:"render"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Cache     CacheConfig      `mapstructure:"cache"`
	Search    SearchConfig     `mapstructure:"search"`
	Aggregate AggregateConfig  `mapstructure:"aggregate"`
	Logging   LoggingConfig    `mapstructure:"logging"`
	Telemetry telemetry.Config `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	APIKey       string        `mapstructure:"api_key"`
	// RequestsPerMinute limits API calls per client IP; zero disables the limit
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RenderConfig holds the render endpoint configuration
type RenderConfig struct {
	Endpoint         string        `mapstructure:"endpoint"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Wait             time.Duration `mapstructure:"wait"`
	MinContentLength int           `mapstructure:"min_content_length"`
}

// RateLimitConfig holds pacing and retry configuration for render calls
type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	MaxRetries        int     `mapstructure:"max_retries"`
	InitialBackoffMs  int     `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int     `mapstructure:"max_backoff_ms"`
}

// Retry converts the section to the ratelimit package's config
func (c RateLimitConfig) Retry() ratelimit.Config {
	return ratelimit.Config{
		RequestsPerSecond: c.RequestsPerSecond,
		MaxRetries:        c.MaxRetries,
		InitialBackoffMs:  c.InitialBackoffMs,
		MaxBackoffMs:      c.MaxBackoffMs,
	}
}

// CacheConfig holds page cache configuration
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BasePath string        `mapstructure:"base_path"`
	MaxAge   time.Duration `mapstructure:"max_age"`
}

// SearchConfig holds URL building and parsing settings
type SearchConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Language   string `mapstructure:"language"`
	Currency   string `mapstructure:"currency"`
	StartAfter string `mapstructure:"start_after"`
	StopAt     string `mapstructure:"stop_at"`
	// RequireClosingMarker skips the trailing group that runs to the end of the window
	RequireClosingMarker bool `mapstructure:"require_closing_marker"`
}

// AggregateConfig holds aggregation settings
type AggregateConfig struct {
	Placeholders []string `mapstructure:"placeholders"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.SetEnvPrefix("FARE_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found next to the binary's working directory
func loadEnvFile() error {
	for _, path := range []string{".", "./config"} {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			return loadDotEnvFile(envFile)
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads KEY=VALUE lines into the environment. Variables that
// are already set win over the file.
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(strings.TrimPrefix(key, "export "))
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds well-known unprefixed environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", "DATABASE_URL")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.api_key", "FARE_SERVICE_API_KEY", "API_KEY")

	v.BindEnv("logging.level", "LOG_LEVEL")

	v.BindEnv("render.endpoint", "FARE_SERVICE_RENDER_ENDPOINT", "RENDER_ENDPOINT")

	v.BindEnv("cache.base_path", "FARE_SERVICE_CACHE_PATH", "CACHE_PATH")

	v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.requests_per_minute", 60)

	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 1)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("render.timeout", 90*time.Second)
	v.SetDefault("render.wait", 5*time.Second)
	v.SetDefault("render.min_content_length", 1000)

	retry := ratelimit.DefaultConfig()
	v.SetDefault("rate_limit.requests_per_second", retry.RequestsPerSecond)
	v.SetDefault("rate_limit.max_retries", retry.MaxRetries)
	v.SetDefault("rate_limit.initial_backoff_ms", retry.InitialBackoffMs)
	v.SetDefault("rate_limit.max_backoff_ms", retry.MaxBackoffMs)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.base_path", "./data/cache")
	v.SetDefault("cache.max_age", 24*time.Hour)

	v.SetDefault("search.base_url", "https://www.google.com/travel/flights")
	v.SetDefault("search.language", "en")
	v.SetDefault("search.currency", "")
	v.SetDefault("search.start_after", "Sort by:")
	v.SetDefault("search.stop_at", "more flights")
	v.SetDefault("search.require_closing_marker", false)

	v.SetDefault("aggregate.placeholders", []string{"Price graph", "Price history", "Date grid", "Track prices"})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", telemetry.DefaultServiceName)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
