package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Weather  WeatherConfig
	Pipeline PipelineConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds the embedded store configuration
type DatabaseConfig struct {
	Path         string
	MaxOpenConns int
}

// WeatherConfig holds the weather provider configuration
type WeatherConfig struct {
	BaseURL        string
	APIKey         string
	City           string
	RequestTimeout time.Duration
	// DefaultTemperature is reported when the provider is unreachable
	DefaultTemperature float64
}

// PipelineConfig holds the recommendation pipeline policy knobs. These are
// policy constants, not tunables buried in logic.
type PipelineConfig struct {
	SurveyPath   string
	RulesPath    string
	PlacesPath   string
	Timezone     string
	Interval     time.Duration
	Cooldown     time.Duration
	VenueCap     int
	FallbackSize int
	RankLimit    int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string
}

// LoadConfig loads configuration from the environment. A .env file in the
// working directory is applied first when present.
func LoadConfig() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:  getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Path:         getEnv("RADAR_DB_PATH", "datalake/gold/social_radar_olap.duckdb"),
			MaxOpenConns: getEnvInt("RADAR_DB_MAX_OPEN_CONNS", 4),
		},
		Weather: WeatherConfig{
			BaseURL:            getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org/data/2.5/weather"),
			APIKey:             getEnv("WEATHER_API_KEY", ""),
			City:               getEnv("WEATHER_CITY", "Banjarmasin"),
			RequestTimeout:     getEnvDuration("WEATHER_REQUEST_TIMEOUT", 10*time.Second),
			DefaultTemperature: getEnvFloat("WEATHER_DEFAULT_TEMPERATURE", 27.0),
		},
		Pipeline: PipelineConfig{
			SurveyPath:   getEnv("SURVEY_PATH", "data/hasil_survey.csv"),
			RulesPath:    getEnv("RULES_PATH", "data/social_time_rules.csv"),
			PlacesPath:   getEnv("PLACES_PATH", "data/lokasi_bjm.json"),
			Timezone:     getEnv("PIPELINE_TIMEZONE", "Asia/Makassar"),
			Interval:     getEnvDuration("PIPELINE_INTERVAL", 30*time.Minute),
			Cooldown:     getEnvDuration("PIPELINE_COOLDOWN", time.Minute),
			VenueCap:     getEnvInt("PIPELINE_VENUE_CAP", 300),
			FallbackSize: getEnvInt("PIPELINE_FALLBACK_SIZE", 20),
			RankLimit:    getEnvInt("PIPELINE_RANK_LIMIT", 10),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path must not be empty")
	}

	if c.Pipeline.VenueCap <= 0 {
		return fmt.Errorf("venue cap must be positive, got %d", c.Pipeline.VenueCap)
	}

	if c.Pipeline.FallbackSize <= 0 {
		return fmt.Errorf("fallback size must be positive, got %d", c.Pipeline.FallbackSize)
	}

	if c.Pipeline.RankLimit <= 0 {
		return fmt.Errorf("rank limit must be positive, got %d", c.Pipeline.RankLimit)
	}

	if c.Pipeline.Interval <= 0 {
		return fmt.Errorf("pipeline interval must be positive, got %s", c.Pipeline.Interval)
	}

	if c.Weather.RequestTimeout <= 0 {
		return fmt.Errorf("weather request timeout must be positive, got %s", c.Weather.RequestTimeout)
	}

	if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
		return fmt.Errorf("invalid pipeline timezone %q: %w", c.Pipeline.Timezone, err)
	}

	return nil
}

// Location resolves the configured pipeline timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Pipeline.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
