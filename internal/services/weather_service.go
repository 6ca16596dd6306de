package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"social-radar/internal/config"
	"social-radar/internal/models"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// WeatherService captures the current weather into a single snapshot. The
// provider is advisory context: any failure yields a safe default snapshot,
// never an error, so the pipeline can always proceed.
type WeatherService struct {
	cfg     config.WeatherConfig
	client  *http.Client
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewWeatherService creates a new weather service with a bounded-timeout client
func NewWeatherService(cfg config.WeatherConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *WeatherService {
	return &WeatherService{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
		metrics: metricsCollector,
	}
}

// providerResponse is the subset of the provider payload the snapshot needs
type providerResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Refresh fetches the current weather and returns a snapshot stamped with
// now. Network, auth, and decode failures all degrade to the default
// snapshot with a warning.
func (s *WeatherService) Refresh(ctx context.Context, now time.Time) models.WeatherSnapshot {
	snapshot, err := s.fetch(ctx, now)
	if err != nil {
		s.metrics.WeatherFetchFailures.Inc()
		s.logger.Warn(ctx, "[WEATHER_FALLBACK] Weather provider unavailable, using default snapshot", logging.Fields{
			"city":  s.cfg.City,
			"error": err.Error(),
		})
		return s.defaultSnapshot(now)
	}

	s.logger.Info(ctx, "[WEATHER_REFRESHED] Weather snapshot captured", logging.Fields{
		"condition":   snapshot.ConditionMain,
		"description": snapshot.Description,
		"temperature": snapshot.Temperature,
	})

	return snapshot
}

// fetch performs the actual provider call
func (s *WeatherService) fetch(ctx context.Context, now time.Time) (models.WeatherSnapshot, error) {
	var zero models.WeatherSnapshot

	if s.cfg.APIKey == "" {
		return zero, fmt.Errorf("weather API key is not configured")
	}

	query := url.Values{}
	query.Set("q", s.cfg.City)
	query.Set("appid", s.cfg.APIKey)
	query.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return zero, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("weather provider returned status %d", resp.StatusCode)
	}

	var payload providerResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return zero, fmt.Errorf("failed to decode weather response: %w", err)
	}

	if len(payload.Weather) == 0 {
		return zero, fmt.Errorf("weather response has no condition entries")
	}

	return models.WeatherSnapshot{
		ConditionMain: payload.Weather[0].Main,
		Description:   payload.Weather[0].Description,
		Temperature:   payload.Main.Temp,
		CapturedAt:    now,
	}, nil
}

// defaultSnapshot is the advisory stand-in when the provider is unreachable
func (s *WeatherService) defaultSnapshot(now time.Time) models.WeatherSnapshot {
	return models.WeatherSnapshot{
		ConditionMain: "Unknown",
		Description:   "offline",
		Temperature:   s.cfg.DefaultTemperature,
		CapturedAt:    now,
	}
}
