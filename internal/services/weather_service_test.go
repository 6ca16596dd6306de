package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"social-radar/internal/config"
)

func weatherConfig(baseURL string) config.WeatherConfig {
	return config.WeatherConfig{
		BaseURL:            baseURL,
		APIKey:             "test-key",
		City:               "Banjarmasin",
		RequestTimeout:     2 * time.Second,
		DefaultTemperature: 27.0,
	}
}

func TestRefresh_ProviderSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Banjarmasin" {
			t.Errorf("query q = %v, want Banjarmasin", got)
		}
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Errorf("query appid = %v, want test-key", got)
		}
		if got := r.URL.Query().Get("units"); got != "metric" {
			t.Errorf("query units = %v, want metric", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"weather":[{"main":"Rain","description":"light rain"}],"main":{"temp":26.5}}`))
	}))
	defer server.Close()

	svc := NewWeatherService(weatherConfig(server.URL), testLogger(), testMetrics)

	now := time.Date(2024, 8, 19, 10, 0, 0, 0, time.UTC)
	snapshot := svc.Refresh(context.Background(), now)

	if snapshot.ConditionMain != "Rain" {
		t.Errorf("ConditionMain = %v, want Rain", snapshot.ConditionMain)
	}
	if snapshot.Description != "light rain" {
		t.Errorf("Description = %v, want light rain", snapshot.Description)
	}
	if snapshot.Temperature != 26.5 {
		t.Errorf("Temperature = %v, want 26.5", snapshot.Temperature)
	}
	if !snapshot.CapturedAt.Equal(now) {
		t.Errorf("CapturedAt = %v, want %v", snapshot.CapturedAt, now)
	}
	if !snapshot.IsPrecipitation() {
		t.Error("IsPrecipitation() = false, want true for Rain")
	}
}

func TestRefresh_ProviderErrorsDegradeToDefault(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"weather":`))
			},
		},
		{
			name: "empty condition list",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"weather":[],"main":{"temp":30}}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			svc := NewWeatherService(weatherConfig(server.URL), testLogger(), testMetrics)

			now := time.Date(2024, 8, 19, 10, 0, 0, 0, time.UTC)
			snapshot := svc.Refresh(context.Background(), now)

			if snapshot.ConditionMain != "Unknown" {
				t.Errorf("ConditionMain = %v, want Unknown default", snapshot.ConditionMain)
			}
			if snapshot.Temperature != 27.0 {
				t.Errorf("Temperature = %v, want the configured default 27.0", snapshot.Temperature)
			}
			if !snapshot.CapturedAt.Equal(now) {
				t.Errorf("CapturedAt = %v, want %v", snapshot.CapturedAt, now)
			}
			if snapshot.IsPrecipitation() {
				t.Error("default snapshot must never count as precipitation")
			}
		})
	}
}

func TestRefresh_UnreachableProvider(t *testing.T) {
	cfg := weatherConfig("http://127.0.0.1:1")
	cfg.RequestTimeout = 200 * time.Millisecond

	svc := NewWeatherService(cfg, testLogger(), testMetrics)

	snapshot := svc.Refresh(context.Background(), time.Now())
	if snapshot.ConditionMain != "Unknown" {
		t.Errorf("ConditionMain = %v, want Unknown default", snapshot.ConditionMain)
	}
}

func TestRefresh_MissingAPIKey(t *testing.T) {
	cfg := weatherConfig("http://example.invalid")
	cfg.APIKey = ""

	svc := NewWeatherService(cfg, testLogger(), testMetrics)

	snapshot := svc.Refresh(context.Background(), time.Now())
	if snapshot.ConditionMain != "Unknown" {
		t.Errorf("ConditionMain = %v, want Unknown default without an API key", snapshot.ConditionMain)
	}
}
