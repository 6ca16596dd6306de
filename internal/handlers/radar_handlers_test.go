package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"social-radar/internal/models"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

var testMetrics = metrics.NewCollector("radar_handlers_test")

// stubRepository satisfies repository.RadarRepository with canned responses
type stubRepository struct {
	recommendations []*models.Recommendation
	archetypes      []string
	venues          []*models.Venue
	weather         *models.WeatherSnapshot
	err             error
	healthErr       error

	lastArchetype string
	lastLimit     int
	lastCategory  *string
}

func (s *stubRepository) PublishAffinity(ctx context.Context, affinities []models.ArchetypeAffinity) error {
	return nil
}

func (s *stubRepository) PublishVenues(ctx context.Context, venues []models.Venue) error {
	return nil
}

func (s *stubRepository) PublishRecommendations(ctx context.Context, recommendations []models.Recommendation) error {
	return nil
}

func (s *stubRepository) PublishWeather(ctx context.Context, snapshot models.WeatherSnapshot) error {
	return nil
}

func (s *stubRepository) ReplaceHolidays(ctx context.Context, holidays []models.Holiday) error {
	return nil
}

func (s *stubRepository) ListHolidays(ctx context.Context) ([]models.Holiday, error) {
	return nil, nil
}

func (s *stubRepository) GetRecommendations(ctx context.Context, archetype string, limit int) ([]*models.Recommendation, error) {
	s.lastArchetype = archetype
	s.lastLimit = limit
	return s.recommendations, s.err
}

func (s *stubRepository) ListArchetypes(ctx context.Context) ([]string, error) {
	return s.archetypes, s.err
}

func (s *stubRepository) GetVenues(ctx context.Context, category *string, limit int) ([]*models.Venue, error) {
	s.lastCategory = category
	s.lastLimit = limit
	return s.venues, s.err
}

func (s *stubRepository) GetWeather(ctx context.Context) (*models.WeatherSnapshot, error) {
	return s.weather, s.err
}

func (s *stubRepository) HealthCheck(ctx context.Context) error {
	return s.healthErr
}

func newTestHandler(repo *stubRepository) *RadarHandler {
	logger := logging.NewStructuredLogger("handlers-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return NewRadarHandler(repo, logger, testMetrics)
}

func serve(h *RadarHandler, method, target string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	h.RegisterRoutes(router)

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestGetRecommendations(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		repo       *stubRepository
		wantStatus int
		wantCount  int
		wantLimit  int
	}{
		{
			name:   "valid archetype",
			target: "/api/recommendations?archetype=Sporty",
			repo: &stubRepository{recommendations: []*models.Recommendation{
				{Archetype: models.ArchetypeSporty, VenueName: "City Gym", Rank: 1},
			}},
			wantStatus: http.StatusOK,
			wantCount:  1,
			wantLimit:  10,
		},
		{
			name:       "missing archetype parameter",
			target:     "/api/recommendations",
			repo:       &stubRepository{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown archetype",
			target:     "/api/recommendations?archetype=Wanderer",
			repo:       &stubRepository{},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "archetype with no rows is ok",
			target:     "/api/recommendations?archetype=Healing",
			repo:       &stubRepository{},
			wantStatus: http.StatusOK,
			wantCount:  0,
			wantLimit:  10,
		},
		{
			name:       "limit clamped to maximum",
			target:     "/api/recommendations?archetype=Sporty&limit=500",
			repo:       &stubRepository{},
			wantStatus: http.StatusOK,
			wantLimit:  50,
		},
		{
			name:       "repository failure",
			target:     "/api/recommendations?archetype=Sporty",
			repo:       &stubRepository{err: errors.New("store closed")},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(newTestHandler(tt.repo), http.MethodGet, tt.target)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d; body: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}

			if tt.wantStatus != http.StatusOK {
				var errResp ErrorResponse
				if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
					t.Fatalf("failed to decode error response: %v", err)
				}
				if errResp.Code != tt.wantStatus {
					t.Errorf("error code = %d, want %d", errResp.Code, tt.wantStatus)
				}
				return
			}

			var resp ListResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Count != tt.wantCount {
				t.Errorf("count = %d, want %d", resp.Count, tt.wantCount)
			}
			if tt.wantLimit != 0 && tt.repo.lastLimit != tt.wantLimit {
				t.Errorf("repository limit = %d, want %d", tt.repo.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestGetRecommendations_SpacedArchetype(t *testing.T) {
	repo := &stubRepository{}
	rec := serve(newTestHandler(repo), http.MethodGet, "/api/recommendations?archetype=Social+Butterfly")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if repo.lastArchetype != "Social Butterfly" {
		t.Errorf("archetype passed to repository = %q, want %q", repo.lastArchetype, "Social Butterfly")
	}
}

func TestListArchetypes_FallsBackToRoster(t *testing.T) {
	repo := &stubRepository{err: errors.New("table not published")}
	rec := serve(newTestHandler(repo), http.MethodGet, "/api/archetypes")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp ListResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != len(models.Roster()) {
		t.Errorf("count = %d, want full roster of %d", resp.Count, len(models.Roster()))
	}
}

func TestGetVenues(t *testing.T) {
	repo := &stubRepository{venues: []*models.Venue{
		{Name: "City Gym", Category: "gym", Score: 12},
	}}
	rec := serve(newTestHandler(repo), http.MethodGet, "/api/venues?category=gym&limit=700")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if repo.lastCategory == nil || *repo.lastCategory != "gym" {
		t.Errorf("category filter = %v, want gym", repo.lastCategory)
	}
	if repo.lastLimit != 300 {
		t.Errorf("limit = %d, want clamp to 300", repo.lastLimit)
	}
}

func TestGetWeatherContext_OfflineDefault(t *testing.T) {
	repo := &stubRepository{err: errors.New("no snapshot yet")}
	rec := serve(newTestHandler(repo), http.MethodGet, "/api/context/weather")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var snapshot models.WeatherSnapshot
	if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if snapshot.ConditionMain != "Unknown" {
		t.Errorf("ConditionMain = %v, want Unknown offline default", snapshot.ConditionMain)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := serve(newTestHandler(&stubRepository{}), http.MethodGet, "/api/health")
	if healthy.Code != http.StatusOK {
		t.Errorf("healthy status = %d, want 200", healthy.Code)
	}

	sick := serve(newTestHandler(&stubRepository{healthErr: errors.New("store closed")}), http.MethodGet, "/api/health")
	if sick.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d, want 503", sick.Code)
	}
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		raw      string
		fallback int
		max      int
		want     int
	}{
		{"", 10, 50, 10},
		{"25", 10, 50, 25},
		{"0", 10, 50, 10},
		{"-3", 10, 50, 10},
		{"abc", 10, 50, 10},
		{"500", 10, 50, 50},
	}

	for _, tt := range tests {
		if got := parseLimit(tt.raw, tt.fallback, tt.max); got != tt.want {
			t.Errorf("parseLimit(%q, %d, %d) = %d, want %d", tt.raw, tt.fallback, tt.max, got, tt.want)
		}
	}
}
