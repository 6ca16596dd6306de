package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"social-radar/internal/models"
	"social-radar/internal/repository"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// RadarHandler serves the read-only query API over the published tables
type RadarHandler struct {
	repo    repository.RadarRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRadarHandler creates a new radar handler
func NewRadarHandler(repo repository.RadarRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *RadarHandler {
	return &RadarHandler{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// RegisterRoutes registers all API routes
func (h *RadarHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/recommendations", h.GetRecommendations).Methods(http.MethodGet)
	router.HandleFunc("/api/archetypes", h.ListArchetypes).Methods(http.MethodGet)
	router.HandleFunc("/api/venues", h.GetVenues).Methods(http.MethodGet)
	router.HandleFunc("/api/context/weather", h.GetWeatherContext).Methods(http.MethodGet)
	router.HandleFunc("/api/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/docs", SwaggerUI).Methods(http.MethodGet)
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods(http.MethodGet)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ListResponse wraps list payloads with their row count
type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

// GetRecommendations handles GET /api/recommendations
func (h *RadarHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/recommendations").Observe(duration.Seconds())
	}()

	archetype := r.URL.Query().Get("archetype")
	if archetype == "" {
		h.sendError(w, r, "archetype query parameter is required", http.StatusBadRequest)
		return
	}

	if !models.KnownArchetype(models.Archetype(archetype)) {
		h.sendError(w, r, "unknown archetype", http.StatusBadRequest)
		return
	}

	limit := parseLimit(r.URL.Query().Get("limit"), 10, 50)

	recommendations, err := h.repo.GetRecommendations(ctx, archetype, limit)
	if err != nil {
		h.metrics.RecordAPIError("repository_error", "/api/recommendations")
		h.logger.Error(ctx, "[API_ERROR] Failed to get recommendations", logging.Fields{
			"archetype": archetype,
		}, err)
		h.sendError(w, r, "failed to query recommendations", http.StatusInternalServerError)
		return
	}

	// An archetype with no rows is a valid state, not an error
	h.sendJSON(w, r, "/api/recommendations", http.StatusOK, ListResponse{
		Data:  recommendations,
		Count: len(recommendations),
	})
}

// ListArchetypes handles GET /api/archetypes
func (h *RadarHandler) ListArchetypes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	archetypes, err := h.repo.ListArchetypes(ctx)
	if err != nil {
		// Best effort: fall back to the fixed roster when the table is not
		// published yet
		h.logger.Warn(ctx, "[API_FALLBACK] Recommendation table unavailable, serving fixed roster", logging.Fields{
			"error": err.Error(),
		})
		archetypes = nil
		for _, a := range models.Roster() {
			archetypes = append(archetypes, string(a))
		}
	}

	h.sendJSON(w, r, "/api/archetypes", http.StatusOK, ListResponse{
		Data:  archetypes,
		Count: len(archetypes),
	})
}

// GetVenues handles GET /api/venues
func (h *RadarHandler) GetVenues(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/venues").Observe(duration.Seconds())
	}()

	var category *string
	if c := r.URL.Query().Get("category"); c != "" {
		category = &c
	}

	limit := parseLimit(r.URL.Query().Get("limit"), 100, 300)

	venues, err := h.repo.GetVenues(ctx, category, limit)
	if err != nil {
		h.metrics.RecordAPIError("repository_error", "/api/venues")
		h.logger.Error(ctx, "[API_ERROR] Failed to get venues", logging.Fields{}, err)
		h.sendError(w, r, "failed to query venues", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, r, "/api/venues", http.StatusOK, ListResponse{
		Data:  venues,
		Count: len(venues),
	})
}

// GetWeatherContext handles GET /api/context/weather. When the context table
// is unavailable the handler answers with the offline default rather than an
// error screen.
func (h *RadarHandler) GetWeatherContext(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snapshot, err := h.repo.GetWeather(ctx)
	if err != nil {
		h.logger.Warn(ctx, "[API_FALLBACK] Weather context unavailable, serving offline default", logging.Fields{
			"error": err.Error(),
		})
		snapshot = &models.WeatherSnapshot{
			ConditionMain: "Unknown",
			Description:   "offline",
			CapturedAt:    time.Now().UTC(),
		}
	}

	h.sendJSON(w, r, "/api/context/weather", http.StatusOK, snapshot)
}

// HealthCheck handles GET /api/health
func (h *RadarHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.repo.HealthCheck(ctx); err != nil {
		h.metrics.RecordAPIError("health_check_failed", "/api/health")
		h.sendError(w, r, "store unavailable", http.StatusServiceUnavailable)
		return
	}

	h.sendJSON(w, r, "/api/health", http.StatusOK, map[string]string{"status": "ok"})
}

// sendJSON writes a JSON response and records the request metric
func (h *RadarHandler) sendJSON(w http.ResponseWriter, r *http.Request, endpoint string, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error(r.Context(), "[API_ENCODE_ERROR] Failed to encode response", logging.Fields{
			"endpoint": endpoint,
		}, err)
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(status))
}

// sendError writes a JSON error response
func (h *RadarHandler) sendError(w http.ResponseWriter, r *http.Request, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})

	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(status))
}

// parseLimit clamps the limit query parameter to [1, max] with a default
func parseLimit(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
