package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Social Radar query API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Social Radar Query API",
			"description": "Read-only access to the archetype venue recommendation tables produced by the pipeline",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Social Radar Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/recommendations": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get ranked recommendations",
					"description": "Retrieve the ranked venue recommendations for one archetype",
					"parameters": []map[string]interface{}{
						{
							"name":        "archetype",
							"in":          "query",
							"description": "Archetype to fetch recommendations for",
							"required":    true,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Maximum rows to return (default: 10, max: 50)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 10},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Ranked recommendation rows, possibly empty",
						},
						"400": map[string]interface{}{
							"description": "Missing or unknown archetype",
						},
					},
				},
			},
			"/api/archetypes": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List archetypes",
					"description": "List the archetypes present in the recommendation table",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Archetype names",
						},
					},
				},
			},
			"/api/venues": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get venue catalog",
					"description": "Retrieve venue catalog rows ordered by popularity score",
					"parameters": []map[string]interface{}{
						{
							"name":        "category",
							"in":          "query",
							"description": "Filter by technical venue category",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "limit",
							"in":          "query",
							"description": "Maximum rows to return (default: 100, max: 300)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Venue catalog rows",
						},
					},
				},
			},
			"/api/context/weather": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Get weather context",
					"description": "Retrieve the single-row weather fact from the last pipeline run",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Weather snapshot, or the offline default when unavailable",
						},
					},
				},
			},
			"/api/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check store availability",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Store reachable",
						},
						"503": map[string]interface{}{
							"description": "Store unavailable",
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
