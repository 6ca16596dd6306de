package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"social-radar/internal/models"
	"social-radar/pkg/database"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// RadarRepository provides access to the published gold tables. Every
// publish is a full replace inside one transaction: concurrent readers see
// either the old or the new complete table, never a partial one.
type RadarRepository interface {
	// Publish operations (pipeline side)
	PublishAffinity(ctx context.Context, affinities []models.ArchetypeAffinity) error
	PublishVenues(ctx context.Context, venues []models.Venue) error
	PublishRecommendations(ctx context.Context, recommendations []models.Recommendation) error
	PublishWeather(ctx context.Context, snapshot models.WeatherSnapshot) error

	// Holiday reference data
	ReplaceHolidays(ctx context.Context, holidays []models.Holiday) error
	ListHolidays(ctx context.Context) ([]models.Holiday, error)

	// Read operations (query API side)
	GetRecommendations(ctx context.Context, archetype string, limit int) ([]*models.Recommendation, error)
	ListArchetypes(ctx context.Context) ([]string, error)
	GetVenues(ctx context.Context, category *string, limit int) ([]*models.Venue, error)
	GetWeather(ctx context.Context) (*models.WeatherSnapshot, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// radarRepository implements RadarRepository over the DuckDB store
type radarRepository struct {
	db      *database.RadarDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewRadarRepository creates a new radar repository
func NewRadarRepository(db *database.RadarDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) RadarRepository {
	return &radarRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// replaceTable recreates a table and fills it with rows inside a single
// transaction. All values are bound as parameters; nothing is interpolated
// into the SQL text.
func (r *radarRepository) replaceTable(ctx context.Context, table, createStmt, insertStmt string, rows [][]interface{}) error {
	timer := time.Now()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("failed to recreate table %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertStmt)
	if err != nil {
		return fmt.Errorf("failed to prepare insert for %s: %w", table, err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("failed to insert into %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", table, err)
	}

	duration := time.Since(timer)
	r.metrics.DBQueryDuration.WithLabelValues("publish_" + table).Observe(duration.Seconds())
	r.metrics.RecordPublishedRows(table, len(rows))

	r.logger.Debug(ctx, "[REPO_PUBLISH] Table replaced", logging.Fields{
		"table":       table,
		"rows":        len(rows),
		"duration_ms": duration.Milliseconds(),
	})

	return nil
}

// PublishAffinity replaces the archetype feature summary table
func (r *radarRepository) PublishAffinity(ctx context.Context, affinities []models.ArchetypeAffinity) error {
	rows := make([][]interface{}, 0, len(affinities))
	for _, aff := range affinities {
		rows = append(rows, []interface{}{string(aff.Archetype), aff.Total, aff.Cold})
	}

	return r.replaceTable(ctx, "gold_features",
		`CREATE OR REPLACE TABLE gold_features (
			archetype VARCHAR NOT NULL,
			total BIGINT NOT NULL,
			is_cold BOOLEAN NOT NULL
		)`,
		`INSERT INTO gold_features (archetype, total, is_cold) VALUES (?, ?, ?)`,
		rows,
	)
}

// PublishVenues replaces the venue catalog table
func (r *radarRepository) PublishVenues(ctx context.Context, venues []models.Venue) error {
	rows := make([][]interface{}, 0, len(venues))
	for _, v := range venues {
		rows = append(rows, []interface{}{v.Category, v.Name, v.Lat, v.Lon, v.Score})
	}

	return r.replaceTable(ctx, "gold_locations",
		`CREATE OR REPLACE TABLE gold_locations (
			category VARCHAR NOT NULL,
			name VARCHAR NOT NULL,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			score BIGINT NOT NULL
		)`,
		`INSERT INTO gold_locations (category, name, lat, lon, score) VALUES (?, ?, ?, ?, ?)`,
		rows,
	)
}

// PublishRecommendations replaces the ranked recommendation table
func (r *radarRepository) PublishRecommendations(ctx context.Context, recommendations []models.Recommendation) error {
	rows := make([][]interface{}, 0, len(recommendations))
	for _, rec := range recommendations {
		rows = append(rows, []interface{}{
			string(rec.Archetype), rec.VenueName, rec.Lat, rec.Lon, rec.Category,
			rec.Score, rec.StrategyMessage, rec.HighlightColor, rec.Rank, rec.Provenance,
		})
	}

	return r.replaceTable(ctx, "gold_daily_recommendations",
		`CREATE OR REPLACE TABLE gold_daily_recommendations (
			archetype VARCHAR NOT NULL,
			venue_name VARCHAR NOT NULL,
			lat DOUBLE NOT NULL,
			lon DOUBLE NOT NULL,
			category VARCHAR NOT NULL,
			score BIGINT NOT NULL,
			strategy_message VARCHAR NOT NULL,
			highlight_color VARCHAR NOT NULL,
			"rank" INTEGER NOT NULL,
			provenance VARCHAR NOT NULL
		)`,
		`INSERT INTO gold_daily_recommendations
			(archetype, venue_name, lat, lon, category, score, strategy_message, highlight_color, "rank", provenance)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rows,
	)
}

// PublishWeather replaces the single-row weather context fact
func (r *radarRepository) PublishWeather(ctx context.Context, snapshot models.WeatherSnapshot) error {
	rows := [][]interface{}{{
		snapshot.ConditionMain, snapshot.Description, snapshot.Temperature, snapshot.CapturedAt,
	}}

	return r.replaceTable(ctx, "context_weather",
		`CREATE OR REPLACE TABLE context_weather (
			condition_main VARCHAR NOT NULL,
			description VARCHAR NOT NULL,
			temperature DOUBLE NOT NULL,
			captured_at TIMESTAMP NOT NULL
		)`,
		`INSERT INTO context_weather (condition_main, description, temperature, captured_at) VALUES (?, ?, ?, ?)`,
		rows,
	)
}

// ReplaceHolidays replaces the holiday calendar reference table
func (r *radarRepository) ReplaceHolidays(ctx context.Context, holidays []models.Holiday) error {
	rows := make([][]interface{}, 0, len(holidays))
	for _, h := range holidays {
		rows = append(rows, []interface{}{h.Date, h.Name})
	}

	return r.replaceTable(ctx, "holidays",
		`CREATE OR REPLACE TABLE holidays (
			holiday_date DATE NOT NULL,
			name VARCHAR NOT NULL
		)`,
		`INSERT INTO holidays (holiday_date, name) VALUES (?, ?)`,
		rows,
	)
}

// ListHolidays returns the holiday calendar. A missing table is reported as
// an error; the pipeline treats that as "no overrides".
func (r *radarRepository) ListHolidays(ctx context.Context) ([]models.Holiday, error) {
	query := `SELECT holiday_date, name FROM holidays ORDER BY holiday_date`

	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, "list_holidays", &holidays, query); err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}

	return holidays, nil
}

// GetRecommendations returns the ranked rows for one archetype
func (r *radarRepository) GetRecommendations(ctx context.Context, archetype string, limit int) ([]*models.Recommendation, error) {
	query := `
		SELECT archetype, venue_name, lat, lon, category, score,
		       strategy_message, highlight_color, "rank", provenance
		FROM gold_daily_recommendations
		WHERE archetype = ?
		ORDER BY "rank"
		LIMIT ?
	`

	var recommendations []*models.Recommendation
	err := r.db.SelectContext(ctx, "get_recommendations", &recommendations, query, archetype, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendations: %w", err)
	}

	return recommendations, nil
}

// ListArchetypes returns the archetypes present in the recommendation table
func (r *radarRepository) ListArchetypes(ctx context.Context) ([]string, error) {
	query := `SELECT DISTINCT archetype FROM gold_daily_recommendations ORDER BY archetype`

	var archetypes []string
	if err := r.db.SelectContext(ctx, "list_archetypes", &archetypes, query); err != nil {
		return nil, fmt.Errorf("failed to list archetypes: %w", err)
	}

	return archetypes, nil
}

// GetVenues returns catalog rows, optionally filtered by category
func (r *radarRepository) GetVenues(ctx context.Context, category *string, limit int) ([]*models.Venue, error) {
	query := `
		SELECT category, name, lat, lon, score
		FROM gold_locations
	`
	args := []interface{}{}

	if category != nil {
		query += ` WHERE category = ?`
		args = append(args, *category)
	}

	query += ` ORDER BY score DESC, name LIMIT ?`
	args = append(args, limit)

	var venues []*models.Venue
	if err := r.db.SelectContext(ctx, "get_venues", &venues, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get venues: %w", err)
	}

	return venues, nil
}

// GetWeather returns the single-row weather context fact
func (r *radarRepository) GetWeather(ctx context.Context) (*models.WeatherSnapshot, error) {
	query := `SELECT condition_main, description, temperature, captured_at FROM context_weather LIMIT 1`

	var snapshot models.WeatherSnapshot
	err := r.db.GetContext(ctx, "get_weather", &snapshot, query)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "context_weather", ID: "current"}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get weather context: %w", err)
	}

	return &snapshot, nil
}

// HealthCheck performs a repository health check
func (r *radarRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
