// Package engine computes the ranked per-archetype recommendation table by
// joining the affinity table, the venue catalog, the archetype category map,
// the resolved time context, and the current weather snapshot.
package engine

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"social-radar/internal/catalog"
	"social-radar/internal/models"
	"social-radar/internal/rules"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// Highlight colors baked into the output rows so the presentation layer never
// recomputes weather decisions
const (
	ColorFavorable = "#2ecc71"
	ColorWarning   = "#e74c3c"
)

// Strategy messages attached per candidate row
const (
	MessageFavorable = "Weather looks friendly right now. This spot is a solid pick for today."
	MessageCaution   = "Rain is likely around this area. Prefer an indoor plan or bring an umbrella."
)

// Config holds the engine policy knobs
type Config struct {
	// FallbackSize is how many top venues the generic fallback path serves
	FallbackSize int
	// RankLimit caps the ranks emitted per archetype
	RankLimit int
}

// Inputs bundles everything one engine pass consumes. All fields are
// run-scoped values; the engine holds no state between runs.
type Inputs struct {
	Affinity []models.ArchetypeAffinity
	Catalog  []models.Venue
	Time     rules.TimeContext
	Weather  models.WeatherSnapshot
	// Seed drives the random tiebreak among equal scores. A fixed seed with
	// fixed inputs reproduces the exact same table.
	Seed int64
}

// Engine produces recommendation rows
type Engine struct {
	cfg     Config
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// New creates a recommendation engine
func New(cfg Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Engine {
	return &Engine{
		cfg:     cfg,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Recommend computes the full recommendation table for this run.
//
// Per archetype, the personalized path intersects the venue catalog with the
// archetype's allowed categories and the time-resolved allowed categories.
// Cold archetypes, and archetypes whose personalized path comes up empty, are
// served the global top venues instead, tagged as fallback so the consumer
// can disclose the rows are generic. An empty catalog produces no output at
// all; that is a valid result, not a failure.
func (e *Engine) Recommend(ctx context.Context, in Inputs) []models.Recommendation {
	start := time.Now()
	defer func() {
		e.metrics.EngineDuration.Observe(time.Since(start).Seconds())
	}()

	if len(in.Catalog) == 0 {
		e.logger.Warn(ctx, "[ENGINE_EMPTY_CATALOG] Venue catalog is empty, nothing to recommend", logging.Fields{})
		return nil
	}

	affinity := in.Affinity
	if len(affinity) == 0 {
		// No personalization data at all: every archetype runs the fallback
		affinity = make([]models.ArchetypeAffinity, 0, len(models.Roster()))
		for _, archetype := range models.Roster() {
			affinity = append(affinity, models.ArchetypeAffinity{
				Archetype: archetype,
				Total:     1,
				Cold:      true,
			})
		}
	}

	rng := rand.New(rand.NewSource(in.Seed))
	fallbackPool := e.fallbackPool(in.Catalog)

	var rows []models.Recommendation
	personalizedRows := 0
	fallbackRows := 0
	fallbackArchetypes := 0

	for _, aff := range affinity {
		candidates, provenance := e.candidatesFor(aff, in)
		if provenance == models.ProvenanceFallback {
			candidates = fallbackPool
			fallbackArchetypes++
		}

		ranked := e.rank(candidates, rng)

		for i, venue := range ranked {
			message, color := e.weatherOverride(&in.Weather, venue.Category)
			rows = append(rows, models.Recommendation{
				Archetype:       aff.Archetype,
				VenueName:       venue.Name,
				Lat:             venue.Lat,
				Lon:             venue.Lon,
				Category:        venue.Category,
				Score:           venue.Score,
				StrategyMessage: message,
				HighlightColor:  color,
				Rank:            i + 1,
				Provenance:      provenance,
			})
		}

		if provenance == models.ProvenanceFallback {
			fallbackRows += len(ranked)
		} else {
			personalizedRows += len(ranked)
		}
	}

	e.metrics.RecommendationRows.WithLabelValues(models.ProvenancePersonalized).Set(float64(personalizedRows))
	e.metrics.RecommendationRows.WithLabelValues(models.ProvenanceFallback).Set(float64(fallbackRows))
	e.metrics.FallbackArchetypes.Set(float64(fallbackArchetypes))

	e.logger.Info(ctx, "[ENGINE_COMPLETE] Recommendation table computed", logging.Fields{
		"total_rows":          len(rows),
		"personalized_rows":   personalizedRows,
		"fallback_rows":       fallbackRows,
		"fallback_archetypes": fallbackArchetypes,
		"day_category":        in.Time.DayCategory,
		"weather":             in.Weather.ConditionMain,
	})

	return rows
}

// candidatesFor runs the personalized path and decides the provenance. Cold
// archetypes and empty personalized results route to fallback.
func (e *Engine) candidatesFor(aff models.ArchetypeAffinity, in Inputs) ([]models.Venue, string) {
	if aff.Cold {
		return nil, models.ProvenanceFallback
	}

	allowed := make(map[string]bool)
	for _, cat := range catalog.CategoriesFor(aff.Archetype) {
		allowed[cat] = true
	}

	var candidates []models.Venue
	for _, venue := range in.Catalog {
		if !allowed[venue.Category] {
			continue
		}
		// Deny-all time semantics: an empty allowed set admits nothing
		if !in.Time.Allowed(venue.Category) {
			continue
		}
		candidates = append(candidates, venue)
	}

	if len(candidates) == 0 {
		return nil, models.ProvenanceFallback
	}

	return candidates, models.ProvenancePersonalized
}

// fallbackPool returns the global top venues by score regardless of category
func (e *Engine) fallbackPool(venues []models.Venue) []models.Venue {
	pool := make([]models.Venue, len(venues))
	copy(pool, venues)

	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Score != pool[j].Score {
			return pool[i].Score > pool[j].Score
		}
		if pool[i].Category != pool[j].Category {
			return pool[i].Category < pool[j].Category
		}
		return pool[i].Name < pool[j].Name
	})

	if len(pool) > e.cfg.FallbackSize {
		pool = pool[:e.cfg.FallbackSize]
	}
	return pool
}

// rank orders candidates by descending score with a random tiebreak and keeps
// the configured number of ranks
func (e *Engine) rank(candidates []models.Venue, rng *rand.Rand) []models.Venue {
	type scored struct {
		venue models.Venue
		key   float64
	}

	entries := make([]scored, 0, len(candidates))
	for _, venue := range candidates {
		entries = append(entries, scored{venue: venue, key: rng.Float64()})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].venue.Score != entries[j].venue.Score {
			return entries[i].venue.Score > entries[j].venue.Score
		}
		return entries[i].key < entries[j].key
	})

	limit := e.cfg.RankLimit
	if len(entries) < limit {
		limit = len(entries)
	}

	ranked := make([]models.Venue, 0, limit)
	for _, entry := range entries[:limit] {
		ranked = append(ranked, entry.venue)
	}
	return ranked
}

// weatherOverride bakes the weather decision into the row: precipitation
// outside an indoor-safe category gets the caution message and warning color
func (e *Engine) weatherOverride(weather *models.WeatherSnapshot, category string) (string, string) {
	if weather.IsPrecipitation() && !catalog.IndoorSafe(category) {
		return MessageCaution, ColorWarning
	}
	return MessageFavorable, ColorFavorable
}
