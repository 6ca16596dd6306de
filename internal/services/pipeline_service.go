package services

import (
	"context"
	"fmt"
	"time"

	"social-radar/internal/config"
	"social-radar/internal/engine"
	"social-radar/internal/models"
	"social-radar/internal/repository"
	"social-radar/internal/rules"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// PipelineService runs the recommendation pipeline as one sequential unit of
// work: load raw extracts, build the affinity table and venue catalog,
// resolve the time context, refresh the weather, compute recommendations,
// and publish the gold tables. No state survives between runs except the
// externally persisted output store.
type PipelineService struct {
	cfg     *config.Config
	extract *ExtractService
	catalog *CatalogService
	weather *WeatherService
	repo    repository.RadarRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(
	cfg *config.Config,
	extractService *ExtractService,
	catalogService *CatalogService,
	weatherService *WeatherService,
	repo repository.RadarRepository,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *PipelineService {
	return &PipelineService{
		cfg:     cfg,
		extract: extractService,
		catalog: catalogService,
		weather: weatherService,
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Run executes one pipeline cycle. Upstream problems degrade per component;
// only a failure to write the output store is returned as an error.
func (s *PipelineService) Run(ctx context.Context) error {
	start := time.Now()
	now := start.In(s.cfg.Location())
	runID := fmt.Sprintf("run-%s", start.UTC().Format("20060102T150405"))
	ctx = logging.WithRunID(ctx, runID)

	s.logger.Info(ctx, "[PIPELINE_START] Starting pipeline run", logging.Fields{
		"local_time": now.Format(time.RFC3339),
		"stage":      "INITIALIZATION",
	})

	err := s.run(ctx, now)

	duration := time.Since(start)
	s.metrics.PipelineRunDuration.Observe(duration.Seconds())

	if err != nil {
		s.metrics.PipelineRunsTotal.WithLabelValues("failure").Inc()
		s.logger.Error(ctx, "[PIPELINE_FAILED] Pipeline run failed", logging.Fields{
			"duration_seconds": duration.Seconds(),
		}, err)
		return err
	}

	s.metrics.PipelineRunsTotal.WithLabelValues("success").Inc()
	s.metrics.LastRunTimestamp.Set(float64(time.Now().Unix()))

	s.logger.Info(ctx, "[PIPELINE_COMPLETE] Pipeline run completed", logging.Fields{
		"duration_seconds": duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return nil
}

func (s *PipelineService) run(ctx context.Context, now time.Time) error {
	// Survey extract. A missing extract empties the affinity table and routes
	// every archetype to the fallback path; it does not stop the run.
	records, err := s.extract.LoadSurvey(ctx, s.cfg.Pipeline.SurveyPath)
	if err != nil {
		s.metrics.RecordDataQualityWarning("survey_unavailable")
		s.logger.Warn(ctx, "[PIPELINE_NO_SURVEY] Survey extract unavailable, all archetypes go cold", logging.Fields{
			"path":  s.cfg.Pipeline.SurveyPath,
			"error": err.Error(),
		})
		records = nil
	}
	affinity := models.BuildAffinity(records)

	// Rule extract. Without rules the resolver denies all categories and the
	// fallback path serves everyone.
	dayRules, err := s.extract.LoadDayRules(ctx, s.cfg.Pipeline.RulesPath)
	if err != nil {
		s.metrics.RecordDataQualityWarning("rules_unavailable")
		s.logger.Warn(ctx, "[PIPELINE_NO_RULES] Rule extract unavailable, denying all categories", logging.Fields{
			"path":  s.cfg.Pipeline.RulesPath,
			"error": err.Error(),
		})
		dayRules = nil
	}

	// Holiday calendar comes from the store; an unreadable table just means
	// no weekday overrides this run.
	holidays, err := s.repo.ListHolidays(ctx)
	if err != nil {
		s.logger.Warn(ctx, "[PIPELINE_NO_HOLIDAYS] Holiday calendar unavailable, no weekday overrides", logging.Fields{
			"error": err.Error(),
		})
		holidays = nil
	}

	resolver := rules.NewResolver(dayRules, s.logger, s.metrics)
	timeContext := resolver.Resolve(ctx, now, holidays)

	snapshot := s.weather.Refresh(ctx, now)

	// Place extract. If it cannot be read at all, the previously published
	// catalog and recommendations are left standing rather than wiped; the
	// affinity summary and weather context still refresh.
	raw, placesErr := s.extract.LoadPlaces(ctx, s.cfg.Pipeline.PlacesPath)

	if err := s.repo.PublishAffinity(ctx, affinity); err != nil {
		return fmt.Errorf("failed to publish affinity table: %w", err)
	}

	if err := s.repo.PublishWeather(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to publish weather context: %w", err)
	}

	if placesErr != nil {
		s.metrics.RecordDataQualityWarning("places_unavailable")
		s.logger.Warn(ctx, "[PIPELINE_NO_PLACES] Place extract unavailable, keeping previous catalog and recommendations", logging.Fields{
			"path":  s.cfg.Pipeline.PlacesPath,
			"error": placesErr.Error(),
		})
		return nil
	}

	venues := s.catalog.BuildCatalog(ctx, raw)

	recommendationEngine := engine.New(engine.Config{
		FallbackSize: s.cfg.Pipeline.FallbackSize,
		RankLimit:    s.cfg.Pipeline.RankLimit,
	}, s.logger, s.metrics)

	recommendations := recommendationEngine.Recommend(ctx, engine.Inputs{
		Affinity: affinity,
		Catalog:  venues,
		Time:     timeContext,
		Weather:  snapshot,
		Seed:     now.UnixNano(),
	})

	if err := s.repo.PublishVenues(ctx, venues); err != nil {
		return fmt.Errorf("failed to publish venue catalog: %w", err)
	}

	if err := s.repo.PublishRecommendations(ctx, recommendations); err != nil {
		return fmt.Errorf("failed to publish recommendations: %w", err)
	}

	return nil
}
