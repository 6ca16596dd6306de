package services

import (
	"context"
	"sort"

	"social-radar/internal/models"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// CatalogService aggregates raw place elements into the deduplicated,
// score-ranked venue catalog
type CatalogService struct {
	// venueCap bounds the catalog to the top venues by score so the
	// downstream join and output size stay bounded
	venueCap int
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewCatalogService creates a new catalog service
func NewCatalogService(venueCap int, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *CatalogService {
	return &CatalogService{
		venueCap: venueCap,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// BuildCatalog converts raw place elements into venues, counts identical
// (category, name, lat, lon) occurrences as the popularity score, and keeps
// the top venues by score. Elements without a name are discarded silently as
// a quality filter; elements without coordinates are counted and dropped.
func (s *CatalogService) BuildCatalog(ctx context.Context, raw []models.RawPlace) []models.Venue {
	counts := make(map[models.VenueKey]int)
	missingName := 0
	missingCoords := 0

	for i := range raw {
		venue, err := raw[i].ToVenue()
		if err != nil {
			if vErr, ok := err.(*models.ValidationError); ok && vErr.Field == "name" {
				missingName++
				continue
			}
			missingCoords++
			s.metrics.RecordDataQualityWarning("missing_coordinates")
			continue
		}
		counts[venue.Key()]++
	}

	venues := make([]models.Venue, 0, len(counts))
	for key, score := range counts {
		venues = append(venues, models.Venue{
			Name:     key.Name,
			Category: key.Category,
			Lat:      key.Lat,
			Lon:      key.Lon,
			Score:    score,
		})
	}

	// Deterministic order: score descending, then the identity fields
	sort.SliceStable(venues, func(i, j int) bool {
		if venues[i].Score != venues[j].Score {
			return venues[i].Score > venues[j].Score
		}
		if venues[i].Category != venues[j].Category {
			return venues[i].Category < venues[j].Category
		}
		if venues[i].Name != venues[j].Name {
			return venues[i].Name < venues[j].Name
		}
		if venues[i].Lat != venues[j].Lat {
			return venues[i].Lat < venues[j].Lat
		}
		return venues[i].Lon < venues[j].Lon
	})

	if len(venues) > s.venueCap {
		venues = venues[:s.venueCap]
	}

	s.logger.Info(ctx, "[CATALOG_BUILT] Venue catalog built", logging.Fields{
		"raw_elements":   len(raw),
		"unique_venues":  len(counts),
		"kept_venues":    len(venues),
		"missing_name":   missingName,
		"missing_coords": missingCoords,
		"venue_cap":      s.venueCap,
	})

	return venues
}
