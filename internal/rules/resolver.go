// Package rules resolves the current day category and the set of venue
// categories allowed right now from the day rule table and the holiday
// calendar.
package rules

import (
	"context"
	"sort"
	"time"

	"social-radar/internal/catalog"
	"social-radar/internal/models"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

// HolidayDayCategory is the day category substituted when the current date is
// a holiday. Holidays behave like the designated weekend day for rule lookup.
const HolidayDayCategory = "Sunday"

// TimeContext is the result of a single-shot resolution. It carries no state
// across pipeline runs.
type TimeContext struct {
	DayCategory string
	// HolidayName is a display-only side fact; it never participates in
	// filtering
	HolidayName       string
	AllowedCategories map[string]bool
	// MatchedRule is nil when no interval covered the current hour, which
	// means deny-all
	MatchedRule *models.DayRule
}

// Allowed reports whether a venue category passes the time gate
func (c *TimeContext) Allowed(category string) bool {
	return c.AllowedCategories[category]
}

// AllowedList returns the allowed categories in sorted order, for logging
func (c *TimeContext) AllowedList() []string {
	out := make([]string, 0, len(c.AllowedCategories))
	for cat := range c.AllowedCategories {
		out = append(out, cat)
	}
	sort.Strings(out)
	return out
}

// Resolver evaluates day rules against a timestamp and holiday calendar
type Resolver struct {
	rules   []models.DayRule
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewResolver creates a resolver over a validated rule set
func NewResolver(dayRules []models.DayRule, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *Resolver {
	return &Resolver{
		rules:   dayRules,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Resolve computes the current day category and allowed venue categories.
//
// The day category is the real weekday name unless the date appears in the
// holiday calendar, in which case the weekend substitute applies. The first
// rule whose day category matches and whose hour interval contains the
// current hour wins. No matching rule means deny-all: the allowed set is
// empty and every archetype will be served by the fallback path.
func (r *Resolver) Resolve(ctx context.Context, now time.Time, holidays []models.Holiday) TimeContext {
	dayCategory := now.Weekday().String()
	holidayName := ""

	dateKey := now.Format("2006-01-02")
	for _, h := range holidays {
		if h.DateKey() == dateKey {
			dayCategory = HolidayDayCategory
			holidayName = h.Name
			break
		}
	}

	result := TimeContext{
		DayCategory:       dayCategory,
		HolidayName:       holidayName,
		AllowedCategories: make(map[string]bool),
	}

	rule := r.matchRule(dayCategory, now.Hour())
	if rule == nil {
		r.logger.Warn(ctx, "[RULES_NO_MATCH] No rule covers the current hour, denying all categories", logging.Fields{
			"day_category": dayCategory,
			"hour":         now.Hour(),
		})
		return result
	}

	result.MatchedRule = rule

	for _, label := range rule.PriorityLabels {
		categories := catalog.ResolveLabel(label)
		if len(categories) == 0 {
			r.metrics.RecordDataQualityWarning("unmapped_label")
			r.logger.Warn(ctx, "[RULES_UNMAPPED_LABEL] Dropping label unknown to the category dictionary", logging.Fields{
				"label":        label,
				"day_category": dayCategory,
			})
			continue
		}
		for _, cat := range categories {
			result.AllowedCategories[cat] = true
		}
	}

	r.logger.Debug(ctx, "[RULES_RESOLVED] Time context resolved", logging.Fields{
		"day_category":   dayCategory,
		"holiday":        holidayName,
		"start_hour":     rule.StartHour,
		"end_hour":       rule.EndHour,
		"category_count": len(result.AllowedCategories),
	})

	return result
}

// matchRule returns the first rule matching the day category and hour
func (r *Resolver) matchRule(dayCategory string, hour int) *models.DayRule {
	for i := range r.rules {
		rule := &r.rules[i]
		if rule.DayCategory == dayCategory && rule.Contains(hour) {
			return rule
		}
	}
	return nil
}
