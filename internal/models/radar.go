package models

import (
	"fmt"
	"time"
)

// Archetype is one of the fixed personality categories used to personalize
// venue recommendations
type Archetype string

const (
	ArchetypeActive          Archetype = "Active"
	ArchetypeCreative        Archetype = "Creative"
	ArchetypeHealing         Archetype = "Healing"
	ArchetypeIntellectual    Archetype = "Intellectual"
	ArchetypeReligius        Archetype = "Religius"
	ArchetypeSocialButterfly Archetype = "Social Butterfly"
	ArchetypeSporty          Archetype = "Sporty"
	ArchetypeTechie          Archetype = "Techie"
)

// Roster returns the full closed set of archetypes in stable order. Every
// member must appear in the affinity table, even when the survey extract has
// no rows for it.
func Roster() []Archetype {
	return []Archetype{
		ArchetypeActive,
		ArchetypeCreative,
		ArchetypeHealing,
		ArchetypeIntellectual,
		ArchetypeReligius,
		ArchetypeSocialButterfly,
		ArchetypeSporty,
		ArchetypeTechie,
	}
}

// KnownArchetype reports whether a is a member of the fixed roster
func KnownArchetype(a Archetype) bool {
	for _, r := range Roster() {
		if r == a {
			return true
		}
	}
	return false
}

// SurveyRecord is one melted survey row: one respondent crossed with one
// archetype column that had a non-empty trait value
type SurveyRecord struct {
	Timestamp        string    `json:"timestamp"`
	Gender           string    `json:"gender"`
	Archetype        Archetype `json:"archetype"`
	TraitDescription string    `json:"trait_description"`
	PreferredHabitat string    `json:"preferred_habitat"`
}

// ArchetypeAffinity is one row of the affinity table. Cold marks archetypes
// whose count was synthesized because the survey had no rows for them.
type ArchetypeAffinity struct {
	Archetype Archetype `json:"archetype" db:"archetype"`
	Total     int       `json:"total" db:"total"`
	Cold      bool      `json:"is_cold" db:"is_cold"`
}

// Venue is a deduplicated physical place with a popularity score
type Venue struct {
	Name     string  `json:"name" db:"name"`
	Category string  `json:"category" db:"category"`
	Lat      float64 `json:"lat" db:"lat"`
	Lon      float64 `json:"lon" db:"lon"`
	Score    int     `json:"score" db:"score"`
}

// Key returns the venue uniqueness key
func (v *Venue) Key() VenueKey {
	return VenueKey{Category: v.Category, Name: v.Name, Lat: v.Lat, Lon: v.Lon}
}

// VenueKey identifies a venue: two raw occurrences with the same key are the
// same place and accumulate score
type VenueKey struct {
	Category string
	Name     string
	Lat      float64
	Lon      float64
}

// Coordinates is a lat/lon pair as it appears in nested center objects
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RawPlace is one element of the semi-structured place extract
type RawPlace struct {
	Tags   map[string]string `json:"tags"`
	Lat    *float64          `json:"lat,omitempty"`
	Lon    *float64          `json:"lon,omitempty"`
	Center *Coordinates      `json:"center,omitempty"`
}

// categoryTagPriority is the order in which tag fields are consulted for the
// technical category
var categoryTagPriority = []string{"amenity", "leisure", "shop", "tourism", "building"}

// ToVenue converts a raw place element into a scoreless venue. Elements
// without a display name or without usable coordinates are a quality filter,
// reported as a ValidationError so the caller can count and drop them.
func (p *RawPlace) ToVenue() (*Venue, error) {
	name := p.Tags["name"]
	if name == "" {
		return nil, &ValidationError{
			Field:   "name",
			Message: "place element has no display name",
		}
	}

	category := "other"
	for _, tag := range categoryTagPriority {
		if v := p.Tags[tag]; v != "" {
			category = v
			break
		}
	}

	lat, lon, ok := p.coordinates()
	if !ok {
		return nil, &ValidationError{
			Field:   "coordinates",
			Value:   name,
			Message: "place element has neither direct nor center coordinates",
		}
	}

	return &Venue{
		Name:     name,
		Category: category,
		Lat:      lat,
		Lon:      lon,
	}, nil
}

// coordinates resolves direct lat/lon first, then the nested center object
func (p *RawPlace) coordinates() (float64, float64, bool) {
	if p.Lat != nil && p.Lon != nil {
		return *p.Lat, *p.Lon, true
	}
	if p.Center != nil {
		return p.Center.Lat, p.Center.Lon, true
	}
	return 0, 0, false
}

// DayRule maps a day category and an hour interval to an ordered list of
// human-readable place-type labels
type DayRule struct {
	DayCategory    string   `json:"day_category"`
	StartHour      int      `json:"start_hour"`
	EndHour        int      `json:"end_hour"`
	PriorityLabels []string `json:"priority_labels"`
}

// Validate checks the half-open hour interval [start, end)
func (r *DayRule) Validate() error {
	if r.StartHour < 0 || r.StartHour > 23 {
		return &ValidationError{
			Field:   "start_hour",
			Value:   fmt.Sprintf("%d", r.StartHour),
			Message: "start hour out of range",
		}
	}
	if r.EndHour < 1 || r.EndHour > 24 {
		return &ValidationError{
			Field:   "end_hour",
			Value:   fmt.Sprintf("%d", r.EndHour),
			Message: "end hour out of range",
		}
	}
	if r.StartHour >= r.EndHour {
		return &ValidationError{
			Field:   "start_hour",
			Value:   fmt.Sprintf("%d", r.StartHour),
			Message: "start hour must be before end hour",
		}
	}
	return nil
}

// Contains reports whether the given hour falls inside the rule interval
func (r *DayRule) Contains(hour int) bool {
	return hour >= r.StartHour && hour < r.EndHour
}

// Holiday is a calendar date that overrides the weekday for rule lookup
type Holiday struct {
	Date time.Time `json:"date" db:"holiday_date"`
	Name string    `json:"name" db:"name"`
}

// DateKey formats the holiday date for calendar matching
func (h *Holiday) DateKey() string {
	return h.Date.Format("2006-01-02")
}

// WeatherSnapshot is the single-row weather fact consumed by the engine.
// Overwritten wholesale on each refresh; no history is retained.
type WeatherSnapshot struct {
	ConditionMain string    `json:"condition_main" db:"condition_main"`
	Description   string    `json:"description" db:"description"`
	Temperature   float64   `json:"temperature" db:"temperature"`
	CapturedAt    time.Time `json:"captured_at" db:"captured_at"`
}

// precipitationConditions are the provider condition groups that trigger the
// outdoor caution override
var precipitationConditions = map[string]bool{
	"Rain":         true,
	"Drizzle":      true,
	"Thunderstorm": true,
}

// IsPrecipitation reports whether the snapshot indicates rain-like conditions
func (w *WeatherSnapshot) IsPrecipitation() bool {
	return precipitationConditions[w.ConditionMain]
}

// Provenance values distinguish personalized rows from generic fallback rows
const (
	ProvenancePersonalized = "personalized"
	ProvenanceFallback     = "fallback"
)

// Recommendation is one ranked output row, fully recomputed each run
type Recommendation struct {
	Archetype       Archetype `json:"archetype" db:"archetype"`
	VenueName       string    `json:"venue_name" db:"venue_name"`
	Lat             float64   `json:"lat" db:"lat"`
	Lon             float64   `json:"lon" db:"lon"`
	Category        string    `json:"category" db:"category"`
	Score           int       `json:"score" db:"score"`
	StrategyMessage string    `json:"strategy_message" db:"strategy_message"`
	HighlightColor  string    `json:"highlight_color" db:"highlight_color"`
	Rank            int       `json:"rank" db:"rank"`
	Provenance      string    `json:"provenance" db:"provenance"`
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
