package catalog

import "social-radar/internal/models"

// archetypeCategories is the business-defined map from archetype to the
// venue categories considered a fit for it. This is distinct from the label
// dictionary: the dictionary translates rule-table labels, this table encodes
// which kinds of places suit which archetype.
var archetypeCategories = map[models.Archetype][]string{
	models.ArchetypeActive: {
		"park", "playground", "pitch", "track", "marketplace", "mall",
	},
	models.ArchetypeCreative: {
		"gallery", "museum", "arts_centre", "attraction", "cinema", "theatre", "cafe",
	},
	models.ArchetypeHealing: {
		"park", "garden", "spa", "place_of_worship", "cafe",
	},
	models.ArchetypeIntellectual: {
		"library", "books", "university", "college", "museum", "cafe",
	},
	models.ArchetypeReligius: {
		"place_of_worship", "mosque", "church",
	},
	models.ArchetypeSocialButterfly: {
		"cafe", "coffee_shop", "restaurant", "food_court", "fast_food", "mall", "marketplace",
	},
	models.ArchetypeSporty: {
		"gym", "fitness_centre", "sports_centre", "stadium", "pitch", "park",
	},
	models.ArchetypeTechie: {
		"internet_cafe", "coworking_space", "electronics", "computer", "cafe", "library",
	},
}

// CategoriesFor returns the allowed venue categories for an archetype.
// Archetypes outside the fixed roster get an empty slice.
func CategoriesFor(archetype models.Archetype) []string {
	categories, ok := archetypeCategories[archetype]
	if !ok {
		return nil
	}

	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// indoorSafeCategories are the venue categories still comfortable during
// precipitation. Candidates outside this set get the cautionary strategy
// message when rain-like conditions hold.
var indoorSafeCategories = map[string]bool{
	"cafe":             true,
	"coffee_shop":      true,
	"restaurant":       true,
	"fast_food":        true,
	"food_court":       true,
	"mall":             true,
	"department_store": true,
	"supermarket":      true,
	"marketplace":      true,
	"library":          true,
	"books":            true,
	"museum":           true,
	"gallery":          true,
	"arts_centre":      true,
	"cinema":           true,
	"theatre":          true,
	"gym":              true,
	"fitness_centre":   true,
	"sports_centre":    true,
	"place_of_worship": true,
	"mosque":           true,
	"church":           true,
	"internet_cafe":    true,
	"coworking_space":  true,
	"computer":         true,
	"electronics":      true,
	"university":       true,
	"college":          true,
	"hotel":            true,
	"guest_house":      true,
	"spa":              true,
	"beauty":           true,
	"office":           true,
}

// IndoorSafe reports whether a venue category is sheltered from rain
func IndoorSafe(category string) bool {
	return indoorSafeCategories[category]
}
