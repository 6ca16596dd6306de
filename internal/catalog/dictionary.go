// Package catalog holds the static mapping tables of the recommendation
// pipeline: the dictionary from human-readable place labels to technical
// venue categories, and the business-defined archetype category map.
package catalog

import "strings"

// labelCategories maps normalized human labels, as they appear in the time
// rule extract, to sets of technical venue categories. The labels are
// language-local; the categories follow the tag vocabulary of the place
// extract.
var labelCategories = map[string][]string{
	"cafe":            {"cafe", "coffee_shop", "restaurant", "fast_food", "food_court"},
	"kafe":            {"cafe", "coffee_shop", "restaurant", "fast_food", "food_court"},
	"coffee shop":     {"cafe", "coffee_shop"},
	"restoran":        {"restaurant", "food_court", "fast_food"},
	"restaurant":      {"restaurant", "food_court", "fast_food"},
	"warung":          {"restaurant", "fast_food", "food_court", "marketplace"},
	"taman":           {"park", "garden", "playground"},
	"park":            {"park", "garden", "playground"},
	"mall":            {"mall", "department_store", "supermarket", "marketplace"},
	"pasar":           {"marketplace", "supermarket"},
	"market":          {"marketplace", "supermarket"},
	"masjid":          {"place_of_worship", "mosque"},
	"mosque":          {"place_of_worship", "mosque"},
	"gereja":          {"place_of_worship", "church"},
	"church":          {"place_of_worship", "church"},
	"gym":             {"gym", "fitness_centre", "sports_centre"},
	"fitness":         {"gym", "fitness_centre", "sports_centre"},
	"stadion":         {"stadium", "pitch", "sports_centre", "track"},
	"stadium":         {"stadium", "pitch", "sports_centre", "track"},
	"lapangan":        {"pitch", "stadium", "track", "park"},
	"perpustakaan":    {"library", "books"},
	"library":         {"library", "books"},
	"toko buku":       {"books", "library"},
	"museum":          {"museum", "gallery", "attraction"},
	"galeri":          {"gallery", "museum", "arts_centre"},
	"gallery":         {"gallery", "museum", "arts_centre"},
	"bioskop":         {"cinema", "theatre"},
	"cinema":          {"cinema", "theatre"},
	"kampus":          {"university", "college", "school"},
	"campus":          {"university", "college", "school"},
	"coworking":       {"coworking_space", "office", "internet_cafe"},
	"warnet":          {"internet_cafe", "computer"},
	"toko elektronik": {"electronics", "computer"},
	"hotel":           {"hotel", "guest_house"},
	"spa":             {"spa", "beauty"},
}

// ResolveLabel maps a free-text human place label to its technical venue
// categories. Matching is case-insensitive and trims surrounding space.
// Unrecognized labels resolve to an empty slice; callers treat that as a
// data-quality warning, not an error.
func ResolveLabel(label string) []string {
	normalized := strings.ToLower(strings.TrimSpace(label))
	if normalized == "" {
		return nil
	}

	categories, ok := labelCategories[normalized]
	if !ok {
		return nil
	}

	// Copy so callers cannot mutate the table
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// KnownLabels returns every label the dictionary recognizes, for diagnostics
func KnownLabels() []string {
	labels := make([]string, 0, len(labelCategories))
	for label := range labelCategories {
		labels = append(labels, label)
	}
	return labels
}
