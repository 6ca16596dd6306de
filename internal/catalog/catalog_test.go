package catalog

import (
	"testing"

	"social-radar/internal/models"
)

func TestResolveLabel(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		wantLen  int
		contains string
	}{
		{name: "known label", label: "cafe", wantLen: 5, contains: "cafe"},
		{name: "local language label", label: "taman", wantLen: 3, contains: "park"},
		{name: "mixed case", label: "Masjid", wantLen: 2, contains: "place_of_worship"},
		{name: "surrounding whitespace", label: "  gym  ", wantLen: 3, contains: "fitness_centre"},
		{name: "multi word label", label: "coffee shop", wantLen: 2, contains: "coffee_shop"},
		{name: "unknown label", label: "spaceport", wantLen: 0},
		{name: "empty label", label: "", wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			categories := ResolveLabel(tt.label)

			if len(categories) != tt.wantLen {
				t.Fatalf("ResolveLabel(%q) returned %d categories, want %d", tt.label, len(categories), tt.wantLen)
			}

			if tt.contains == "" {
				return
			}
			found := false
			for _, c := range categories {
				if c == tt.contains {
					found = true
				}
			}
			if !found {
				t.Errorf("ResolveLabel(%q) = %v, missing %q", tt.label, categories, tt.contains)
			}
		})
	}
}

func TestResolveLabel_CopyIsolation(t *testing.T) {
	first := ResolveLabel("cafe")
	first[0] = "mutated"

	second := ResolveLabel("cafe")
	if second[0] == "mutated" {
		t.Error("mutating a resolved slice leaked into the dictionary")
	}
}

func TestCategoriesFor(t *testing.T) {
	for _, archetype := range models.Roster() {
		categories := CategoriesFor(archetype)
		if len(categories) == 0 {
			t.Errorf("CategoriesFor(%q) is empty; every roster archetype needs categories", archetype)
		}
	}

	if got := CategoriesFor(models.Archetype("Imaginary")); got != nil {
		t.Errorf("CategoriesFor(Imaginary) = %v, want nil", got)
	}
}

func TestCategoriesFor_SportyIncludesGym(t *testing.T) {
	categories := CategoriesFor(models.ArchetypeSporty)

	found := false
	for _, c := range categories {
		if c == "gym" {
			found = true
		}
	}
	if !found {
		t.Errorf("CategoriesFor(Sporty) = %v, missing gym", categories)
	}
}

func TestIndoorSafe(t *testing.T) {
	tests := []struct {
		category string
		want     bool
	}{
		{"cafe", true},
		{"mall", true},
		{"library", true},
		{"gym", true},
		{"park", false},
		{"pitch", false},
		{"stadium", false},
		{"garden", false},
		{"other", false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			if got := IndoorSafe(tt.category); got != tt.want {
				t.Errorf("IndoorSafe(%q) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}
