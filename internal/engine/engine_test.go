package engine

import (
	"context"
	"io"
	"reflect"
	"testing"

	"social-radar/internal/models"
	"social-radar/internal/rules"
	"social-radar/pkg/logging"
	"social-radar/pkg/metrics"
)

var testMetrics = metrics.NewCollector("radar_engine_test")

func testEngine() *Engine {
	logger := logging.NewStructuredLogger("engine-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	return New(Config{FallbackSize: 20, RankLimit: 10}, logger, testMetrics)
}

func allowAll(categories ...string) rules.TimeContext {
	allowed := make(map[string]bool)
	for _, c := range categories {
		allowed[c] = true
	}
	return rules.TimeContext{DayCategory: "Monday", AllowedCategories: allowed}
}

func denyAll() rules.TimeContext {
	return rules.TimeContext{DayCategory: "Monday", AllowedCategories: map[string]bool{}}
}

func clearWeather() models.WeatherSnapshot {
	return models.WeatherSnapshot{ConditionMain: "Clear", Description: "clear sky", Temperature: 30}
}

func rainWeather() models.WeatherSnapshot {
	return models.WeatherSnapshot{ConditionMain: "Rain", Description: "light rain", Temperature: 26}
}

func testCatalog() []models.Venue {
	return []models.Venue{
		{Name: "City Gym", Category: "gym", Lat: -3.31, Lon: 114.59, Score: 12},
		{Name: "River Park", Category: "park", Lat: -3.32, Lon: 114.60, Score: 9},
		{Name: "Corner Cafe", Category: "cafe", Lat: -3.33, Lon: 114.58, Score: 8},
		{Name: "Grand Mosque", Category: "place_of_worship", Lat: -3.30, Lon: 114.57, Score: 7},
		{Name: "Town Library", Category: "library", Lat: -3.34, Lon: 114.61, Score: 5},
		{Name: "Pixel Warnet", Category: "internet_cafe", Lat: -3.35, Lon: 114.62, Score: 3},
	}
}

func warmAffinity() []models.ArchetypeAffinity {
	return []models.ArchetypeAffinity{
		{Archetype: models.ArchetypeSporty, Total: 10},
		{Archetype: models.ArchetypeTechie, Total: 4},
	}
}

func rowsFor(rows []models.Recommendation, archetype models.Archetype) []models.Recommendation {
	var out []models.Recommendation
	for _, row := range rows {
		if row.Archetype == archetype {
			out = append(out, row)
		}
	}
	return out
}

func TestRecommend_PersonalizedPath(t *testing.T) {
	eng := testEngine()

	rows := eng.Recommend(context.Background(), Inputs{
		Affinity: warmAffinity(),
		Catalog:  testCatalog(),
		Time:     allowAll("gym", "park", "internet_cafe", "library"),
		Weather:  clearWeather(),
		Seed:     42,
	})

	sporty := rowsFor(rows, models.ArchetypeSporty)
	if len(sporty) == 0 {
		t.Fatal("no rows for Sporty")
	}

	// Gym and park both fit Sporty and both pass the time gate; the gym has
	// the higher score so it takes rank 1
	if sporty[0].VenueName != "City Gym" || sporty[0].Rank != 1 {
		t.Errorf("Sporty rank 1 = %v (%d), want City Gym (1)", sporty[0].VenueName, sporty[0].Rank)
	}
	if sporty[0].Provenance != models.ProvenancePersonalized {
		t.Errorf("Sporty provenance = %v, want %v", sporty[0].Provenance, models.ProvenancePersonalized)
	}
	if len(sporty) != 2 {
		t.Errorf("Sporty rows = %d, want 2 (gym and park)", len(sporty))
	}

	techie := rowsFor(rows, models.ArchetypeTechie)
	if len(techie) != 2 {
		t.Fatalf("Techie rows = %d, want 2 (warnet and library)", len(techie))
	}
	if techie[0].VenueName != "Town Library" {
		t.Errorf("Techie rank 1 = %v, want Town Library by score", techie[0].VenueName)
	}
}

func TestRecommend_TimeGateFiltersPersonalized(t *testing.T) {
	eng := testEngine()

	// Only gyms clear the time gate, so Sporty keeps the gym and loses the
	// park while still staying personalized
	rows := eng.Recommend(context.Background(), Inputs{
		Affinity: []models.ArchetypeAffinity{{Archetype: models.ArchetypeSporty, Total: 10}},
		Catalog:  testCatalog(),
		Time:     allowAll("gym"),
		Weather:  clearWeather(),
		Seed:     1,
	})

	sporty := rowsFor(rows, models.ArchetypeSporty)
	if len(sporty) != 1 {
		t.Fatalf("Sporty rows = %d, want 1", len(sporty))
	}
	if sporty[0].VenueName != "City Gym" || sporty[0].Provenance != models.ProvenancePersonalized {
		t.Errorf("row = %v/%v, want City Gym personalized", sporty[0].VenueName, sporty[0].Provenance)
	}
}

func TestRecommend_DenyAllForcesFallback(t *testing.T) {
	eng := testEngine()

	rows := eng.Recommend(context.Background(), Inputs{
		Affinity: warmAffinity(),
		Catalog:  testCatalog(),
		Time:     denyAll(),
		Weather:  clearWeather(),
		Seed:     7,
	})

	if len(rows) == 0 {
		t.Fatal("deny-all must still produce fallback rows")
	}
	for _, row := range rows {
		if row.Provenance != models.ProvenanceFallback {
			t.Errorf("row %v provenance = %v, want fallback under deny-all", row.VenueName, row.Provenance)
		}
	}
}

func TestRecommend_ColdArchetypeGetsFallback(t *testing.T) {
	eng := testEngine()

	rows := eng.Recommend(context.Background(), Inputs{
		Affinity: []models.ArchetypeAffinity{
			{Archetype: models.ArchetypeHealing, Total: 1, Cold: true},
		},
		Catalog: testCatalog(),
		Time:    allowAll("park", "place_of_worship", "cafe"),
		Weather: clearWeather(),
		Seed:    7,
	})

	healing := rowsFor(rows, models.ArchetypeHealing)
	if len(healing) != len(testCatalog()) {
		t.Fatalf("Healing rows = %d, want the full top pool of %d", len(healing), len(testCatalog()))
	}
	for _, row := range healing {
		if row.Provenance != models.ProvenanceFallback {
			t.Errorf("cold archetype row %v provenance = %v, want fallback", row.VenueName, row.Provenance)
		}
	}

	// Fallback ignores the time gate and serves by global score
	if healing[0].VenueName != "City Gym" {
		t.Errorf("fallback rank 1 = %v, want City Gym by score", healing[0].VenueName)
	}
}

func TestRecommend_EmptyCatalogProducesNothing(t *testing.T) {
	eng := testEngine()

	rows := eng.Recommend(context.Background(), Inputs{
		Affinity: warmAffinity(),
		Catalog:  nil,
		Time:     allowAll("gym"),
		Weather:  clearWeather(),
		Seed:     1,
	})

	if rows != nil {
		t.Errorf("rows = %v, want nil for empty catalog", rows)
	}
}

func TestRecommend_EmptyAffinityServesFullRoster(t *testing.T) {
	eng := testEngine()

	rows := eng.Recommend(context.Background(), Inputs{
		Affinity: nil,
		Catalog:  testCatalog(),
		Time:     allowAll("gym"),
		Weather:  clearWeather(),
		Seed:     1,
	})

	seen := make(map[models.Archetype]bool)
	for _, row := range rows {
		seen[row.Archetype] = true
		if row.Provenance != models.ProvenanceFallback {
			t.Errorf("row %v provenance = %v, want fallback without affinity data", row.VenueName, row.Provenance)
		}
	}

	for _, archetype := range models.Roster() {
		if !seen[archetype] {
			t.Errorf("archetype %q missing from output", archetype)
		}
	}
}

func TestRecommend_RankInvariants(t *testing.T) {
	eng := testEngine()

	rows := eng.Recommend(context.Background(), Inputs{
		Affinity: nil,
		Catalog:  testCatalog(),
		Time:     denyAll(),
		Weather:  clearWeather(),
		Seed:     99,
	})

	byArchetype := make(map[models.Archetype][]models.Recommendation)
	for _, row := range rows {
		byArchetype[row.Archetype] = append(byArchetype[row.Archetype], row)
	}

	for archetype, group := range byArchetype {
		if len(group) > 10 {
			t.Errorf("%q has %d rows, want at most 10", archetype, len(group))
		}
		for i, row := range group {
			if row.Rank != i+1 {
				t.Errorf("%q row %d rank = %d, want contiguous ranks from 1", archetype, i, row.Rank)
			}
			if i > 0 && group[i-1].Score < row.Score {
				t.Errorf("%q rank %d score %v exceeds rank %d score %v", archetype, row.Rank, row.Score, group[i-1].Rank, group[i-1].Score)
			}
		}
	}
}

func TestRecommend_RankLimitCapsOutput(t *testing.T) {
	logger := logging.NewStructuredLogger("engine-test", "test", logging.ErrorLevel)
	logger.SetOutput(io.Discard)
	eng := New(Config{FallbackSize: 3, RankLimit: 2}, logger, testMetrics)

	rows := eng.Recommend(context.Background(), Inputs{
		Affinity: []models.ArchetypeAffinity{{Archetype: models.ArchetypeHealing, Total: 1, Cold: true}},
		Catalog:  testCatalog(),
		Time:     denyAll(),
		Weather:  clearWeather(),
		Seed:     5,
	})

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want RankLimit of 2", len(rows))
	}
	if rows[0].Rank != 1 || rows[1].Rank != 2 {
		t.Errorf("ranks = %d,%d, want 1,2", rows[0].Rank, rows[1].Rank)
	}
}

func TestRecommend_FixedSeedIsReproducible(t *testing.T) {
	eng := testEngine()

	// Equal scores force the random tiebreak to decide the order
	tied := []models.Venue{
		{Name: "Cafe A", Category: "cafe", Score: 5},
		{Name: "Cafe B", Category: "cafe", Score: 5},
		{Name: "Cafe C", Category: "cafe", Score: 5},
		{Name: "Cafe D", Category: "cafe", Score: 5},
	}

	in := Inputs{
		Affinity: []models.ArchetypeAffinity{{Archetype: models.ArchetypeSocialButterfly, Total: 3}},
		Catalog:  tied,
		Time:     allowAll("cafe"),
		Weather:  clearWeather(),
		Seed:     1234,
	}

	first := eng.Recommend(context.Background(), in)
	second := eng.Recommend(context.Background(), in)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same seed and inputs produced different tables:\n%v\n%v", first, second)
	}
}

func TestRecommend_DifferentSeedsCanReorderTies(t *testing.T) {
	eng := testEngine()

	tied := make([]models.Venue, 0, 8)
	for _, name := range []string{"A", "B", "C", "D", "E", "F", "G", "H"} {
		tied = append(tied, models.Venue{Name: "Cafe " + name, Category: "cafe", Score: 5})
	}

	in := Inputs{
		Affinity: []models.ArchetypeAffinity{{Archetype: models.ArchetypeSocialButterfly, Total: 3}},
		Catalog:  tied,
		Time:     allowAll("cafe"),
		Weather:  clearWeather(),
	}

	order := func(seed int64) []string {
		in.Seed = seed
		rows := eng.Recommend(context.Background(), in)
		names := make([]string, 0, len(rows))
		for _, row := range rows {
			names = append(names, row.VenueName)
		}
		return names
	}

	base := order(1)
	for seed := int64(2); seed <= 20; seed++ {
		if !reflect.DeepEqual(base, order(seed)) {
			return
		}
	}
	t.Error("20 different seeds produced identical tie orderings")
}

func TestRecommend_WeatherOverride(t *testing.T) {
	eng := testEngine()

	tests := []struct {
		name        string
		weather     models.WeatherSnapshot
		category    string
		wantMessage string
		wantColor   string
	}{
		{
			name:        "rain over outdoor venue",
			weather:     rainWeather(),
			category:    "park",
			wantMessage: MessageCaution,
			wantColor:   ColorWarning,
		},
		{
			name:        "rain over indoor venue",
			weather:     rainWeather(),
			category:    "gym",
			wantMessage: MessageFavorable,
			wantColor:   ColorFavorable,
		},
		{
			name:        "clear over outdoor venue",
			weather:     clearWeather(),
			category:    "park",
			wantMessage: MessageFavorable,
			wantColor:   ColorFavorable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			message, color := eng.weatherOverride(&tt.weather, tt.category)
			if message != tt.wantMessage {
				t.Errorf("message = %v, want %v", message, tt.wantMessage)
			}
			if color != tt.wantColor {
				t.Errorf("color = %v, want %v", color, tt.wantColor)
			}
		})
	}
}

func TestRecommend_RainMarksOutdoorRows(t *testing.T) {
	eng := testEngine()

	rows := eng.Recommend(context.Background(), Inputs{
		Affinity: []models.ArchetypeAffinity{{Archetype: models.ArchetypeSporty, Total: 10}},
		Catalog:  testCatalog(),
		Time:     allowAll("gym", "park"),
		Weather:  rainWeather(),
		Seed:     42,
	})

	for _, row := range rows {
		switch row.Category {
		case "park":
			if row.HighlightColor != ColorWarning || row.StrategyMessage != MessageCaution {
				t.Errorf("park row = (%v, %v), want caution under rain", row.StrategyMessage, row.HighlightColor)
			}
		case "gym":
			if row.HighlightColor != ColorFavorable || row.StrategyMessage != MessageFavorable {
				t.Errorf("gym row = (%v, %v), want favorable; gyms are indoor", row.StrategyMessage, row.HighlightColor)
			}
		}
	}
}
