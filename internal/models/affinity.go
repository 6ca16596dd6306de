package models

import "sort"

// coldSentinelCount is the synthesized count for archetypes absent from the
// survey extract. It is never zero so downstream ordering and division stay
// well defined.
const coldSentinelCount = 1

// BuildAffinity groups survey records by archetype and counts them, then
// fills in every roster archetype missing from the data with a sentinel count
// marked cold. The cold flag routes those archetypes to the fallback path of
// the recommendation engine. Records with an archetype outside the roster are
// ignored.
func BuildAffinity(records []SurveyRecord) []ArchetypeAffinity {
	counts := make(map[Archetype]int)
	for _, rec := range records {
		if !KnownArchetype(rec.Archetype) {
			continue
		}
		counts[rec.Archetype]++
	}

	affinities := make([]ArchetypeAffinity, 0, len(Roster()))
	for _, archetype := range Roster() {
		total, ok := counts[archetype]
		if !ok {
			affinities = append(affinities, ArchetypeAffinity{
				Archetype: archetype,
				Total:     coldSentinelCount,
				Cold:      true,
			})
			continue
		}
		affinities = append(affinities, ArchetypeAffinity{
			Archetype: archetype,
			Total:     total,
		})
	}

	// Highest affinity first, roster order breaking ties
	sort.SliceStable(affinities, func(i, j int) bool {
		return affinities[i].Total > affinities[j].Total
	})

	return affinities
}
