package engine

import "sort"

// Rank orders scored schedules for presentation: descending score with the
// lexicographic canonical key as a stable tie-break, truncated to topN.
// A schedule is flagged new when its canonical key was absent from the
// previous run's key set; with no previous run to compare against, nothing
// is flagged.
func Rank(schedules []Schedule, topN int, prevKeys map[string]struct{}) []Schedule {
	ranked := make([]Schedule, len(schedules))
	copy(ranked, schedules)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].CanonicalKey() < ranked[j].CanonicalKey()
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}

	if prevKeys != nil {
		for i := range ranked {
			_, seen := prevKeys[ranked[i].CanonicalKey()]
			ranked[i].IsNew = !seen
		}
	}
	return ranked
}
