package schedule

import "sort"

// Palette is the fixed list of course colors. Courses beyond its size share colors.
var Palette = []string{
	"#3b82f6",
	"#22c55e",
	"#f59e0b",
	"#ef4444",
	"#8b5cf6",
	"#ec4899",
	"#06b6d4",
	"#84cc16",
}

// Aggregate expands every course into one timeline sorted by start (ties broken by course id).
// The Nth distinct course of the input (0-based, counting courses without occurrences too) gets Palette[N % len(Palette)].
// Repeated course entries are expanded once. The input is never modified.
func Aggregate(courses []CourseSchedule) []Occurrence {
	seen := make(map[string]struct{}, len(courses))
	var occs []Occurrence
	for _, cs := range courses {
		if _, ok := seen[cs.CourseID]; ok {
			continue
		}
		colorIdx := len(seen) % len(Palette)
		seen[cs.CourseID] = struct{}{}

		for _, occ := range Expand(cs) {
			occ.ColorIndex = colorIdx
			occ.Color = Palette[colorIdx]
			occs = append(occs, occ)
		}
	}

	sort.SliceStable(occs, func(i, j int) bool {
		if !occs[i].Start.Equal(occs[j].Start) {
			return occs[i].Start.Before(occs[j].Start)
		}
		return occs[i].CourseID < occs[j].CourseID
	})
	return occs
}
