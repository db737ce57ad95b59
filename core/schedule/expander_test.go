package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func weekday(d time.Weekday) *int {
	i := int(d)
	return &i
}

func mondayCourse() CourseSchedule {
	return CourseSchedule{
		CourseID:      "c1",
		Name:          "Chinese 101",
		Code:          "CHN101",
		SemesterStart: date(2024, 3, 4),
		SemesterEnd:   date(2024, 3, 25),
		Weekday:       weekday(time.Monday),
		StartTime:     "08:30",
		EndTime:       "10:00",
		CohortName:    "Spring 2024",
	}
}

func TestExpand(t *testing.T) {
	occs := Expand(mondayCourse())
	require.Len(t, occs, 4)

	wantDates := []string{"2024-03-04", "2024-03-11", "2024-03-18", "2024-03-25"}
	for i, occ := range occs {
		assert.Equal(t, wantDates[i], occ.Date())
		assert.Equal(t, "c1-"+wantDates[i], occ.ID)
		assert.Equal(t, time.Monday, occ.Start.Weekday())
		assert.Equal(t, 8, occ.Start.Hour())
		assert.Equal(t, 30, occ.Start.Minute())
		assert.Equal(t, 10, occ.End.Hour())
		assert.Equal(t, 0, occ.End.Minute())
		assert.Equal(t, "Chinese 101 · Spring 2024", occ.Title)
		assert.Equal(t, "CHN101", occ.CourseCode)
	}
}

func TestExpand_noOccurrences(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cs *CourseSchedule)
	}{
		{name: "start after end", mutate: func(cs *CourseSchedule) { cs.SemesterStart, cs.SemesterEnd = cs.SemesterEnd, cs.SemesterStart }},
		{name: "missing start date", mutate: func(cs *CourseSchedule) { cs.SemesterStart = nil }},
		{name: "missing end date", mutate: func(cs *CourseSchedule) { cs.SemesterEnd = nil }},
		{name: "missing weekday", mutate: func(cs *CourseSchedule) { cs.Weekday = nil }},
		{name: "missing start time", mutate: func(cs *CourseSchedule) { cs.StartTime = "" }},
		{name: "missing end time", mutate: func(cs *CourseSchedule) { cs.EndTime = "" }},
		{name: "weekday out of range", mutate: func(cs *CourseSchedule) { w := 7; cs.Weekday = &w }},
		{name: "negative weekday", mutate: func(cs *CourseSchedule) { w := -1; cs.Weekday = &w }},
		{name: "no matching weekday", mutate: func(cs *CourseSchedule) {
			cs.SemesterStart, cs.SemesterEnd = date(2024, 3, 5), date(2024, 3, 10) // Tue..Sun
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := mondayCourse()
			tt.mutate(&cs)
			assert.Empty(t, Expand(cs))
		})
	}
}

func TestExpand_singleDay(t *testing.T) {
	cs := mondayCourse()
	cs.SemesterEnd = cs.SemesterStart
	occs := Expand(cs)
	require.Len(t, occs, 1)
	assert.Equal(t, "2024-03-04", occs[0].Date())
}

func TestExpand_malformedTime(t *testing.T) {
	cs := mondayCourse()
	cs.StartTime = "8h30"
	cs.EndTime = "25:00"
	occs := Expand(cs)
	require.Len(t, occs, 4)
	for _, occ := range occs {
		assert.Equal(t, 0, occ.Start.Hour())
		assert.Equal(t, 0, occ.Start.Minute())
		assert.Equal(t, 0, occ.End.Hour())
	}
}

func TestExpand_keepsStartLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, loc)
	end := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)
	cs := mondayCourse()
	cs.SemesterStart, cs.SemesterEnd = &start, &end

	occs := Expand(cs)
	require.Len(t, occs, 2)
	assert.Equal(t, loc, occs[0].Start.Location())
	assert.Equal(t, 8, occs[0].Start.Hour())
	assert.Equal(t, "2024-03-11", occs[1].Date())
}

func TestExpand_isPure(t *testing.T) {
	cs := mondayCourse()
	first := Expand(cs)
	second := Expand(cs)
	assert.Equal(t, first, second)
	assert.Equal(t, mondayCourse(), cs)
}
