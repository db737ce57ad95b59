package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func courseOn(id string, wd time.Weekday, startTime string) CourseSchedule {
	return CourseSchedule{
		CourseID:      id,
		Name:          "Course " + id,
		SemesterStart: date(2024, 3, 4),
		SemesterEnd:   date(2024, 3, 17),
		Weekday:       weekday(wd),
		StartTime:     startTime,
		EndTime:       "23:00",
	}
}

func colorsByCourse(occs []Occurrence) map[string]string {
	colors := make(map[string]string)
	for _, occ := range occs {
		colors[occ.CourseID] = occ.Color
	}
	return colors
}

func TestAggregate_colorsAreStable(t *testing.T) {
	courses := []CourseSchedule{
		courseOn("b", time.Tuesday, "09:00"),
		courseOn("a", time.Monday, "09:00"),
		courseOn("c", time.Wednesday, "09:00"),
	}

	first := Aggregate(courses)
	second := Aggregate(courses)
	assert.Equal(t, first, second)

	colors := colorsByCourse(first)
	assert.Equal(t, Palette[0], colors["b"])
	assert.Equal(t, Palette[1], colors["a"])
	assert.Equal(t, Palette[2], colors["c"])
}

func TestAggregate_paletteWrapsAround(t *testing.T) {
	courses := make([]CourseSchedule, 0, len(Palette)+2)
	for i := 0; i < len(Palette)+2; i++ {
		courses = append(courses, courseOn(fmt.Sprintf("c%02d", i), time.Monday, "09:00"))
	}

	colors := colorsByCourse(Aggregate(courses))
	assert.Equal(t, Palette[0], colors["c08"])
	assert.Equal(t, Palette[1], colors["c09"])
	assert.Equal(t, colors["c00"], colors["c08"])
}

func TestAggregate_unschedulableCoursesTakeAColor(t *testing.T) {
	noSchedule := courseOn("x", time.Monday, "09:00")
	noSchedule.Weekday = nil

	occs := Aggregate([]CourseSchedule{noSchedule, courseOn("a", time.Monday, "09:00")})
	colors := colorsByCourse(occs)
	assert.NotContains(t, colors, "x")
	assert.Equal(t, Palette[1], colors["a"])
}

func TestAggregate_sortedByStartThenCourse(t *testing.T) {
	courses := []CourseSchedule{
		courseOn("z", time.Monday, "09:00"),
		courseOn("a", time.Monday, "09:00"),
		courseOn("m", time.Monday, "08:00"),
		courseOn("t", time.Tuesday, "07:00"),
	}
	occs := Aggregate(courses)
	require.Len(t, occs, 8)

	got := make([]string, 0, len(occs))
	for _, occ := range occs {
		got = append(got, occ.ID)
	}
	assert.Equal(t, []string{
		"m-2024-03-04", "a-2024-03-04", "z-2024-03-04", "t-2024-03-05",
		"m-2024-03-11", "a-2024-03-11", "z-2024-03-11", "t-2024-03-12",
	}, got)
}

func TestAggregate_duplicateCourses(t *testing.T) {
	a := courseOn("a", time.Monday, "09:00")
	occs := Aggregate([]CourseSchedule{a, courseOn("b", time.Monday, "10:00"), a})
	require.Len(t, occs, 4)

	ids := make(map[string]int)
	for _, occ := range occs {
		ids[occ.ID]++
	}
	for id, n := range ids {
		assert.Equal(t, 1, n, id)
	}
	assert.Equal(t, Palette[1], colorsByCourse(occs)["b"])
}

func TestAggregate_doesNotMutateInput(t *testing.T) {
	courses := []CourseSchedule{courseOn("b", time.Tuesday, "09:00"), courseOn("a", time.Monday, "09:00")}
	snapshot := make([]CourseSchedule, len(courses))
	copy(snapshot, courses)

	_ = Aggregate(courses)
	assert.Equal(t, snapshot, courses)
}

func TestAggregate_empty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
