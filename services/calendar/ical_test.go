package calsvc

import (
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

func TestService_Feed(t *testing.T) {
	start := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	monday := int(time.Monday)
	occs := schedule.Aggregate([]schedule.CourseSchedule{{
		CourseID:       "c1",
		Name:           "Chinese 101",
		Code:           "CHN101",
		SemesterStart:  &start,
		SemesterEnd:    &end,
		Weekday:        &monday,
		StartTime:      "08:30",
		EndTime:        "10:00",
		InstructorName: "Tess",
		CohortName:     "Spring",
	}})
	require.Len(t, occs, 2)

	svc := NewService(&core.Config{AppName: "Darasa", Calendar: core.CalendarConfig{ProductID: "-//Darasa//Test//EN"}})
	out := svc.Feed("Spring", occs)
	assert.Contains(t, out, "PRODID:-//Darasa//Test//EN")
	assert.Contains(t, out, "METHOD:PUBLISH")

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 2)

	assert.Equal(t, "c1-2024-03-04@darasa", events[0].Id())
	assert.Equal(t, "20240304T083000", events[0].GetProperty(ics.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20240304T100000", events[0].GetProperty(ics.ComponentPropertyDtEnd).Value)
	assert.Equal(t, occs[0].Title, events[0].GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "c1-2024-03-11@darasa", events[1].Id())
}

func TestService_Feed_empty(t *testing.T) {
	svc := NewService(&core.Config{AppName: "Darasa"})
	out := svc.Feed("", nil)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "PRODID:-//Darasa//Schedule//EN")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "schedule_2024-03-04.ics", Filename(time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC)))
}
