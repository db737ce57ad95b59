package schedule

import (
	"time"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/cohort"
)

// CourseSchedule is the weekly recurrence descriptor of a course.
// Any of SemesterStart, SemesterEnd, Weekday, StartTime or EndTime missing means the course has no occurrences.
type CourseSchedule struct {
	CourseID       string
	Name           string
	Code           string
	SemesterStart  *time.Time
	SemesterEnd    *time.Time
	Weekday        *int   // time.Weekday: Sunday = 0
	StartTime      string // "HH:MM"
	EndTime        string // "HH:MM"
	InstructorName string
	CohortName     string
}

// FromCourse builds the recurrence descriptor of a course.
func FromCourse(c cohort.Course) CourseSchedule {
	return CourseSchedule{
		CourseID:       c.ID,
		Name:           c.Name,
		Code:           c.Code,
		SemesterStart:  c.StartDate,
		SemesterEnd:    c.EndDate,
		Weekday:        c.DayOfWeek,
		StartTime:      c.StartTime,
		EndTime:        c.EndTime,
		InstructorName: c.InstructorName,
		CohortName:     c.CohortName,
	}
}

// Occurrence is a single concrete class session.
type Occurrence struct {
	ID             string    `json:"id"` // CourseID + "-" + YYYY-MM-DD
	CourseID       string    `json:"course_id"`
	Title          string    `json:"title"`
	Start          time.Time `json:"start"`
	End            time.Time `json:"end"`
	Color          string    `json:"color"`
	ColorIndex     int       `json:"color_index"`
	CourseName     string    `json:"course_name"`
	CourseCode     string    `json:"course_code,omitempty"`
	CohortName     string    `json:"cohort_name,omitempty"`
	InstructorName string    `json:"instructor_name,omitempty"`
}

// Date returns the "YYYY-MM-DD" calendar date of the occurrence.
func (o Occurrence) Date() string {
	return core.FormatDate(o.Start)
}

func (cs CourseSchedule) complete() bool {
	return cs.SemesterStart != nil && cs.SemesterEnd != nil && cs.Weekday != nil &&
		cs.StartTime != "" && cs.EndTime != ""
}

func (cs CourseSchedule) title() string {
	if cs.CohortName == "" {
		return cs.Name
	}
	return cs.Name + " · " + cs.CohortName
}

// parseClockOrMidnight parses a "HH:MM" time, falling back to 00:00 when malformed.
func parseClockOrMidnight(s string) (int, int) {
	h, m, ok := core.ParseClock(s)
	if !ok {
		return 0, 0
	}
	return h, m
}

// Expand lists the occurrences of cs: one per date of [SemesterStart, SemesterEnd] (both inclusive)
// falling on cs.Weekday, in ascending order.
// Wall-clock times are combined with each date in the location of SemesterStart, without conversion.
// Incomplete descriptors, an out-of-range weekday or SemesterStart after SemesterEnd give no occurrences.
func Expand(cs CourseSchedule) []Occurrence {
	if !cs.complete() || *cs.Weekday < 0 || *cs.Weekday > 6 {
		return nil
	}

	loc := cs.SemesterStart.Location()
	sy, sm, sd := cs.SemesterStart.Date()
	ey, em, ed := cs.SemesterEnd.Date()
	first := time.Date(sy, sm, sd, 0, 0, 0, 0, loc)
	last := time.Date(ey, em, ed, 0, 0, 0, 0, loc)
	if first.After(last) {
		return nil
	}

	startH, startM := parseClockOrMidnight(cs.StartTime)
	endH, endM := parseClockOrMidnight(cs.EndTime)
	title := cs.title()

	// jump to the first matching weekday, then step a week at a time
	offset := (*cs.Weekday - int(first.Weekday()) + 7) % 7
	occs := make([]Occurrence, 0, int(last.Sub(first).Hours()/24/7)+1)
	for d := first.AddDate(0, 0, offset); !d.After(last); d = d.AddDate(0, 0, 7) {
		y, m, day := d.Date()
		occs = append(occs, Occurrence{
			ID:             cs.CourseID + "-" + d.Format(core.DateLayout),
			CourseID:       cs.CourseID,
			Title:          title,
			Start:          time.Date(y, m, day, startH, startM, 0, 0, loc),
			End:            time.Date(y, m, day, endH, endM, 0, 0, loc),
			CourseName:     cs.Name,
			CourseCode:     cs.Code,
			CohortName:     cs.CohortName,
			InstructorName: cs.InstructorName,
		})
	}
	return occs
}
