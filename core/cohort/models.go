package cohort

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// DefaultCredits is the credit value given to every new course.
const DefaultCredits = 3

// Cohort is a class of students sharing the same courses.
type Cohort struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	CreatedAt time.Time  `json:"created_at"`
}

// Course is a course taught to one cohort, optionally with a weekly recurrence.
// DayOfWeek follows time.Weekday (Sunday = 0). StartTime & EndTime are "HH:MM" wall-clock times.
type Course struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Code         string     `json:"code"`
	Credits      int        `json:"credits"`
	CohortID     string     `json:"cohort_id"`
	InstructorID string     `json:"instructor_id,omitempty"`
	StartDate    *time.Time `json:"start_date"`
	EndDate      *time.Time `json:"end_date"`
	DayOfWeek    *int       `json:"day_of_week"`
	StartTime    string     `json:"start_time,omitempty"`
	EndTime      string     `json:"end_time,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	// read-only labels
	CohortName     string `json:"cohort_name,omitempty"`
	InstructorName string `json:"instructor_name,omitempty"`
}

// Member is a student of a cohort.
type Member struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsMonitor bool   `json:"is_monitor"`
}

// NewCohort contains information needed to create a new Cohort.
type NewCohort struct {
	Name      string `json:"name" validate:"required"`
	StartDate string `json:"start_date" validate:"required,isodate"`
	EndDate   string `json:"end_date" validate:"omitempty,isodate"`
}

func (nc *NewCohort) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.StartDate = core.CleanString(nc.StartDate)
	nc.EndDate = core.CleanString(nc.EndDate)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	if nc.EndDate != "" && nc.EndDate < nc.StartDate {
		return core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: errEndBeforeStart})
	}
	return nil
}

// CourseInput defines what information may be provided to create or modify a Course.
type CourseInput struct {
	Name         string `json:"name" validate:"required"`
	Code         string `json:"code" validate:"required,max=32"`
	CohortID     string `json:"cohort_id" validate:"required"`
	InstructorID string `json:"instructor_id"`
	StartDate    string `json:"start_date" validate:"omitempty,isodate"`
	EndDate      string `json:"end_date" validate:"omitempty,isodate"`
	DayOfWeek    *int   `json:"day_of_week"`
	StartTime    string `json:"start_time" validate:"omitempty,hhmm"`
	EndTime      string `json:"end_time" validate:"omitempty,hhmm"`
}

func (ci *CourseInput) Validate(validate *validator.Validate) error {
	ci.Name = core.CleanString(ci.Name)
	ci.Code = core.CleanString(ci.Code)
	ci.CohortID = core.CleanString(ci.CohortID)
	ci.InstructorID = core.CleanString(ci.InstructorID)
	ci.StartDate = core.CleanString(ci.StartDate)
	ci.EndDate = core.CleanString(ci.EndDate)
	ci.StartTime = core.CleanString(ci.StartTime)
	ci.EndTime = core.CleanString(ci.EndTime)

	if err := validate.Struct(ci); err != nil {
		return err
	}

	var flds []core.FieldError
	if ci.DayOfWeek != nil && (*ci.DayOfWeek < 0 || *ci.DayOfWeek > 6) {
		flds = append(flds, core.FieldError{Field: "day_of_week", Error: errInvalidWeekday})
	}
	if ci.StartDate != "" && ci.EndDate != "" && ci.EndDate < ci.StartDate {
		flds = append(flds, core.FieldError{Field: "end_date", Error: errEndBeforeStart})
	}
	if ci.StartTime != "" && ci.EndTime != "" {
		ci.StartTime, ci.EndTime = normalizeClock(ci.StartTime), normalizeClock(ci.EndTime)
		if ci.EndTime <= ci.StartTime {
			flds = append(flds, core.FieldError{Field: "end_time", Error: errEndBeforeStart})
		}
	} else {
		ci.StartTime, ci.EndTime = normalizeClock(ci.StartTime), normalizeClock(ci.EndTime)
	}
	if flds != nil {
		return core.NewValidationError(nil, flds...)
	}
	return nil
}

// normalizeClock zero-pads a valid "H:MM" time to "HH:MM".
func normalizeClock(s string) string {
	h, m, ok := core.ParseClock(s)
	if !ok {
		return s
	}
	return fmt.Sprintf("%02d:%02d", h, m)
}

// CourseFilter selects courses. Empty fields are ignored.
type CourseFilter struct {
	CohortID     string `query:"cohort_id"`
	InstructorID string `query:"instructor_id"`
}
