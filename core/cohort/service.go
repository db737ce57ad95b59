package cohort

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var (
	// errors
	ErrCohortNotFound = errors.New("cohort not found")
	ErrCourseNotFound = errors.New("course not found")
	ErrCodeExists     = errors.New("a course with this code already exists in the cohort")

	errEndBeforeStart     = "end must be after start"
	errInvalidWeekday     = "day of week must be between 0 (Sunday) and 6 (Saturday)"
	errInstructorNotFound = "instructor must be an active teacher"
)

type (
	Repository interface {
		CreateCohort(ctx context.Context, c Cohort) (Cohort, error)
		// GetCohort returns ErrCohortNotFound when no Cohort matches.
		GetCohort(ctx context.Context, id string) (Cohort, error)
		QueryCohorts(ctx context.Context) ([]Cohort, error)

		CheckCourseCodeUniqueness(ctx context.Context, cohortID, code string, excludedIDs ...string) error
		CreateCourse(ctx context.Context, c Course) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// GetCourse returns ErrCourseNotFound when no Course matches. Read-only labels are filled.
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses returns the courses matching filter, with read-only labels filled, ordered by name.
		QueryCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	}

	// Identity is the part of the user service the directory relies on.
	Identity interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		CohortStudents(ctx context.Context, cohortID string) ([]user.User, error)
	}

	Service struct {
		repo       Repository
		identity   Identity
		termLength time.Duration
	}
)

func NewService(repo Repository, identity Identity, conf *core.Config) *Service {
	return &Service{
		repo:       repo,
		identity:   identity,
		termLength: conf.Calendar.DefaultTermLength,
	}
}

// Cohorts

func (svc *Service) CreateCohort(ctx context.Context, nc NewCohort) (Cohort, error) {
	start, err := core.ParseDate(nc.StartDate)
	if err != nil {
		return Cohort{}, core.NewValidationError(err, core.FieldError{Field: "start_date", Error: err.Error()})
	}
	c := Cohort{
		ID:        uuid.New().String(),
		Name:      nc.Name,
		StartDate: start,
		CreatedAt: core.NowFunc().UTC(),
	}
	if nc.EndDate != "" {
		end, err := core.ParseDate(nc.EndDate)
		if err != nil {
			return Cohort{}, core.NewValidationError(err, core.FieldError{Field: "end_date", Error: err.Error()})
		}
		if end.Before(start) {
			return Cohort{}, core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: errEndBeforeStart})
		}
		c.EndDate = &end
	}
	return svc.repo.CreateCohort(ctx, c)
}

func (svc *Service) GetCohort(ctx context.Context, id string) (Cohort, error) {
	return svc.repo.GetCohort(ctx, id)
}

func (svc *Service) QueryCohorts(ctx context.Context) ([]Cohort, error) {
	return svc.repo.QueryCohorts(ctx)
}

// Members returns the active students of a cohort.
func (svc *Service) Members(ctx context.Context, cohortID string) ([]Member, error) {
	students, err := svc.identity.CohortStudents(ctx, cohortID)
	if err != nil {
		return nil, err
	}
	members := make([]Member, 0, len(students))
	for _, s := range students {
		members = append(members, Member{ID: s.ID, Name: s.Name, IsMonitor: s.IsMonitor})
	}
	return members, nil
}

// Courses

// CreateCourse creates a course. Missing semester dates default to the cohort's dates;
// a cohort without an end date gives a semester of the configured default length.
func (svc *Service) CreateCourse(ctx context.Context, ci CourseInput) (Course, error) {
	now := core.NowFunc().UTC()
	c := Course{
		ID:        uuid.New().String(),
		Credits:   DefaultCredits,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.saveCourse(ctx, c, ci, true)
}

func (svc *Service) UpdateCourse(ctx context.Context, id string, ci CourseInput) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	c.UpdatedAt = core.NowFunc().UTC()
	return svc.saveCourse(ctx, c, ci, false)
}

func (svc *Service) saveCourse(ctx context.Context, c Course, ci CourseInput, create bool) (Course, error) {
	coh, err := svc.repo.GetCohort(ctx, ci.CohortID)
	if err != nil {
		if err == ErrCohortNotFound {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "cohort_id", Error: err.Error()})
		}
		return Course{}, err
	}

	if ci.InstructorID != "" {
		instructor, err := svc.identity.GetByID(ctx, ci.InstructorID)
		if err != nil && err != user.ErrNotFound {
			return Course{}, err
		}
		if err == user.ErrNotFound || !instructor.IsTeacher() || !instructor.IsActive {
			return Course{}, core.NewValidationError(nil, core.FieldError{Field: "instructor_id", Error: errInstructorNotFound})
		}
	}

	var excluded []string
	if !create {
		excluded = append(excluded, c.ID)
	}
	if err = svc.repo.CheckCourseCodeUniqueness(ctx, coh.ID, ci.Code, excluded...); err != nil {
		if err == ErrCodeExists {
			return Course{}, core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return Course{}, err
	}

	c.Name = ci.Name
	c.Code = ci.Code
	c.CohortID = coh.ID
	c.InstructorID = ci.InstructorID
	c.DayOfWeek = ci.DayOfWeek
	c.StartTime = ci.StartTime
	c.EndTime = ci.EndTime
	if c.StartDate, c.EndDate, err = svc.semester(coh, ci, c, create); err != nil {
		return Course{}, err
	}

	if c.StartDate != nil && c.EndDate != nil && c.EndDate.Before(*c.StartDate) {
		return Course{}, core.NewValidationError(nil, core.FieldError{Field: "end_date", Error: errEndBeforeStart})
	}

	if create {
		return svc.repo.CreateCourse(ctx, c)
	}
	return svc.repo.UpdateCourse(ctx, c)
}

// semester resolves the course's semester window. On update, omitted dates keep their current values.
func (svc *Service) semester(coh Cohort, ci CourseInput, c Course, create bool) (start, end *time.Time, err error) {
	start, end = c.StartDate, c.EndDate
	if ci.StartDate != "" {
		d, err := core.ParseDate(ci.StartDate)
		if err != nil {
			return nil, nil, core.NewValidationError(err, core.FieldError{Field: "start_date", Error: err.Error()})
		}
		start = &d
	} else if create || start == nil {
		d := coh.StartDate
		start = &d
	}
	if ci.EndDate != "" {
		d, err := core.ParseDate(ci.EndDate)
		if err != nil {
			return nil, nil, core.NewValidationError(err, core.FieldError{Field: "end_date", Error: err.Error()})
		}
		end = &d
	} else if create || end == nil {
		if coh.EndDate != nil {
			d := *coh.EndDate
			end = &d
		} else {
			d := start.Add(svc.termLength)
			end = &d
		}
	}
	return start, end, nil
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) QueryCourses(ctx context.Context, filter CourseFilter) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter)
}
