package schedule

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/user"
)

type (
	// Directory is the part of the cohort service the schedule relies on.
	Directory interface {
		QueryCourses(ctx context.Context, filter cohort.CourseFilter) ([]cohort.Course, error)
	}

	Service struct {
		dir Directory
	}
)

func NewService(dir Directory) *Service {
	return &Service{dir: dir}
}

// Courses returns the courses visible to usr: all of them for admins,
// the taught ones for teachers and the cohort's ones for students.
func (svc *Service) Courses(ctx context.Context, usr user.User) ([]cohort.Course, error) {
	if usr.IsAdmin() {
		courses, err := svc.dir.QueryCourses(ctx, cohort.CourseFilter{})
		return courses, errors.Wrap(err, "querying courses")
	}

	var courses []cohort.Course
	if usr.IsTeacher() {
		taught, err := svc.dir.QueryCourses(ctx, cohort.CourseFilter{InstructorID: usr.ID})
		if err != nil {
			return nil, errors.Wrap(err, "querying taught courses")
		}
		courses = append(courses, taught...)
	}
	if usr.IsStudent() && usr.CohortID != "" {
		attended, err := svc.dir.QueryCourses(ctx, cohort.CourseFilter{CohortID: usr.CohortID})
		if err != nil {
			return nil, errors.Wrap(err, "querying cohort courses")
		}
		courses = append(courses, attended...)
	}
	return courses, nil
}

// Timeline returns every occurrence of the courses visible to usr.
func (svc *Service) Timeline(ctx context.Context, usr user.User) ([]Occurrence, error) {
	courses, err := svc.Courses(ctx, usr)
	if err != nil {
		return nil, err
	}
	return Aggregate(Schedules(courses)), nil
}

// ForWindow returns the occurrences of the courses visible to usr starting within w.
func (svc *Service) ForWindow(ctx context.Context, usr user.User, w Window) ([]Occurrence, error) {
	occs, err := svc.Timeline(ctx, usr)
	if err != nil {
		return nil, err
	}
	return w.Filter(occs), nil
}

// Schedules maps courses to their recurrence descriptors, keeping their order.
func Schedules(courses []cohort.Course) []CourseSchedule {
	out := make([]CourseSchedule, 0, len(courses))
	for _, c := range courses {
		out = append(out, FromCourse(c))
	}
	return out
}
