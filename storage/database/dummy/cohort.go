package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/darasa/core/cohort"
)

type cohortRepository struct {
	db *DB
}

var _ cohort.Repository = (*cohortRepository)(nil) // interface compliance check

func NewCohortRepository(db *DB) cohort.Repository {
	return &cohortRepository{db: db}
}

func (repo *cohortRepository) CreateCohort(_ context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	repo.db.cohort.Lock()
	defer repo.db.cohort.Unlock()

	stored := c
	repo.db.cohort.table[c.ID] = &stored
	return c, nil
}

func (repo *cohortRepository) GetCohort(_ context.Context, id string) (cohort.Cohort, error) {
	repo.db.cohort.RLock()
	defer repo.db.cohort.RUnlock()

	if c, ok := repo.db.cohort.table[id]; ok {
		return *c, nil
	}
	return cohort.Cohort{}, cohort.ErrCohortNotFound
}

func (repo *cohortRepository) QueryCohorts(_ context.Context) ([]cohort.Cohort, error) {
	repo.db.cohort.RLock()
	defer repo.db.cohort.RUnlock()

	cohorts := make([]cohort.Cohort, 0, len(repo.db.cohort.table))
	for _, c := range repo.db.cohort.table {
		cohorts = append(cohorts, *c)
	}
	sort.Slice(cohorts, func(i, j int) bool {
		if !cohorts[i].StartDate.Equal(cohorts[j].StartDate) {
			return cohorts[i].StartDate.After(cohorts[j].StartDate)
		}
		return cohorts[i].Name < cohorts[j].Name
	})
	return cohorts, nil
}

func (repo *cohortRepository) CheckCourseCodeUniqueness(_ context.Context, cohortID, code string, excludedIDs ...string) error {
	repo.db.course.RLock()
	defer repo.db.course.RUnlock()

	for _, c := range repo.db.course.table {
		if c.CohortID != cohortID || !strings.EqualFold(c.Code, code) {
			continue
		}
		var excluded bool
		for _, id := range excludedIDs {
			if c.ID == id {
				excluded = true
			}
		}
		if !excluded {
			return cohort.ErrCodeExists
		}
	}
	return nil
}

func (repo *cohortRepository) CreateCourse(ctx context.Context, c cohort.Course) (cohort.Course, error) {
	repo.db.course.Lock()
	stored := c
	stored.CohortName, stored.InstructorName = "", ""
	repo.db.course.table[c.ID] = &stored
	repo.db.course.Unlock()

	return repo.GetCourse(ctx, c.ID)
}

func (repo *cohortRepository) UpdateCourse(ctx context.Context, c cohort.Course) (cohort.Course, error) {
	repo.db.course.Lock()
	if _, ok := repo.db.course.table[c.ID]; !ok {
		repo.db.course.Unlock()
		return cohort.Course{}, cohort.ErrCourseNotFound
	}
	stored := c
	stored.CohortName, stored.InstructorName = "", ""
	repo.db.course.table[c.ID] = &stored
	repo.db.course.Unlock()

	return repo.GetCourse(ctx, c.ID)
}

// withLabels fills the read-only labels of c.
func (repo *cohortRepository) withLabels(c cohort.Course) cohort.Course {
	repo.db.cohort.RLock()
	if coh, ok := repo.db.cohort.table[c.CohortID]; ok {
		c.CohortName = coh.Name
	}
	repo.db.cohort.RUnlock()

	if c.InstructorID != "" {
		repo.db.user.RLock()
		if usr, ok := repo.db.user.table[c.InstructorID]; ok {
			c.InstructorName = usr.Name
		}
		repo.db.user.RUnlock()
	}
	return c
}

func (repo *cohortRepository) GetCourse(_ context.Context, id string) (cohort.Course, error) {
	repo.db.course.RLock()
	c, ok := repo.db.course.table[id]
	var course cohort.Course
	if ok {
		course = *c
	}
	repo.db.course.RUnlock()

	if !ok {
		return cohort.Course{}, cohort.ErrCourseNotFound
	}
	return repo.withLabels(course), nil
}

func (repo *cohortRepository) QueryCourses(_ context.Context, filter cohort.CourseFilter) ([]cohort.Course, error) {
	repo.db.course.RLock()
	courses := make([]cohort.Course, 0, len(repo.db.course.table))
	for _, c := range repo.db.course.table {
		if filter.CohortID != "" && c.CohortID != filter.CohortID {
			continue
		}
		if filter.InstructorID != "" && c.InstructorID != filter.InstructorID {
			continue
		}
		courses = append(courses, *c)
	}
	repo.db.course.RUnlock()

	for i := range courses {
		courses[i] = repo.withLabels(courses[i])
	}
	sort.Slice(courses, func(i, j int) bool {
		if courses[i].Name != courses[j].Name {
			return courses[i].Name < courses[j].Name
		}
		return courses[i].ID < courses[j].ID
	})
	return courses, nil
}
