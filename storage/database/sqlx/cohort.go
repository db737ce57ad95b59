package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/cohort"
)

type cohortRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	StartDate time.Time `db:"start_date"`
	EndDate   null.Time `db:"end_date"`
	CreatedAt time.Time `db:"created_at"`
}

func (r cohortRow) cohort() cohort.Cohort {
	return cohort.Cohort{
		ID:        r.ID,
		Name:      r.Name,
		StartDate: core.Midnight(r.StartDate),
		EndDate:   datePtr(r.EndDate),
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type courseRow struct {
	ID             string      `db:"id"`
	Name           string      `db:"name"`
	Code           string      `db:"code"`
	Credits        int         `db:"credits"`
	CohortID       string      `db:"cohort_id"`
	InstructorID   null.String `db:"instructor_id"`
	StartDate      null.Time   `db:"start_date"`
	EndDate        null.Time   `db:"end_date"`
	DayOfWeek      null.Int    `db:"day_of_week"`
	StartTime      null.String `db:"start_time"`
	EndTime        null.String `db:"end_time"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
	CohortName     null.String `db:"cohort_name"`
	InstructorName null.String `db:"instructor_name"`
}

func toCourseRow(c cohort.Course) courseRow {
	return courseRow{
		ID:           c.ID,
		Name:         c.Name,
		Code:         c.Code,
		Credits:      c.Credits,
		CohortID:     c.CohortID,
		InstructorID: null.NewString(c.InstructorID, c.InstructorID != ""),
		StartDate:    null.TimeFromPtr(c.StartDate),
		EndDate:      null.TimeFromPtr(c.EndDate),
		DayOfWeek:    null.IntFromPtr(c.DayOfWeek),
		StartTime:    null.NewString(c.StartTime, c.StartTime != ""),
		EndTime:      null.NewString(c.EndTime, c.EndTime != ""),
		CreatedAt:    c.CreatedAt.UTC(),
		UpdatedAt:    c.UpdatedAt.UTC(),
	}
}

func (r courseRow) course() cohort.Course {
	return cohort.Course{
		ID:             r.ID,
		Name:           r.Name,
		Code:           r.Code,
		Credits:        r.Credits,
		CohortID:       r.CohortID,
		InstructorID:   r.InstructorID.String,
		StartDate:      datePtr(r.StartDate),
		EndDate:        datePtr(r.EndDate),
		DayOfWeek:      r.DayOfWeek.Ptr(),
		StartTime:      r.StartTime.String,
		EndTime:        r.EndTime.String,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
		CohortName:     r.CohortName.String,
		InstructorName: r.InstructorName.String,
	}
}

// datePtr maps a nullable DATE column to its canonical instant.
func datePtr(t null.Time) *time.Time {
	if !t.Valid {
		return nil
	}
	d := core.Midnight(t.Time)
	return &d
}

const courseSelect = `SELECT c.id, c.name, c.code, c.credits, c.cohort_id, c.instructor_id, c.start_date, c.end_date,
		c.day_of_week, c.start_time, c.end_time, c.created_at, c.updated_at,
		k.name AS cohort_name, u.name AS instructor_name
	FROM course c
	JOIN cohort k ON k.id = c.cohort_id
	LEFT JOIN "user" u ON u.id = c.instructor_id`

type cohortRepository struct {
	db *sqlx.DB
}

var _ cohort.Repository = (*cohortRepository)(nil) // interface compliance check

func NewCohortRepository(db *sqlx.DB) cohort.Repository {
	return &cohortRepository{db: db}
}

func (repo *cohortRepository) CreateCohort(ctx context.Context, c cohort.Cohort) (cohort.Cohort, error) {
	q := `INSERT INTO cohort (id, name, start_date, end_date, created_at) VALUES ($1, $2, $3, $4, $5)`
	if _, err := repo.db.ExecContext(ctx, q, c.ID, c.Name, c.StartDate, null.TimeFromPtr(c.EndDate), c.CreatedAt.UTC()); err != nil {
		return cohort.Cohort{}, errors.Wrap(err, "inserting cohort")
	}
	return c, nil
}

func (repo *cohortRepository) GetCohort(ctx context.Context, id string) (cohort.Cohort, error) {
	if _, err := uuid.Parse(id); err != nil {
		return cohort.Cohort{}, cohort.ErrCohortNotFound
	}
	var row cohortRow
	q := `SELECT id, name, start_date, end_date, created_at FROM cohort WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return cohort.Cohort{}, trapNoRowsErr(err, cohort.ErrCohortNotFound, "finding cohort")
	}
	return row.cohort(), nil
}

func (repo *cohortRepository) QueryCohorts(ctx context.Context) ([]cohort.Cohort, error) {
	var rows []cohortRow
	q := `SELECT id, name, start_date, end_date, created_at FROM cohort ORDER BY start_date DESC, name`
	if err := repo.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying cohorts")
	}
	cohorts := make([]cohort.Cohort, 0, len(rows))
	for _, r := range rows {
		cohorts = append(cohorts, r.cohort())
	}
	return cohorts, nil
}

func (repo *cohortRepository) CheckCourseCodeUniqueness(ctx context.Context, cohortID, code string, excludedIDs ...string) error {
	w := new(where)
	w.add("cohort_id = ?", cohortID)
	w.add("UPPER(code) = UPPER(?)", code)
	for _, id := range excludedIDs {
		w.add("id::text <> ?", id)
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM course`+w.String()+`)`, w.args...); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if exists {
		return cohort.ErrCodeExists
	}
	return nil
}

func (repo *cohortRepository) CreateCourse(ctx context.Context, c cohort.Course) (cohort.Course, error) {
	q := `INSERT INTO course (id, name, code, credits, cohort_id, instructor_id, start_date, end_date,
			day_of_week, start_time, end_time, created_at, updated_at)
		VALUES (:id, :name, :code, :credits, :cohort_id, :instructor_id, :start_date, :end_date,
			:day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, toCourseRow(c)); err != nil {
		return cohort.Course{}, errors.Wrap(err, "inserting course")
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *cohortRepository) UpdateCourse(ctx context.Context, c cohort.Course) (cohort.Course, error) {
	q := `UPDATE course SET
			name = :name, code = :code, credits = :credits, cohort_id = :cohort_id, instructor_id = :instructor_id,
			start_date = :start_date, end_date = :end_date, day_of_week = :day_of_week,
			start_time = :start_time, end_time = :end_time, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, toCourseRow(c))
	if err != nil {
		return cohort.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return cohort.Course{}, cohort.ErrCourseNotFound
	}
	return repo.GetCourse(ctx, c.ID)
}

func (repo *cohortRepository) GetCourse(ctx context.Context, id string) (cohort.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return cohort.Course{}, cohort.ErrCourseNotFound
	}
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, courseSelect+` WHERE c.id = $1`, id); err != nil {
		return cohort.Course{}, trapNoRowsErr(err, cohort.ErrCourseNotFound, "finding course")
	}
	return row.course(), nil
}

func (repo *cohortRepository) QueryCourses(ctx context.Context, filter cohort.CourseFilter) ([]cohort.Course, error) {
	w := new(where)
	for col, id := range map[string]string{"c.cohort_id": filter.CohortID, "c.instructor_id": filter.InstructorID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return []cohort.Course{}, nil
		}
		w.add(col+" = ?", id)
	}

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, courseSelect+w.String()+` ORDER BY c.name, c.id`, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]cohort.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, r.course())
	}
	return courses, nil
}
