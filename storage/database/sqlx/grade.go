package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/grade"
)

type gradeRow struct {
	StudentID   string      `db:"student_id"`
	CourseID    string      `db:"course_id"`
	Score       float64     `db:"score"`
	Feedback    string      `db:"feedback"`
	GradedBy    null.String `db:"graded_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
	StudentName null.String `db:"student_name"`
	CourseName  null.String `db:"course_name"`
	CourseCode  null.String `db:"course_code"`
}

func (r gradeRow) record() grade.Record {
	return grade.Record{
		StudentID:   r.StudentID,
		CourseID:    r.CourseID,
		Score:       r.Score,
		Feedback:    r.Feedback,
		GradedBy:    r.GradedBy.String,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		StudentName: r.StudentName.String,
		CourseName:  r.CourseName.String,
		CourseCode:  r.CourseCode.String,
	}
}

type gradeRepository struct {
	db *sqlx.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *sqlx.DB) grade.Repository {
	return &gradeRepository{db: db}
}

// UpsertGrades writes every record or none of them.
func (repo *gradeRepository) UpsertGrades(ctx context.Context, records []grade.Record) error {
	q := `INSERT INTO grade (student_id, course_id, score, feedback, graded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, course_id)
		DO UPDATE SET score = EXCLUDED.score, feedback = EXCLUDED.feedback,
			graded_by = EXCLUDED.graded_by, updated_at = EXCLUDED.updated_at`

	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, q)
		if err != nil {
			return errors.Wrap(err, "preparing grade upsert")
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range records {
			_, err = stmt.ExecContext(ctx,
				r.StudentID, r.CourseID, r.Score, r.Feedback,
				null.NewString(r.GradedBy, r.GradedBy != ""), r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
			)
			if err != nil {
				return errors.Wrapf(err, "upserting grade %s", r.Key())
			}
		}
		return nil
	})
}

func (repo *gradeRepository) QueryGrades(ctx context.Context, filter grade.QueryFilter) ([]grade.Record, error) {
	w := new(where)
	for col, id := range map[string]string{"g.student_id": filter.StudentID, "g.course_id": filter.CourseID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return []grade.Record{}, nil
		}
		w.add(col+" = ?", id)
	}

	q := `SELECT g.student_id, g.course_id, g.score, g.feedback, g.graded_by, g.created_at, g.updated_at,
			u.name AS student_name, c.name AS course_name, c.code AS course_code
		FROM grade g
		LEFT JOIN "user" u ON u.id = g.student_id
		LEFT JOIN course c ON c.id = g.course_id` + w.String() + `
		ORDER BY c.code, g.course_id, u.name, g.student_id`

	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	records := make([]grade.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}
