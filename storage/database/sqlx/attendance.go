package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRow struct {
	StudentID   string      `db:"student_id"`
	CourseID    string      `db:"course_id"`
	Date        time.Time   `db:"date"`
	Status      string      `db:"status"`
	RecordedBy  null.String `db:"recorded_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
	StudentName null.String `db:"student_name"`
}

func (r attendanceRow) record() attendance.Record {
	return attendance.Record{
		StudentID:   r.StudentID,
		CourseID:    r.CourseID,
		Date:        core.Midnight(r.Date),
		Status:      attendance.Status(r.Status),
		RecordedBy:  r.RecordedBy.String,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
		StudentName: r.StudentName.String,
	}
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// UpsertAttendance writes every record or none of them.
func (repo *attendanceRepository) UpsertAttendance(ctx context.Context, records []attendance.Record) error {
	q := `INSERT INTO attendance (student_id, course_id, date, status, recorded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (student_id, course_id, date)
		DO UPDATE SET status = EXCLUDED.status, recorded_by = EXCLUDED.recorded_by, updated_at = EXCLUDED.updated_at`

	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		stmt, err := tx.PreparexContext(ctx, q)
		if err != nil {
			return errors.Wrap(err, "preparing attendance upsert")
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range records {
			_, err = stmt.ExecContext(ctx,
				r.StudentID, r.CourseID, core.FormatDate(r.Date), string(r.Status),
				null.NewString(r.RecordedBy, r.RecordedBy != ""), r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
			)
			if err != nil {
				return errors.Wrapf(err, "upserting attendance %s", r.Key())
			}
		}
		return nil
	})
}

func (repo *attendanceRepository) QueryAttendance(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	w := new(where)
	for col, id := range map[string]string{"a.student_id": filter.StudentID, "a.course_id": filter.CourseID} {
		if id == "" {
			continue
		}
		if _, err := uuid.Parse(id); err != nil {
			return []attendance.Record{}, nil
		}
		w.add(col+" = ?", id)
	}
	if !filter.From.IsZero() {
		w.add("a.date >= ?", core.FormatDate(filter.From))
	}
	if !filter.To.IsZero() {
		w.add("a.date <= ?", core.FormatDate(filter.To))
	}

	q := `SELECT a.student_id, a.course_id, a.date, a.status, a.recorded_by, a.created_at, a.updated_at,
			u.name AS student_name
		FROM attendance a
		LEFT JOIN "user" u ON u.id = a.student_id` + w.String() + `
		ORDER BY a.date, a.course_id, u.name, a.student_id`

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, q, w.args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

func (repo *attendanceRepository) CountAttendanceByStatus(ctx context.Context, studentID string) (map[attendance.Status]int, error) {
	counts := make(map[attendance.Status]int)
	if _, err := uuid.Parse(studentID); err != nil {
		return counts, nil
	}

	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	q := `SELECT status, COUNT(*) AS count FROM attendance WHERE student_id = $1 GROUP BY status`
	if err := repo.db.SelectContext(ctx, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "counting attendance")
	}
	for _, r := range rows {
		counts[attendance.Status(r.Status)] = r.Count
	}
	return counts, nil
}

func (repo *attendanceRepository) LatestAttendanceDate(ctx context.Context, courseID string) (time.Time, bool, error) {
	if _, err := uuid.Parse(courseID); err != nil {
		return time.Time{}, false, nil
	}
	var latest null.Time
	if err := repo.db.GetContext(ctx, &latest, `SELECT MAX(date) FROM attendance WHERE course_id = $1`, courseID); err != nil {
		return time.Time{}, false, errors.Wrap(err, "finding latest attendance date")
	}
	if !latest.Valid {
		return time.Time{}, false, nil
	}
	return core.Midnight(latest.Time), true, nil
}
