package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/duty"
)

type dutyRow struct {
	CohortID    string         `db:"cohort_id"`
	Date        time.Time      `db:"date"`
	AssignedBy  null.String    `db:"assigned_by"`
	UpdatedAt   time.Time      `db:"updated_at"`
	AssigneeIDs pq.StringArray `db:"assignee_ids"`
}

func (r dutyRow) record() duty.Record {
	return duty.Record{
		CohortID:    r.CohortID,
		Date:        core.Midnight(r.Date),
		AssigneeIDs: r.AssigneeIDs,
		AssignedBy:  r.AssignedBy.String,
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

const dutySelect = `SELECT d.cohort_id, d.date, d.assigned_by, d.updated_at,
		ARRAY_AGG(a.student_id::text ORDER BY a.student_id::text COLLATE "C") AS assignee_ids
	FROM duty_record d
	JOIN duty_assignee a ON a.cohort_id = d.cohort_id AND a.date = d.date`

const dutyGroupBy = ` GROUP BY d.cohort_id, d.date, d.assigned_by, d.updated_at`

type dutyRepository struct {
	db *sqlx.DB
}

var _ duty.Repository = (*dutyRepository)(nil) // interface compliance check

func NewDutyRepository(db *sqlx.DB) duty.Repository {
	return &dutyRepository{db: db}
}

// ReplaceDuty swaps the whole assignee set of (cohort, date) in one transaction.
func (repo *dutyRepository) ReplaceDuty(ctx context.Context, rec duty.Record) error {
	date := core.FormatDate(rec.Date)
	return inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO duty_record (cohort_id, date, assigned_by, updated_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (cohort_id, date) DO UPDATE SET assigned_by = EXCLUDED.assigned_by, updated_at = EXCLUDED.updated_at`
		assignedBy := null.NewString(rec.AssignedBy, rec.AssignedBy != "")
		if _, err := tx.ExecContext(ctx, q, rec.CohortID, date, assignedBy, rec.UpdatedAt.UTC()); err != nil {
			return errors.Wrap(err, "upserting duty record")
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM duty_assignee WHERE cohort_id = $1 AND date = $2`, rec.CohortID, date); err != nil {
			return errors.Wrap(err, "clearing duty assignees")
		}

		q = `INSERT INTO duty_assignee (cohort_id, date, student_id)
			SELECT $1, $2, UNNEST($3::uuid[])`
		if _, err := tx.ExecContext(ctx, q, rec.CohortID, date, pq.Array(rec.AssigneeIDs)); err != nil {
			return errors.Wrap(err, "inserting duty assignees")
		}
		return nil
	})
}

func (repo *dutyRepository) GetDuty(ctx context.Context, cohortID string, date time.Time) (duty.Record, error) {
	if _, err := uuid.Parse(cohortID); err != nil {
		return duty.Record{}, duty.ErrNotFound
	}
	var row dutyRow
	q := dutySelect + ` WHERE d.cohort_id = $1 AND d.date = $2` + dutyGroupBy
	if err := repo.db.GetContext(ctx, &row, q, cohortID, core.FormatDate(date)); err != nil {
		return duty.Record{}, trapNoRowsErr(err, duty.ErrNotFound, "finding duty")
	}
	return row.record(), nil
}

func (repo *dutyRepository) QueryDuties(ctx context.Context, cohortID string, from, to time.Time) ([]duty.Record, error) {
	if _, err := uuid.Parse(cohortID); err != nil {
		return []duty.Record{}, nil
	}
	var rows []dutyRow
	q := dutySelect + ` WHERE d.cohort_id = $1 AND d.date BETWEEN $2 AND $3` + dutyGroupBy + ` ORDER BY d.date`
	if err := repo.db.SelectContext(ctx, &rows, q, cohortID, core.FormatDate(from), core.FormatDate(to)); err != nil {
		return nil, errors.Wrap(err, "querying duties")
	}
	recs := make([]duty.Record, 0, len(rows))
	for _, r := range rows {
		recs = append(recs, r.record())
	}
	return recs, nil
}
