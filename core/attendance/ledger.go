package attendance

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var errInvalidStatus = errors.New("status must be one of PRESENT, ABSENT or LATE")

type (
	Repository interface {
		// UpsertAttendance creates or overwrites every record (status & recorded_by) in a single transaction.
		// Either all records are stored or none is.
		UpsertAttendance(ctx context.Context, records []Record) error
		// QueryAttendance returns the matching records ordered by date, course and student.
		QueryAttendance(ctx context.Context, filter QueryFilter) ([]Record, error)
		// CountAttendanceByStatus counts the student's records per status.
		CountAttendanceByStatus(ctx context.Context, studentID string) (map[Status]int, error)
		// LatestAttendanceDate returns the most recent date with records for the course, or false if none.
		LatestAttendanceDate(ctx context.Context, courseID string) (time.Time, bool, error)
	}

	// Ledger keeps one Record per (student, course, date). Writes are idempotent upserts.
	Ledger struct {
		repo Repository
	}
)

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Upsert creates or overwrites the record of studentID for courseID on date.
func (l *Ledger) Upsert(ctx context.Context, studentID, courseID string, date time.Time, status Status, recordedBy string) error {
	return l.UpsertBatch(ctx, []Record{{
		StudentID:  studentID,
		CourseID:   courseID,
		Date:       date,
		Status:     status,
		RecordedBy: recordedBy,
	}})
}

// UpsertBatch creates or overwrites all records atomically. Dates are normalized to their canonical midnight.
func (l *Ledger) UpsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	now := core.NowFunc().UTC()
	batch := make([]Record, 0, len(records))
	for _, r := range records {
		if _, ok := ParseStatus(string(r.Status)); !ok {
			return core.NewValidationError(errInvalidStatus, core.FieldError{Field: "status", Error: errInvalidStatus.Error()})
		}
		r.Date = core.Midnight(r.Date)
		r.CreatedAt = now
		r.UpdatedAt = now
		batch = append(batch, r)
	}
	if err := l.repo.UpsertAttendance(ctx, batch); err != nil {
		return core.NewStoreError(err, "upserting attendance")
	}
	return nil
}

// GetByScope returns the records of a course on a date.
func (l *Ledger) GetByScope(ctx context.Context, courseID string, date time.Time) ([]Record, error) {
	day := core.Midnight(date)
	records, err := l.repo.QueryAttendance(ctx, QueryFilter{CourseID: courseID, From: day, To: day})
	return records, errors.Wrap(err, "querying attendance")
}

// GetByStudent counts the student's records per status.
func (l *Ledger) GetByStudent(ctx context.Context, studentID string) (Stats, error) {
	counts, err := l.repo.CountAttendanceByStatus(ctx, studentID)
	if err != nil {
		return Stats{}, errors.Wrap(err, "counting attendance")
	}
	var stats Stats
	for st, n := range counts {
		stats.add(st, n)
	}
	return stats, nil
}

// Latest returns the date and records of the most recent recorded session of a course.
// ok is false when the course has no records.
func (l *Ledger) Latest(ctx context.Context, courseID string) (date time.Time, records []Record, ok bool, err error) {
	date, ok, err = l.repo.LatestAttendanceDate(ctx, courseID)
	if err != nil || !ok {
		return time.Time{}, nil, false, errors.Wrap(err, "finding latest attendance date")
	}
	records, err = l.GetByScope(ctx, courseID, date)
	if err != nil {
		return time.Time{}, nil, false, err
	}
	return date, records, true, nil
}

// Query returns the matching records.
func (l *Ledger) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	records, err := l.repo.QueryAttendance(ctx, filter)
	return records, errors.Wrap(err, "querying attendance")
}
