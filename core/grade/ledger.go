package grade

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var errScoreRange = errors.New("score must be between 0 and 100")

type (
	Repository interface {
		// UpsertGrades creates or overwrites every record (score, feedback & graded_by) in a single transaction.
		// Either all records are stored or none is.
		UpsertGrades(ctx context.Context, records []Record) error
		// QueryGrades returns the matching records, labelled, ordered by course code then student name.
		QueryGrades(ctx context.Context, filter QueryFilter) ([]Record, error)
	}

	// Ledger keeps one Record per (student, course). Writes are idempotent upserts.
	Ledger struct {
		repo Repository
	}
)

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// ValidScore reports whether score is a finite number within [MinScore, MaxScore].
func ValidScore(score float64) bool {
	return !math.IsNaN(score) && score >= MinScore && score <= MaxScore
}

// Upsert creates or overwrites the grade of studentID for courseID.
func (l *Ledger) Upsert(ctx context.Context, studentID, courseID string, score float64, feedback, gradedBy string) error {
	return l.UpsertBatch(ctx, []Record{{
		StudentID: studentID,
		CourseID:  courseID,
		Score:     score,
		Feedback:  feedback,
		GradedBy:  gradedBy,
	}})
}

// UpsertBatch creates or overwrites all records atomically.
func (l *Ledger) UpsertBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	now := core.NowFunc().UTC()
	batch := make([]Record, 0, len(records))
	for _, r := range records {
		if !ValidScore(r.Score) {
			return core.NewValidationError(errScoreRange, core.FieldError{Field: "score", Error: errScoreRange.Error()})
		}
		r.Feedback = core.CleanString(r.Feedback)
		r.CreatedAt = now
		r.UpdatedAt = now
		batch = append(batch, r)
	}
	if err := l.repo.UpsertGrades(ctx, batch); err != nil {
		return core.NewStoreError(err, "upserting grades")
	}
	return nil
}

// GetByCourse returns the grades of a course.
func (l *Ledger) GetByCourse(ctx context.Context, courseID string) ([]Record, error) {
	records, err := l.repo.QueryGrades(ctx, QueryFilter{CourseID: courseID})
	return records, errors.Wrap(err, "querying grades")
}

// GetByStudent returns the grades of a student, ordered by course code.
func (l *Ledger) GetByStudent(ctx context.Context, studentID string) ([]Record, error) {
	records, err := l.repo.QueryGrades(ctx, QueryFilter{StudentID: studentID})
	return records, errors.Wrap(err, "querying grades")
}
