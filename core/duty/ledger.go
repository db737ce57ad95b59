package duty

import (
	"context"
	"errors"
	"sort"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

var (
	// errors
	ErrNotFound = errors.New("no duty assigned")

	errNoAssignees = errors.New("at least one student must be on duty")
)

type (
	Repository interface {
		// ReplaceDuty stores rec, replacing the whole assignee set of its (cohort, date), in a single transaction.
		ReplaceDuty(ctx context.Context, rec Record) error
		// GetDuty returns ErrNotFound when nothing is assigned.
		GetDuty(ctx context.Context, cohortID string, date time.Time) (Record, error)
		// QueryDuties returns the records of [from, to] (both inclusive) in ascending date order.
		QueryDuties(ctx context.Context, cohortID string, from, to time.Time) ([]Record, error)
	}

	// Ledger keeps one Record per (cohort, date). Assignments replace the previous set wholesale.
	Ledger struct {
		repo Repository
	}
)

func NewLedger(repo Repository) *Ledger {
	return &Ledger{repo: repo}
}

// Assign replaces the students on duty for cohortID on date. assigneeIDs must not be empty.
// Membership of the assignees is the caller's concern.
func (l *Ledger) Assign(ctx context.Context, cohortID string, date time.Time, assigneeIDs []string, assignedBy string) (Record, error) {
	ids := core.CleanIDs(assigneeIDs)
	if len(ids) == 0 {
		return Record{}, core.NewValidationError(errNoAssignees, core.FieldError{Field: "assignee_ids", Error: errNoAssignees.Error()})
	}
	sort.Strings(ids)

	rec := Record{
		CohortID:    cohortID,
		Date:        core.Midnight(date),
		AssigneeIDs: ids,
		AssignedBy:  assignedBy,
		UpdatedAt:   core.NowFunc().UTC(),
	}
	if err := l.repo.ReplaceDuty(ctx, rec); err != nil {
		return Record{}, core.NewStoreError(err, "replacing duty")
	}
	return rec, nil
}

// GetForDate returns the students on duty for cohortID on date; ok is false when none is assigned.
func (l *Ledger) GetForDate(ctx context.Context, cohortID string, date time.Time) (rec Record, ok bool, err error) {
	rec, err = l.repo.GetDuty(ctx, cohortID, core.Midnight(date))
	if err != nil {
		if err == ErrNotFound {
			return Record{}, false, nil
		}
		return Record{}, false, pkgerrors.Wrap(err, "getting duty")
	}
	return rec, true, nil
}

// GetForRange returns the records of [start, end] (both inclusive) in ascending date order.
func (l *Ledger) GetForRange(ctx context.Context, cohortID string, start, end time.Time) ([]Record, error) {
	from, to := core.Midnight(start), core.Midnight(end)
	if from.After(to) {
		return nil, nil
	}
	recs, err := l.repo.QueryDuties(ctx, cohortID, from, to)
	return recs, pkgerrors.Wrap(err, "querying duties")
}
