package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/darasa/core/duty"
)

type dutyRepository struct {
	db *DB
}

var _ duty.Repository = (*dutyRepository)(nil) // interface compliance check

func NewDutyRepository(db *DB) duty.Repository {
	return &dutyRepository{db: db}
}

func cloneDuty(r *duty.Record) duty.Record {
	rec := *r
	rec.AssigneeIDs = copyStrings(r.AssigneeIDs)
	rec.AssigneeNames = nil
	return rec
}

func (repo *dutyRepository) ReplaceDuty(_ context.Context, rec duty.Record) error {
	if err := repo.db.writeErr(); err != nil {
		return err
	}

	repo.db.duty.Lock()
	defer repo.db.duty.Unlock()

	stored := cloneDuty(&rec)
	repo.db.duty.table[rec.Key().String()] = &stored
	return nil
}

func (repo *dutyRepository) GetDuty(_ context.Context, cohortID string, date time.Time) (duty.Record, error) {
	repo.db.duty.RLock()
	defer repo.db.duty.RUnlock()

	if rec, ok := repo.db.duty.table[duty.NewKey(cohortID, date).String()]; ok {
		return cloneDuty(rec), nil
	}
	return duty.Record{}, duty.ErrNotFound
}

func (repo *dutyRepository) QueryDuties(_ context.Context, cohortID string, from, to time.Time) ([]duty.Record, error) {
	repo.db.duty.RLock()
	defer repo.db.duty.RUnlock()

	recs := make([]duty.Record, 0)
	for _, rec := range repo.db.duty.table {
		if rec.CohortID == cohortID && !rec.Date.Before(from) && !rec.Date.After(to) {
			recs = append(recs, cloneDuty(rec))
		}
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	return recs, nil
}
