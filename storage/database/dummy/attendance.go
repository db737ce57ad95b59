package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/darasa/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertAttendance(_ context.Context, records []attendance.Record) error {
	if err := repo.db.writeErr(); err != nil {
		return err
	}

	repo.db.attendance.Lock()
	defer repo.db.attendance.Unlock()

	for _, r := range records {
		key := r.Key().String()
		if existing, ok := repo.db.attendance.table[key]; ok {
			existing.Status = r.Status
			existing.RecordedBy = r.RecordedBy
			existing.UpdatedAt = r.UpdatedAt
			continue
		}
		stored := r
		stored.StudentName = ""
		repo.db.attendance.table[key] = &stored
	}
	return nil
}

func (repo *attendanceRepository) QueryAttendance(_ context.Context, filter attendance.QueryFilter) ([]attendance.Record, error) {
	repo.db.attendance.RLock()
	records := make([]attendance.Record, 0)
	for _, r := range repo.db.attendance.table {
		if filter.Match(*r) {
			records = append(records, *r)
		}
	}
	repo.db.attendance.RUnlock()

	repo.db.user.RLock()
	for i := range records {
		if usr, ok := repo.db.user.table[records[i].StudentID]; ok {
			records[i].StudentName = usr.Name
		}
	}
	repo.db.user.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.CourseID != b.CourseID {
			return a.CourseID < b.CourseID
		}
		if a.StudentName != b.StudentName {
			return a.StudentName < b.StudentName
		}
		return a.StudentID < b.StudentID
	})
	return records, nil
}

func (repo *attendanceRepository) CountAttendanceByStatus(_ context.Context, studentID string) (map[attendance.Status]int, error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	counts := make(map[attendance.Status]int)
	for _, r := range repo.db.attendance.table {
		if r.StudentID == studentID {
			counts[r.Status]++
		}
	}
	return counts, nil
}

func (repo *attendanceRepository) LatestAttendanceDate(_ context.Context, courseID string) (time.Time, bool, error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	var latest time.Time
	var found bool
	for _, r := range repo.db.attendance.table {
		if r.CourseID == courseID && (!found || r.Date.After(latest)) {
			latest = r.Date
			found = true
		}
	}
	return latest, found, nil
}
