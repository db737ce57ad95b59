package dummydb

import (
	"sync"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/duty"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/user"
)

// DB is an in-memory store implementing every repository. It is meant for tests & local experiments.
type (
	DB struct {
		user       *userTable
		cohort     *cohortTable
		course     *courseTable
		attendance *attendanceTable
		duty       *dutyTable
		grade      *gradeTable

		failMu  sync.RWMutex
		failErr error
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	cohortTable struct {
		sync.RWMutex
		table map[string]*cohort.Cohort
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*cohort.Course
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record // key: attendance.Key.String()
	}

	dutyTable struct {
		sync.RWMutex
		table map[string]*duty.Record // key: duty.Key.String()
	}

	gradeTable struct {
		sync.RWMutex
		table map[string]*grade.Record // key: grade.Key.String()
	}
)

func Open() *DB {
	return &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		cohort:     &cohortTable{table: make(map[string]*cohort.Cohort)},
		course:     &courseTable{table: make(map[string]*cohort.Course)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		duty:       &dutyTable{table: make(map[string]*duty.Record)},
		grade:      &gradeTable{table: make(map[string]*grade.Record)},
	}
}

// FailWrites makes every following ledger write fail with err, without touching the data. nil restores writes.
func (db *DB) FailWrites(err error) {
	db.failMu.Lock()
	defer db.failMu.Unlock()
	db.failErr = err
}

func (db *DB) writeErr() error {
	db.failMu.RLock()
	defer db.failMu.RUnlock()
	return db.failErr
}

// Reset drops all data.
func (db *DB) Reset() {
	db.user.Lock()
	db.user.table = make(map[string]*user.User)
	db.user.Unlock()

	db.cohort.Lock()
	db.cohort.table = make(map[string]*cohort.Cohort)
	db.cohort.Unlock()

	db.course.Lock()
	db.course.table = make(map[string]*cohort.Course)
	db.course.Unlock()

	db.attendance.Lock()
	db.attendance.table = make(map[string]*attendance.Record)
	db.attendance.Unlock()

	db.duty.Lock()
	db.duty.table = make(map[string]*duty.Record)
	db.duty.Unlock()

	db.grade.Lock()
	db.grade.table = make(map[string]*grade.Record)
	db.grade.Unlock()

	db.FailWrites(nil)
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return nil
	}
	out := make([]string, len(ss))
	copy(out, ss)
	return out
}
