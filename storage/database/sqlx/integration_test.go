//go:build integration

package sqlxrepos_test

import (
	"context"
	"fmt"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/duty"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database"
	"github.com/trezcool/darasa/storage/database/sqlx"
	"github.com/trezcool/darasa/tests"
)

// Runs against the database configured through the usual environment (ENV=TEST, TEST_DATABASE_HOST...),
// on a dedicated "<name>_test" database:
//
//	go test -tags integration ./storage/database/sqlx/...
var testDB *sqlx.DB

func TestMain(m *testing.M) {
	conf := core.NewConfig()
	conf.Database.Name += "_test"
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	if err = database.CreateIfNotExist(ctx, conf); err == nil {
		if testDB, err = database.Open(conf); err == nil {
			if err = database.Ping(ctx, testDB); err == nil {
				err = database.Migrate(testDB.DB, "up")
			}
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "setting up test database: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()
	_ = testDB.Close()
	os.Exit(code)
}

type fixture struct {
	users    user.Repository
	cohorts  cohort.Repository
	cohort   cohort.Cohort
	course   cohort.Course
	students []user.User
}

// setup creates a fresh cohort with one course and three students; names are unique per call.
func setup(t *testing.T) fixture {
	t.Helper()
	suffix := uuid.New().String()[:8]
	f := fixture{
		users:   sqlxrepos.NewUserRepository(testDB),
		cohorts: sqlxrepos.NewCohortRepository(testDB),
	}
	start, end := testutil.Date(2024, 3, 1), testutil.Date(2024, 7, 1)
	f.cohort = testutil.CreateCohort(t, f.cohorts, "Spring "+suffix, start, &end)
	f.course = testutil.CreateCourse(t, f.cohorts, "Chinese 101", "CHN"+suffix, f.cohort.ID, "", start, end, time.Monday, "08:30", "10:00")
	for _, name := range []string{"Ann", "Bob", "Cid"} {
		f.students = append(f.students, testutil.CreateStudent(t, f.users, name+" "+suffix, f.cohort.ID, false))
	}
	return f
}

func TestAttendanceRepository_UpsertAttendance(t *testing.T) {
	f := setup(t)
	repo := sqlxrepos.NewAttendanceRepository(testDB)
	ctx := context.Background()
	d := testutil.Date(2024, 3, 4)
	now := time.Now().UTC()
	rec := func(studentID string, st attendance.Status) attendance.Record {
		return attendance.Record{
			StudentID: studentID, CourseID: f.course.ID, Date: d, Status: st,
			RecordedBy: f.students[0].ID, CreatedAt: now, UpdatedAt: now,
		}
	}
	ann, bob := f.students[0].ID, f.students[1].ID

	t.Run("overwrites by natural key", func(t *testing.T) {
		require.NoError(t, repo.UpsertAttendance(ctx, []attendance.Record{
			rec(ann, attendance.StatusPresent),
			rec(bob, attendance.StatusPresent),
		}))
		require.NoError(t, repo.UpsertAttendance(ctx, []attendance.Record{
			rec(ann, attendance.StatusLate),
			rec(ann, attendance.StatusAbsent), // last one in the batch wins
		}))

		got, err := repo.QueryAttendance(ctx, attendance.QueryFilter{CourseID: f.course.ID})
		require.NoError(t, err)
		statuses := make(map[string]attendance.Status, len(got))
		for _, r := range got {
			statuses[r.StudentID] = r.Status
		}
		assert.Len(t, got, 2)
		assert.Equal(t, map[string]attendance.Status{ann: attendance.StatusAbsent, bob: attendance.StatusPresent}, statuses)
	})

	t.Run("rolls back the whole batch", func(t *testing.T) {
		tests := []struct {
			name string
			bad  attendance.Record
		}{
			{name: "invalid status", bad: rec(bob, "MAYBE")},
			{name: "unknown student", bad: rec(uuid.New().String(), attendance.StatusLate)},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				err := repo.UpsertAttendance(ctx, []attendance.Record{
					rec(f.students[2].ID, attendance.StatusPresent),
					rec(bob, attendance.StatusAbsent),
					tc.bad,
				})
				require.Error(t, err)

				got, err := repo.QueryAttendance(ctx, attendance.QueryFilter{CourseID: f.course.ID})
				require.NoError(t, err)
				assert.Len(t, got, 2)
				for _, r := range got {
					assert.NotEqual(t, f.students[2].ID, r.StudentID)
					if r.StudentID == bob {
						assert.Equal(t, attendance.StatusPresent, r.Status)
					}
				}
			})
		}
	})
}

func TestDutyRepository_ReplaceDuty(t *testing.T) {
	f := setup(t)
	repo := sqlxrepos.NewDutyRepository(testDB)
	ctx := context.Background()
	d := testutil.Date(2024, 3, 4)
	ann, bob, cid := f.students[0].ID, f.students[1].ID, f.students[2].ID
	replace := func(ids ...string) error {
		sorted := append([]string(nil), ids...)
		sort.Strings(sorted)
		return repo.ReplaceDuty(ctx, duty.Record{
			CohortID: f.cohort.ID, Date: d, AssigneeIDs: sorted, AssignedBy: ann, UpdatedAt: time.Now().UTC(),
		})
	}
	assignees := func() []string {
		rec, err := repo.GetDuty(ctx, f.cohort.ID, d)
		require.NoError(t, err)
		return rec.AssigneeIDs
	}
	sorted := func(ids ...string) []string {
		sort.Strings(ids)
		return ids
	}

	require.NoError(t, replace(ann, bob))
	assert.Equal(t, sorted(ann, bob), assignees())

	require.NoError(t, replace(cid))
	assert.Equal(t, []string{cid}, assignees())

	// a failing replacement keeps the previous set
	require.Error(t, replace(bob, uuid.New().String()))
	assert.Equal(t, []string{cid}, assignees())

	_, err := repo.GetDuty(ctx, f.cohort.ID, d.AddDate(0, 0, 1))
	assert.Equal(t, duty.ErrNotFound, err)
}
