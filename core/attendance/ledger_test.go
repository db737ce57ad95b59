package attendance_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	. "github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/tests"
)

func TestLedger_Upsert_isIdempotent(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	day := testutil.Date(2024, 3, 4)

	require.NoError(t, env.Attendance.Upsert(ctx, "s1", "c1", day, StatusAbsent, "m1"))
	require.NoError(t, env.Attendance.Upsert(ctx, "s1", "c1", day, StatusAbsent, "m1"))

	recs, err := env.Attendance.GetByScope(ctx, "c1", day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusAbsent, recs[0].Status)

	// a different time of the same day addresses the same record
	require.NoError(t, env.Attendance.Upsert(ctx, "s1", "c1", day.Add(15*time.Hour), StatusPresent, "m2"))

	recs, err = env.Attendance.GetByScope(ctx, "c1", day)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, StatusPresent, recs[0].Status)
	assert.Equal(t, "m2", recs[0].RecordedBy)
	assert.Equal(t, day, recs[0].Date)
}

func TestLedger_UpsertBatch(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	day := testutil.Date(2024, 3, 4)

	tests := []struct {
		name    string
		batch   []Record
		wantErr bool
		want    map[string]Status
	}{
		{
			name: "creates",
			batch: []Record{
				{StudentID: "s1", CourseID: "c1", Date: day, Status: StatusPresent},
				{StudentID: "s2", CourseID: "c1", Date: day, Status: StatusLate},
			},
			want: map[string]Status{"s1": StatusPresent, "s2": StatusLate},
		},
		{
			name: "overwrites & creates",
			batch: []Record{
				{StudentID: "s2", CourseID: "c1", Date: day, Status: StatusAbsent},
				{StudentID: "s3", CourseID: "c1", Date: day, Status: StatusPresent},
			},
			want: map[string]Status{"s1": StatusPresent, "s2": StatusAbsent, "s3": StatusPresent},
		},
		{
			name: "invalid status rejects the whole batch",
			batch: []Record{
				{StudentID: "s1", CourseID: "c1", Date: day, Status: StatusAbsent},
				{StudentID: "s4", CourseID: "c1", Date: day, Status: "SICK"},
			},
			wantErr: true,
			want:    map[string]Status{"s1": StatusPresent, "s2": StatusAbsent, "s3": StatusPresent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := env.Attendance.UpsertBatch(ctx, tt.batch)
			if tt.wantErr {
				var verr *core.ValidationError
				assert.True(t, errors.As(err, &verr))
			} else {
				assert.NoError(t, err)
			}

			recs, err := env.Attendance.GetByScope(ctx, "c1", day)
			require.NoError(t, err)
			got := make(map[string]Status, len(recs))
			for _, r := range recs {
				got[r.StudentID] = r.Status
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLedger_UpsertBatch_storeFailure(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	day := testutil.Date(2024, 3, 4)

	env.DB.FailWrites(errors.New("connection reset"))
	err := env.Attendance.Upsert(ctx, "s1", "c1", day, StatusPresent, "m1")
	assert.True(t, core.IsStoreError(err))

	env.DB.FailWrites(nil)
	recs, err := env.Attendance.GetByScope(ctx, "c1", day)
	require.NoError(t, err)
	assert.Empty(t, recs)

	// retrying is safe
	assert.NoError(t, env.Attendance.Upsert(ctx, "s1", "c1", day, StatusPresent, "m1"))
}

func TestLedger_GetByStudent(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	require.NoError(t, env.Attendance.UpsertBatch(ctx, []Record{
		{StudentID: "s1", CourseID: "c1", Date: testutil.Date(2024, 3, 4), Status: StatusPresent},
		{StudentID: "s1", CourseID: "c1", Date: testutil.Date(2024, 3, 11), Status: StatusAbsent},
		{StudentID: "s1", CourseID: "c2", Date: testutil.Date(2024, 3, 11), Status: StatusLate},
		{StudentID: "s1", CourseID: "c2", Date: testutil.Date(2024, 3, 18), Status: StatusPresent},
		{StudentID: "s2", CourseID: "c1", Date: testutil.Date(2024, 3, 4), Status: StatusAbsent},
	}))

	stats, err := env.Attendance.GetByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, Stats{Present: 2, Absent: 1, Late: 1}, stats)
	assert.Equal(t, 4, stats.Total())

	stats, err = env.Attendance.GetByStudent(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestLedger_Latest(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	_, _, ok, err := env.Attendance.Latest(ctx, "c1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, env.Attendance.UpsertBatch(ctx, []Record{
		{StudentID: "s1", CourseID: "c1", Date: testutil.Date(2024, 3, 4), Status: StatusPresent},
		{StudentID: "s1", CourseID: "c1", Date: testutil.Date(2024, 3, 11), Status: StatusAbsent},
		{StudentID: "s2", CourseID: "c1", Date: testutil.Date(2024, 3, 11), Status: StatusLate},
		{StudentID: "s1", CourseID: "c2", Date: testutil.Date(2024, 3, 18), Status: StatusPresent},
	}))

	date, recs, ok, err := env.Attendance.Latest(ctx, "c1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testutil.Date(2024, 3, 11), date)
	assert.Len(t, recs, 2)
}

func TestKey_String(t *testing.T) {
	k := NewKey("s1", "c1", time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC))
	assert.Equal(t, "s1|c1|2024-03-04", k.String())
}

func TestParseStatus(t *testing.T) {
	st, ok := ParseStatus(" late ")
	assert.True(t, ok)
	assert.Equal(t, StatusLate, st)

	_, ok = ParseStatus("excused")
	assert.False(t, ok)
}
