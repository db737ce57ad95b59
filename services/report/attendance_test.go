package reportsvc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/cohort"
	. "github.com/trezcool/darasa/services/report"
	"github.com/trezcool/darasa/tests"
)

func TestService_ExportAttendance(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()
	start, end := testutil.Date(2024, 3, 1), testutil.Date(2024, 7, 1)

	k := testutil.CreateCohort(t, env.CohortRepo, "Spring Chinese", start, &end)
	ann := testutil.CreateStudent(t, env.UserRepo, "Ann", k.ID, true)
	bob := testutil.CreateStudent(t, env.UserRepo, "Bob", k.ID, false)
	testutil.CreateStudent(t, env.UserRepo, "Cid", k.ID, false) // never recorded
	course := testutil.CreateCourse(t, env.CohortRepo, "Chinese 101", "CHN101", k.ID, "", start, end, time.Monday, "08:30", "10:00")

	d1, d2 := testutil.Date(2024, 3, 4), testutil.Date(2024, 3, 11)
	require.NoError(t, env.Attendance.UpsertBatch(ctx, []attendance.Record{
		{StudentID: ann.ID, CourseID: course.ID, Date: d1, Status: attendance.StatusPresent, RecordedBy: ann.ID},
		{StudentID: bob.ID, CourseID: course.ID, Date: d1, Status: attendance.StatusAbsent, RecordedBy: ann.ID},
		{StudentID: ann.ID, CourseID: course.ID, Date: d2, Status: attendance.StatusLate, RecordedBy: ann.ID},
		{StudentID: bob.ID, CourseID: course.ID, Date: d2, Status: attendance.StatusPresent, RecordedBy: ann.ID},
		{StudentID: bob.ID, CourseID: course.ID, Date: testutil.Date(2024, 3, 18), Status: attendance.StatusAbsent, RecordedBy: ann.ID}, // out of range
	}))

	svc := NewService(env.Cohorts, env.Attendance)
	buf, name, err := svc.ExportAttendance(ctx, course.ID, d1, d2)
	require.NoError(t, err)
	assert.Equal(t, "attendance_CHN101_2024-03-04_2024-03-11.xlsx", name)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows("Attendance")
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Student", "2024-03-04", "2024-03-11", "Present", "Absent", "Late"}, rows[1])
	assert.Equal(t, []string{"Ann", "P", "L", "1", "0", "1"}, rows[2])
	assert.Equal(t, []string{"Bob", "A", "P", "1", "1", "0"}, rows[3])
	assert.Equal(t, []string{"Cid", "", "", "0", "0", "0"}, rows[4])
}

func TestService_ExportAttendance_unknownCourse(t *testing.T) {
	env := testutil.NewEnv()
	svc := NewService(env.Cohorts, env.Attendance)

	_, _, err := svc.ExportAttendance(context.Background(), "nope", testutil.Date(2024, 3, 1), testutil.Date(2024, 3, 31))
	assert.Equal(t, cohort.ErrCourseNotFound, err)
}

func TestAttendanceSheet_formerMembers(t *testing.T) {
	sheet := AttendanceSheet{
		Course:  cohort.Course{ID: "c1", Name: "Chinese 101"},
		From:    testutil.Date(2024, 3, 4),
		To:      testutil.Date(2024, 3, 4),
		Members: []cohort.Member{{ID: "s1", Name: "Ann"}},
		Records: []attendance.Record{
			{StudentID: "gone", StudentName: "Zoe", Date: testutil.Date(2024, 3, 4), Status: attendance.StatusAbsent},
		},
	}
	assert.Equal(t, "attendance_c1_2024-03-04_2024-03-04.xlsx", sheet.Filename())

	buf, err := sheet.Workbook()
	require.NoError(t, err)
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	v, err := f.GetCellValue("Attendance", "A4")
	require.NoError(t, err)
	assert.Equal(t, "Zoe", v)
	v, err = f.GetCellValue("Attendance", "B4")
	require.NoError(t, err)
	assert.Equal(t, "A", v)
}

func TestAttendanceSheet_styles(t *testing.T) {
	d1, d2 := testutil.Date(2024, 3, 4), testutil.Date(2024, 3, 11)
	sheet := AttendanceSheet{
		Course:  cohort.Course{ID: "c1", Name: "Chinese 101", Code: "CHN101"},
		From:    d1,
		To:      d2,
		Members: []cohort.Member{{ID: "s1", Name: "Ann"}, {ID: "s2", Name: "Bob"}},
		Records: []attendance.Record{
			{StudentID: "s1", Date: d1, Status: attendance.StatusPresent},
			{StudentID: "s1", Date: d2, Status: attendance.StatusLate},
			{StudentID: "s2", Date: d1, Status: attendance.StatusAbsent},
		},
	}

	buf, err := sheet.Workbook()
	require.NoError(t, err)
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	styles := make(map[string]int)
	for _, c := range []string{"A1", "A2", "F2", "B3", "C3", "B4"} {
		id, err := f.GetCellStyle("Attendance", c)
		require.NoError(t, err)
		assert.NotZero(t, id, c)
		styles[c] = id
	}
	assert.Equal(t, styles["A2"], styles["F2"])
	assert.NotEqual(t, styles["B3"], styles["C3"])
	assert.NotEqual(t, styles["B3"], styles["B4"])
	assert.NotEqual(t, styles["C3"], styles["B4"])
}
