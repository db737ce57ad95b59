package cohort_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	. "github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/tests"
)

func intPtr(i int) *int { return &i }

func fieldErrors(t *testing.T, err error) map[string]string {
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr), err)
	flds := make(map[string]string, len(verr.Fields))
	for _, f := range verr.Fields {
		flds[f.Field] = f.Error
	}
	return flds
}

func TestService_CreateCohort(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	tests := []struct {
		name      string
		in        NewCohort
		wantField string
	}{
		{name: "missing start", in: NewCohort{Name: "Spring"}, wantField: "start_date"},
		{name: "unparsable start", in: NewCohort{Name: "Spring", StartDate: "01/03/2024"}, wantField: "start_date"},
		{name: "unparsable end", in: NewCohort{Name: "Spring", StartDate: "2024-03-01", EndDate: "2024-13-01"}, wantField: "end_date"},
		{name: "end before start", in: NewCohort{Name: "Spring", StartDate: "2024-03-01", EndDate: "2024-02-01"}, wantField: "end_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Cohorts.CreateCohort(ctx, tt.in)
			assert.Contains(t, fieldErrors(t, err), tt.wantField)
		})
	}

	cohorts, err := env.Cohorts.QueryCohorts(ctx)
	require.NoError(t, err)
	assert.Empty(t, cohorts)

	k, err := env.Cohorts.CreateCohort(ctx, NewCohort{Name: "Spring", StartDate: "2024-03-01"})
	require.NoError(t, err)
	assert.Equal(t, testutil.Date(2024, 3, 1), k.StartDate)
	assert.Nil(t, k.EndDate)
}

func TestService_CreateCourse_defaults(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	closed := testutil.CreateCohort(t, env.CohortRepo, "2024 Spring", testutil.Date(2024, 3, 1), testutil.DatePtr(2024, 7, 1))
	open := testutil.CreateCohort(t, env.CohortRepo, "2024 Autumn", testutil.Date(2024, 9, 1), nil)
	teacher := testutil.CreateUser(t, env.UserRepo, "Tess Teacher", "tess@test.cd", "", []string{user.RoleTeacher}, true)

	tests := []struct {
		name      string
		in        CourseInput
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "cohort dates",
			in:        CourseInput{Name: "Chinese 101", Code: "CHN101", CohortID: closed.ID, InstructorID: teacher.ID},
			wantStart: testutil.Date(2024, 3, 1),
			wantEnd:   testutil.Date(2024, 7, 1),
		},
		{
			name:      "default term length",
			in:        CourseInput{Name: "Chinese 201", Code: "CHN201", CohortID: open.ID},
			wantStart: testutil.Date(2024, 9, 1),
			wantEnd:   testutil.Date(2024, 9, 1).Add(180 * 24 * time.Hour),
		},
		{
			name:      "explicit dates",
			in:        CourseInput{Name: "Calligraphy", Code: "CAL1", CohortID: closed.ID, StartDate: "2024-04-01", EndDate: "2024-05-01"},
			wantStart: testutil.Date(2024, 4, 1),
			wantEnd:   testutil.Date(2024, 5, 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			require.NoError(t, in.Validate(env.Validate))
			c, err := env.Cohorts.CreateCourse(ctx, in)
			require.NoError(t, err)
			require.NotNil(t, c.StartDate)
			require.NotNil(t, c.EndDate)
			assert.Equal(t, tt.wantStart, *c.StartDate)
			assert.Equal(t, tt.wantEnd, *c.EndDate)
			assert.Equal(t, DefaultCredits, c.Credits)
			assert.NotEmpty(t, c.CohortName)
		})
	}
}

func TestService_CreateCourse_rejections(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	k := testutil.CreateCohort(t, env.CohortRepo, "2024 Spring", testutil.Date(2024, 3, 1), testutil.DatePtr(2024, 7, 1))
	student := testutil.CreateStudent(t, env.UserRepo, "Sam", k.ID, false)
	_, err := env.Cohorts.CreateCourse(ctx, CourseInput{Name: "Chinese 101", Code: "CHN101", CohortID: k.ID})
	require.NoError(t, err)

	tests := []struct {
		name      string
		in        CourseInput
		wantField string
	}{
		{name: "duplicate code", in: CourseInput{Name: "Other", Code: "chn101", CohortID: k.ID}, wantField: "code"},
		{name: "unknown cohort", in: CourseInput{Name: "Other", Code: "X1", CohortID: "nope"}, wantField: "cohort_id"},
		{name: "student instructor", in: CourseInput{Name: "Other", Code: "X2", CohortID: k.ID, InstructorID: student.ID}, wantField: "instructor_id"},
		{name: "end before start", in: CourseInput{Name: "Other", Code: "X3", CohortID: k.ID, StartDate: "2024-07-02"}, wantField: "end_date"},
		{name: "unparsable start", in: CourseInput{Name: "Other", Code: "X4", CohortID: k.ID, StartDate: "01/04/2024"}, wantField: "start_date"},
		{name: "unparsable end", in: CourseInput{Name: "Other", Code: "X5", CohortID: k.ID, EndDate: "2024-02-30"}, wantField: "end_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Cohorts.CreateCourse(ctx, tt.in)
			assert.Contains(t, fieldErrors(t, err), tt.wantField)
		})
	}
}

func TestService_UpdateCourse(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	k := testutil.CreateCohort(t, env.CohortRepo, "2024 Spring", testutil.Date(2024, 3, 1), testutil.DatePtr(2024, 7, 1))
	c1, err := env.Cohorts.CreateCourse(ctx, CourseInput{Name: "Chinese 101", Code: "CHN101", CohortID: k.ID, StartDate: "2024-04-01"})
	require.NoError(t, err)
	_, err = env.Cohorts.CreateCourse(ctx, CourseInput{Name: "Chinese 102", Code: "CHN102", CohortID: k.ID})
	require.NoError(t, err)

	// same code is fine for the course itself
	upd, err := env.Cohorts.UpdateCourse(ctx, c1.ID, CourseInput{
		Name: "Chinese 101 (A)", Code: "CHN101", CohortID: k.ID, DayOfWeek: intPtr(1), StartTime: "08:30", EndTime: "10:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "Chinese 101 (A)", upd.Name)
	assert.Equal(t, testutil.Date(2024, 4, 1), *upd.StartDate, "omitted dates are kept")
	assert.Equal(t, 1, *upd.DayOfWeek)

	_, err = env.Cohorts.UpdateCourse(ctx, c1.ID, CourseInput{Name: "Chinese 101", Code: "CHN102", CohortID: k.ID})
	assert.Contains(t, fieldErrors(t, err), "code")

	_, err = env.Cohorts.UpdateCourse(ctx, "nope", CourseInput{Name: "X", Code: "X", CohortID: k.ID})
	assert.Equal(t, ErrCourseNotFound, err)
}

func TestCourseInput_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name      string
		in        CourseInput
		wantField string
	}{
		{name: "valid", in: CourseInput{Name: "A", Code: "A", CohortID: "k", DayOfWeek: intPtr(0), StartTime: "8:30", EndTime: "10:00"}},
		{name: "weekday too big", in: CourseInput{Name: "A", Code: "A", CohortID: "k", DayOfWeek: intPtr(7)}, wantField: "day_of_week"},
		{name: "negative weekday", in: CourseInput{Name: "A", Code: "A", CohortID: "k", DayOfWeek: intPtr(-1)}, wantField: "day_of_week"},
		{name: "end time before start", in: CourseInput{Name: "A", Code: "A", CohortID: "k", StartTime: "10:00", EndTime: "09:00"}, wantField: "end_time"},
		{name: "end date before start", in: CourseInput{Name: "A", Code: "A", CohortID: "k", StartDate: "2024-03-02", EndDate: "2024-03-01"}, wantField: "end_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := tt.in
			err := in.Validate(validate)
			if tt.wantField == "" {
				assert.NoError(t, err)
				assert.Equal(t, "08:30", in.StartTime)
				return
			}
			assert.Contains(t, fieldErrors(t, err), tt.wantField)
		})
	}

	bad := CourseInput{Name: "A", Code: "A", CohortID: "k", StartTime: "8h30"}
	assert.Error(t, bad.Validate(validate))
}

func TestService_Members(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	k := testutil.CreateCohort(t, env.CohortRepo, "2024 Spring", testutil.Date(2024, 3, 1), nil)
	testutil.CreateStudent(t, env.UserRepo, "Bob", k.ID, false)
	testutil.CreateStudent(t, env.UserRepo, "Ann", k.ID, true)
	testutil.CreateStudent(t, env.UserRepo, "Zed", "other", false)
	testutil.CreateUser(t, env.UserRepo, "Inactive", "inactive@test.cd", "", []string{user.RoleStudent}, false)

	members, err := env.Cohorts.Members(ctx, k.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "Ann", members[0].Name)
	assert.True(t, members[0].IsMonitor)
	assert.Equal(t, "Bob", members[1].Name)
}
