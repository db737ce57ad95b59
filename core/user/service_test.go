package user_test

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	. "github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/tests"
)

const (
	pwd     = "Passw0rd!"
	cohortA = "3f1f7a3c-5b7e-4a55-9c2d-0b8a1f5e2a01"
	cohortB = "3f1f7a3c-5b7e-4a55-9c2d-0b8a1f5e2a02"
)

func newUser(name, email string, roles []string, cohortID string, monitor bool) NewUser {
	return NewUser{
		Name:            name,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           roles,
		CohortID:        cohortID,
		IsMonitor:       monitor,
	}
}

func isFieldError(err error, field string) bool {
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		return false
	}
	for _, f := range verr.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

func TestService_Create(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	nu := newUser("Li Wei", " Li.Wei@Test.cd ", []string{RoleStudent}, cohortA, true)
	require.NoError(t, nu.Validate(env.Validate, env.Users))

	usr, err := env.Users.Create(ctx, nu)
	require.NoError(t, err)
	assert.Equal(t, "li.wei@test.cd", usr.Email)
	assert.True(t, usr.IsActive)
	assert.True(t, usr.IsMonitor)
	assert.NoError(t, usr.CheckPassword(pwd))

	got, err := env.Users.GetByEmail(ctx, "LI.WEI@test.cd")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	dup := newUser("Other", "li.wei@test.cd", nil, "", false)
	err = dup.Validate(env.Validate, env.Users)
	assert.True(t, isFieldError(err, "email"), err)
}

func TestService_Create_monitorRules(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	_, err := env.Users.Create(ctx, newUser("Mona", "mona@test.cd", []string{RoleStudent}, cohortA, true))
	require.NoError(t, err)

	tests := []struct {
		name string
		nu   NewUser
	}{
		{name: "second monitor of a cohort", nu: newUser("Max", "max@test.cd", []string{RoleStudent}, cohortA, true)},
		{name: "teacher monitor", nu: newUser("Tess", "tess@test.cd", []string{RoleTeacher}, cohortA, true)},
		{name: "monitor without cohort", nu: newUser("Nina", "nina@test.cd", []string{RoleStudent}, "", true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Users.Create(ctx, tt.nu)
			assert.True(t, isFieldError(err, "is_monitor"), err)
		})
	}

	// another cohort may have its own monitor
	_, err = env.Users.Create(ctx, newUser("Bea", "bea@test.cd", []string{RoleStudent}, cohortB, true))
	assert.NoError(t, err)
}

func TestService_Update(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	mona, err := env.Users.Create(ctx, newUser("Mona", "mona@test.cd", []string{RoleStudent}, cohortA, true))
	require.NoError(t, err)
	sam, err := env.Users.Create(ctx, newUser("Sam", "sam@test.cd", []string{RoleStudent}, cohortA, false))
	require.NoError(t, err)

	yes, no := true, false

	// the seat is taken
	_, err = env.Users.Update(ctx, sam, UpdateUser{Name: sam.Name, Email: sam.Email, IsMonitor: &yes})
	assert.True(t, isFieldError(err, "is_monitor"), err)

	// hand the seat over
	mona, err = env.Users.Update(ctx, mona, UpdateUser{Name: mona.Name, Email: mona.Email, IsMonitor: &no})
	require.NoError(t, err)
	assert.False(t, mona.IsMonitor)
	sam, err = env.Users.Update(ctx, sam, UpdateUser{Name: sam.Name, Email: sam.Email, IsMonitor: &yes})
	require.NoError(t, err)
	assert.True(t, sam.IsMonitor)

	// leaving the student role drops the flag
	sam, err = env.Users.Update(ctx, sam, UpdateUser{Name: sam.Name, Email: sam.Email, Roles: []string{RoleTeacher}})
	require.NoError(t, err)
	assert.False(t, sam.IsMonitor)

	uu := UpdateUser{Password: "N3w-Secret!", PasswordConfirm: "N3w-Secret!"}
	require.NoError(t, uu.Validate(mona, env.Validate, env.Users))
	mona, err = env.Users.Update(ctx, mona, uu)
	require.NoError(t, err)
	assert.Equal(t, "Mona", mona.Name)
	assert.NoError(t, mona.CheckPassword("N3w-Secret!"))
}

func TestService_CohortStudents(t *testing.T) {
	env := testutil.NewEnv()
	ctx := context.Background()

	testutil.CreateStudent(t, env.UserRepo, "Zhou", cohortA, false)
	testutil.CreateStudent(t, env.UserRepo, "Amir", cohortA, true)
	testutil.CreateStudent(t, env.UserRepo, "Other", cohortB, false)
	inactive := testutil.CreateStudent(t, env.UserRepo, "Gone", cohortA, false)
	no := false
	_, err := env.Users.Update(ctx, inactive, UpdateUser{Name: inactive.Name, Email: inactive.Email, IsActive: &no})
	require.NoError(t, err)

	students, err := env.Users.CohortStudents(ctx, cohortA)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Amir", students[0].Name)
	assert.Equal(t, "Zhou", students[1].Name)
}

func TestNewUser_Validate_password(t *testing.T) {
	env := testutil.NewEnv()

	tests := []struct {
		name    string
		pwd     string
		wantTag string
	}{
		{name: "valid", pwd: "Xy7#kq2!Lm"},
		{name: "too short", pwd: "Ab1!", wantTag: "pwdminlen"},
		{name: "whitespace", pwd: "Abc 123!xyz", wantTag: "pwdnospace"},
		{name: "all numeric", pwd: "1234567890", wantTag: "pwdnotallnum"},
		{name: "no special character", pwd: "Abcdef123", wantTag: "pwdcplx"},
		{name: "too similar to email", pwd: "Jean.Dupont@1", wantTag: "pwdtoosim"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{Name: "Jean Dupont", Email: "jean.dupont@test.cd", Password: tt.pwd, PasswordConfirm: tt.pwd}
			err := nu.Validate(env.Validate, env.Users)
			if tt.wantTag == "" {
				assert.NoError(t, err)
				return
			}
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs), err)
			assert.Equal(t, tt.wantTag, verrs[0].Tag())
			assert.Equal(t, "password", verrs[0].Field())
		})
	}
}

func TestNewUser_Validate_roles(t *testing.T) {
	env := testutil.NewEnv()

	nu := newUser("Jean Dupont", "jean@test.cd", []string{RoleStudent, "janitor:"}, "", false)
	err := nu.Validate(env.Validate, env.Users)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs), err)
	assert.Equal(t, "roles", verrs[0].Field())

	nu = newUser("Jean Dupont", "jean@test.cd", []string{RoleStudent}, "not-a-uuid", false)
	assert.Error(t, nu.Validate(env.Validate, env.Users))
}

func TestMaxRolePriority(t *testing.T) {
	assert.Equal(t, 30, MaxRolePriority([]string{RoleStudent, RoleAdminOwner}))
	assert.Equal(t, 11, MaxRolePriority([]string{RoleTeacher}))
	assert.Equal(t, 0, MaxRolePriority(nil))
}
