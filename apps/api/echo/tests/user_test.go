package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core/monitor"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/tests"
)

func Test_userApi_login(t *testing.T) {
	app, env := setup(t)
	pwd := "Sup3r!Secret"
	testutil.CreateUser(t, env.UserRepo, "Ann", "ann@test.cd", pwd, []string{user.RoleStudent}, true)
	testutil.CreateUser(t, env.UserRepo, "Gone", "gone@test.cd", pwd, []string{user.RoleStudent}, false)

	authFailed := httpErr{Error: "authentication failed"}

	tests := []httpTest{
		{
			name:     "required fields",
			body:     marchallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": "this field is required", "password": "this field is required"}),
		},
		{
			name:     "unknown email",
			body:     marchallObj(t, LoginRequest{Email: "bob@test.cd", Password: pwd}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, authFailed),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Email: "ann@test.cd", Password: "wrong"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, authFailed),
		},
		{
			name:     "deactivated account",
			body:     marchallObj(t, LoginRequest{Email: "gone@test.cd", Password: pwd}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/users/login", tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("success", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/users/login", marchallObj(t, LoginRequest{Email: " ANN@test.cd ", Password: pwd}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp LoginResponse
		unmarchall(t, rec, &resp)
		assert.NotEmpty(t, resp.Token)

		// the token opens the authed endpoints
		req, rec = newAuthRequest(http.MethodGet, "/api/users/me", resp.Token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		usr, err := env.Users.GetByEmail(req.Context(), "ann@test.cd")
		require.NoError(t, err)
		assert.False(t, usr.LastLogin.IsZero())
	})
}

func Test_userApi_me(t *testing.T) {
	app, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "Ann", "ann@test.cd", "", []string{user.RoleStudent}, true)
	ghost := user.User{ID: "ghost", Name: "Ghost", Email: "ghost@test.cd", IsActive: true}

	runHTTPTests(t, app, []httpTest{
		{
			name:     "missing token",
			method:   http.MethodGet,
			path:     "/api/users/me",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "unknown user",
			method:   http.MethodGet,
			path:     "/api/users/me",
			token:    getToken(t, env.Conf, ghost),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "user not authenticated"}),
		},
		{
			name:     "own profile",
			method:   http.MethodGet,
			path:     "/api/users/me",
			token:    getToken(t, env.Conf, usr),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, usr),
		},
	})
}

func Test_userApi_refreshToken(t *testing.T) {
	app, env := setup(t)
	usr := testutil.CreateUser(t, env.UserRepo, "Ann", "ann@test.cd", "", []string{user.RoleStudent}, true)

	claims := GetUserClaims(usr, env.Conf, 1 /* issued in 1970 */)
	expired, err := GenerateToken(claims, env.Conf)
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodPost, "/api/users/token-refresh", expired)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "refresh has expired"})}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/api/users/token-refresh", getToken(t, env.Conf, usr))
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp LoginResponse
	unmarchall(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
}

func Test_userApi_create(t *testing.T) {
	app, env := setup(t)
	c := newClass(t, env)
	adminToken := getToken(t, env.Conf, c.admin)
	pwd := "Qw3rty!Xy9#"

	runHTTPTests(t, app, []httpTest{
		{
			name:     "not an admin",
			method:   http.MethodPost,
			path:     "/api/admin/users",
			body:     marchallObj(t, user.NewUser{}),
			token:    getToken(t, env.Conf, c.teacher),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:   "role above own",
			method: http.MethodPost,
			path:   "/api/admin/users",
			body: marchallObj(t, user.NewUser{
				Name: "Zed", Email: "zed@test.cd", Password: pwd, PasswordConfirm: pwd, Roles: []string{user.RoleAdminOwner},
			}),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"roles": "not enough rights to set these roles"}),
		},
		{
			name:   "second monitor",
			method: http.MethodPost,
			path:   "/api/admin/users",
			body: marchallObj(t, user.NewUser{
				Name: "Zed", Email: "zed@test.cd", Password: pwd, PasswordConfirm: pwd,
				Roles: []string{user.RoleStudent}, CohortID: c.cohort.ID, IsMonitor: true,
			}),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"is_monitor": "this cohort already has a class monitor"}),
		},
		{
			name:   "duplicate email",
			method: http.MethodPost,
			path:   "/api/admin/users",
			body: marchallObj(t, user.NewUser{
				Name: "Zed", Email: "TOM@test.cd", Password: pwd, PasswordConfirm: pwd,
			}),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"email": user.ErrEmailExists.Error()}),
		},
	})

	t.Run("student", func(t *testing.T) {
		body := marchallObj(t, user.NewUser{
			Name: "Zed", Email: "zed@test.cd", Password: pwd, PasswordConfirm: pwd,
			Roles: []string{user.RoleStudent}, CohortID: c.cohort.ID,
		})
		req, rec := newAuthRequest(http.MethodPost, "/api/admin/users", adminToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got user.User
		unmarchall(t, rec, &got)
		assert.NotEmpty(t, got.ID)
		assert.Equal(t, c.cohort.ID, got.CohortID)
		assert.True(t, got.IsActive)
		assert.False(t, got.IsMonitor)

		members, err := env.Cohorts.Members(req.Context(), c.cohort.ID)
		require.NoError(t, err)
		assert.Len(t, members, 4)
	})
}

func Test_userApi_update(t *testing.T) {
	app, env := setup(t)
	c := newClass(t, env)
	adminToken := getToken(t, env.Conf, c.admin)
	path := func(usr user.User) string { return "/api/admin/users/" + usr.ID }
	bPtr := func(b bool) *bool { return &b }

	annToken := getToken(t, env.Conf, c.ann)
	bobToken := getToken(t, env.Conf, c.bob)
	submission := marchallObj(t, monitor.DutySubmission{Date: "2024-03-11", AssigneeIDs: []string{c.cid.ID}})

	runHTTPTests(t, app, []httpTest{
		{
			name:     "unknown user",
			method:   http.MethodPut,
			path:     "/api/admin/users/nope",
			body:     marchallObj(t, user.UpdateUser{}),
			token:    adminToken,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "seat taken",
			method:   http.MethodPut,
			path:     path(c.bob),
			body:     marchallObj(t, user.UpdateUser{IsMonitor: bPtr(true)}),
			token:    adminToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"is_monitor": "this cohort already has a class monitor"}),
		},
	})

	t.Run("teacher flag dropped", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, path(c.teacher), adminToken, marchallObj(t, user.UpdateUser{IsMonitor: bPtr(true)}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got user.User
		unmarchall(t, rec, &got)
		assert.False(t, got.IsMonitor)
	})

	// handing the monitor seat over from Ann to Bob
	for _, step := range []struct {
		usr       user.User
		isMonitor bool
	}{{c.ann, false}, {c.bob, true}} {
		req, rec := newAuthRequest(http.MethodPut, path(step.usr), adminToken, marchallObj(t, user.UpdateUser{IsMonitor: bPtr(step.isMonitor)}))
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	// the gate reads the stored flag, not the token's
	req, rec := newAuthRequest(http.MethodPut, "/api/duties", annToken, submission)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: monitor.ReasonNotMonitor})}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/api/duties", bobToken, submission)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func Test_userApi_destroy(t *testing.T) {
	app, env := setup(t)
	c := newClass(t, env)
	adminToken := getToken(t, env.Conf, c.admin)

	runHTTPTests(t, app, []httpTest{
		{
			name:     "self",
			method:   http.MethodDelete,
			path:     "/api/admin/users/" + c.admin.ID,
			token:    adminToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "self among many",
			method:   http.MethodDelete,
			path:     "/api/admin/users?id=" + c.cid.ID + "&id=" + c.admin.ID,
			token:    adminToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
	})

	req, rec := newAuthRequest(http.MethodDelete, "/api/admin/users/"+c.cid.ID, adminToken)
	app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := env.Users.GetByID(req.Context(), c.cid.ID)
	assert.Equal(t, user.ErrNotFound, err)
}
