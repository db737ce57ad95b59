package tests

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/user"
	calsvc "github.com/trezcool/darasa/services/calendar"
	logsvc "github.com/trezcool/darasa/services/logger"
	reportsvc "github.com/trezcool/darasa/services/report"
	"github.com/trezcool/darasa/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

func setup(t *testing.T) (Server, *testutil.Env) {
	t.Helper()
	env := testutil.NewEnv()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), env.Conf)

	app := NewServer(ServerDeps{
		Conf:       env.Conf,
		Logger:     logger,
		Validate:   env.Validate,
		Translator: env.Translator,
		Users:      env.Users,
		Cohorts:    env.Cohorts,
		Schedule:   env.Schedule,
		Gate:       env.Gate,
		Monitor:    env.Monitor,
		Dashboard:  env.Dashboard,
		Attendance: env.Attendance,
		Duty:       env.Duty,
		Grades:     env.Grades,
		Calendar:   calsvc.NewService(env.Conf),
		Reports:    reportsvc.NewService(env.Cohorts, env.Attendance),
	})
	return app, env
}

// freezeToday pins core.Today() on day for the duration of the test.
func freezeToday(t *testing.T, day time.Time) {
	orig := core.NowFunc
	core.NowFunc = func() time.Time { return day.Add(9 * time.Hour) }
	t.Cleanup(func() { core.NowFunc = orig })
}

// class is a spring cohort with a monitor (Ann), two students (Bob, Cid), a teacher (Tom)
// and a Monday course taught by Tom.
type class struct {
	cohort  cohort.Cohort
	course  cohort.Course
	ann     user.User
	bob     user.User
	cid     user.User
	teacher user.User
	admin   user.User
}

func newClass(t *testing.T, env *testutil.Env) class {
	start, end := testutil.Date(2024, 3, 1), testutil.Date(2024, 7, 1)
	var c class
	c.cohort = testutil.CreateCohort(t, env.CohortRepo, "Spring Chinese", start, &end)
	c.ann = testutil.CreateStudent(t, env.UserRepo, "Ann", c.cohort.ID, true)
	c.bob = testutil.CreateStudent(t, env.UserRepo, "Bob", c.cohort.ID, false)
	c.cid = testutil.CreateStudent(t, env.UserRepo, "Cid", c.cohort.ID, false)
	c.teacher = testutil.CreateUser(t, env.UserRepo, "Tom", "tom@test.cd", "", []string{user.RoleTeacher}, true)
	c.admin = testutil.CreateUser(t, env.UserRepo, "Admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	c.course = testutil.CreateCourse(
		t, env.CohortRepo, "Chinese 101", "CHN101", c.cohort.ID, c.teacher.ID, start, end, time.Monday, "08:30", "10:00",
	)
	return c
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, conf *core.Config, usr user.User) string {
	token, err := GenerateToken(GetUserClaims(usr, conf), conf)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func unmarchall(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("unmarchall(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if _, ok := j1.([]interface{}); !ok {
		return false, nil
	}
	if _, ok := j2.([]interface{}); !ok {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, app Server, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
