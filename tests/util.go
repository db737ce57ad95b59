package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/dashboard"
	"github.com/trezcool/darasa/core/duty"
	"github.com/trezcool/darasa/core/grade"
	"github.com/trezcool/darasa/core/monitor"
	"github.com/trezcool/darasa/core/schedule"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/dummy"
)

// Env wires every service on top of a fresh in-memory store.
type Env struct {
	DB         *dummydb.DB
	Conf       *core.Config
	Validate   *validator.Validate
	Translator ut.Translator

	UserRepo       user.Repository
	CohortRepo     cohort.Repository
	AttendanceRepo attendance.Repository
	DutyRepo       duty.Repository
	GradeRepo      grade.Repository

	Users      *user.Service
	Cohorts    *cohort.Service
	Attendance *attendance.Ledger
	Duty       *duty.Ledger
	GradeBook  *grade.Ledger
	Grades     *grade.Service
	Gate       *monitor.Gate
	Monitor    *monitor.Service
	Schedule   *schedule.Service
	Dashboard  *dashboard.Builder
}

func NewConfig() *core.Config {
	return &core.Config{
		Debug:     false,
		TestMode:  true,
		Env:       "TEST",
		Build:     "test",
		AppName:   "Darasa",
		SecretKey: "test-secret-key",
		Server: core.ServerConfig{
			Host:                      "localhost",
			ShutdownTimeout:           time.Second,
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Calendar: core.CalendarConfig{
			ProductID:         "-//Darasa//Test//EN",
			DefaultTermLength: 180 * 24 * time.Hour,
		},
	}
}

func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

func NewEnv() *Env {
	env := &Env{DB: dummydb.Open(), Conf: NewConfig()}
	env.Validate, env.Translator = NewValidator()

	env.UserRepo = dummydb.NewUserRepository(env.DB)
	env.CohortRepo = dummydb.NewCohortRepository(env.DB)
	env.AttendanceRepo = dummydb.NewAttendanceRepository(env.DB)
	env.DutyRepo = dummydb.NewDutyRepository(env.DB)
	env.GradeRepo = dummydb.NewGradeRepository(env.DB)

	env.Users = user.NewService(env.UserRepo)
	env.Cohorts = cohort.NewService(env.CohortRepo, env.Users, env.Conf)
	env.Attendance = attendance.NewLedger(env.AttendanceRepo)
	env.Duty = duty.NewLedger(env.DutyRepo)
	env.GradeBook = grade.NewLedger(env.GradeRepo)
	env.Grades = grade.NewService(env.Cohorts, env.GradeBook)
	env.Gate = monitor.NewGate(env.Users)
	env.Monitor = monitor.NewService(env.Gate, env.Cohorts, env.Attendance, env.Duty)
	env.Schedule = schedule.NewService(env.Cohorts)
	env.Dashboard = dashboard.NewBuilder(env.Cohorts, env.Attendance, env.Duty)
	return env
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     strings.ToLower(email),
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateStudent creates an active student of cohortID.
func CreateStudent(t *testing.T, repo user.Repository, name, cohortID string, isMonitor bool) user.User {
	usr := user.User{
		ID:        uuid.New().String(),
		Name:      name,
		Email:     strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@test.cd",
		Roles:     []string{user.RoleStudent},
		IsActive:  true,
		CohortID:  cohortID,
		IsMonitor: isMonitor,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return usr
}

func CreateCohort(t *testing.T, repo cohort.Repository, name string, start time.Time, end *time.Time) cohort.Cohort {
	c, err := repo.CreateCohort(context.Background(), cohort.Cohort{
		ID:        uuid.New().String(),
		Name:      name,
		StartDate: start,
		EndDate:   end,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateCohort() failed: %v", err)
	}
	return c
}

// CreateCourse creates a course of cohortID held every `weekday` between start & end.
func CreateCourse(
	t *testing.T,
	repo cohort.Repository,
	name, code, cohortID, instructorID string,
	start, end time.Time,
	weekday time.Weekday,
	startTime, endTime string,
) cohort.Course {
	wd := int(weekday)
	now := time.Now().UTC()
	c, err := repo.CreateCourse(context.Background(), cohort.Course{
		ID:           uuid.New().String(),
		Name:         name,
		Code:         code,
		Credits:      cohort.DefaultCredits,
		CohortID:     cohortID,
		InstructorID: instructorID,
		StartDate:    &start,
		EndDate:      &end,
		DayOfWeek:    &wd,
		StartTime:    startTime,
		EndTime:      endTime,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return c
}

// Date returns the canonical instant of y-m-d.
func Date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func DatePtr(y int, m time.Month, d int) *time.Time {
	t := Date(y, m, d)
	return &t
}
