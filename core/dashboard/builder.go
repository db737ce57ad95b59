package dashboard

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/duty"
	"github.com/trezcool/darasa/core/monitor"
	"github.com/trezcool/darasa/core/user"
)

// WeekLength is the number of days, today included, shown in the duty roster.
const WeekLength = 7

type (
	// StudentSummary is what a student sees. Monitor is only set for the cohort's monitor.
	StudentSummary struct {
		Today       string           `json:"today"`
		OnDutyToday bool             `json:"on_duty_today"`
		TodayDuty   *duty.Record     `json:"today_duty"`
		WeekDuties  []duty.Record    `json:"week_duties"`
		Stats       attendance.Stats `json:"stats"`
		Courses     []cohort.Course  `json:"courses"`
		Monitor     *MonitorPanel    `json:"monitor,omitempty"`
	}

	MonitorPanel struct {
		CohortID string          `json:"cohort_id"`
		Courses  []cohort.Course `json:"courses"`
		Roster   []cohort.Member `json:"roster"`
	}

	// CourseSupervision is the read-only view a teacher gets of one course.
	CourseSupervision struct {
		Course     cohort.Course       `json:"course"`
		TodayDuty  *duty.Record        `json:"today_duty"`
		LatestDate string              `json:"latest_date,omitempty"`
		Latest     []attendance.Record `json:"latest_attendance"`
	}

	Directory interface {
		QueryCourses(ctx context.Context, filter cohort.CourseFilter) ([]cohort.Course, error)
		Members(ctx context.Context, cohortID string) ([]cohort.Member, error)
	}

	// Builder assembles the capability-scoped views. It never writes.
	Builder struct {
		dir        Directory
		attendance *attendance.Ledger
		duty       *duty.Ledger
	}
)

func NewBuilder(dir Directory, al *attendance.Ledger, dl *duty.Ledger) *Builder {
	return &Builder{dir: dir, attendance: al, duty: dl}
}

func names(members []cohort.Member) map[string]string {
	m := make(map[string]string, len(members))
	for _, mb := range members {
		m[mb.ID] = mb.Name
	}
	return m
}

func label(rec duty.Record, byID map[string]string) duty.Record {
	rec.AssigneeNames = make([]string, 0, len(rec.AssigneeIDs))
	for _, id := range rec.AssigneeIDs {
		rec.AssigneeNames = append(rec.AssigneeNames, byID[id])
	}
	return rec
}

// Student builds the summary of usr for the day `today`.
func (b *Builder) Student(ctx context.Context, usr user.User, today time.Time) (StudentSummary, error) {
	today = core.Midnight(today)
	summary := StudentSummary{
		Today:      core.FormatDate(today),
		WeekDuties: []duty.Record{},
		Courses:    []cohort.Course{},
	}

	stats, err := b.attendance.GetByStudent(ctx, usr.ID)
	if err != nil {
		return StudentSummary{}, err
	}
	summary.Stats = stats

	if usr.CohortID == "" {
		return summary, nil
	}

	members, err := b.dir.Members(ctx, usr.CohortID)
	if err != nil {
		return StudentSummary{}, errors.Wrap(err, "querying members")
	}
	byID := names(members)

	week, err := b.duty.GetForRange(ctx, usr.CohortID, today, today.AddDate(0, 0, WeekLength-1))
	if err != nil {
		return StudentSummary{}, err
	}
	for _, rec := range week {
		rec = label(rec, byID)
		summary.WeekDuties = append(summary.WeekDuties, rec)
		if rec.Date.Equal(today) {
			todayRec := rec
			summary.TodayDuty = &todayRec
			summary.OnDutyToday = rec.Has(usr.ID)
		}
	}

	courses, err := b.dir.QueryCourses(ctx, cohort.CourseFilter{CohortID: usr.CohortID})
	if err != nil {
		return StudentSummary{}, errors.Wrap(err, "querying courses")
	}
	if courses != nil {
		summary.Courses = courses
	}

	if monitor.Promote(usr).Authorized() {
		summary.Monitor = &MonitorPanel{
			CohortID: usr.CohortID,
			Courses:  summary.Courses,
			Roster:   members,
		}
	}
	return summary, nil
}

// Faculty builds the supervision view of the courses taught by usr for the day `today`.
func (b *Builder) Faculty(ctx context.Context, usr user.User, today time.Time) ([]CourseSupervision, error) {
	today = core.Midnight(today)
	courses, err := b.dir.QueryCourses(ctx, cohort.CourseFilter{InstructorID: usr.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	rosters := make(map[string]map[string]string)
	views := make([]CourseSupervision, 0, len(courses))
	for _, c := range courses {
		byID, ok := rosters[c.CohortID]
		if !ok {
			members, err := b.dir.Members(ctx, c.CohortID)
			if err != nil {
				return nil, errors.Wrap(err, "querying members")
			}
			byID = names(members)
			rosters[c.CohortID] = byID
		}

		view := CourseSupervision{Course: c, Latest: []attendance.Record{}}
		rec, ok, err := b.duty.GetForDate(ctx, c.CohortID, today)
		if err != nil {
			return nil, err
		}
		if ok {
			rec = label(rec, byID)
			view.TodayDuty = &rec
		}

		date, records, ok, err := b.attendance.Latest(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		if ok {
			view.LatestDate = core.FormatDate(date)
			for _, r := range records {
				if r.StudentName == "" {
					r.StudentName = byID[r.StudentID]
				}
				view.Latest = append(view.Latest, r)
			}
		}
		views = append(views, view)
	}
	return views, nil
}
