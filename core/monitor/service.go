package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/duty"
)

var (
	errNoEntries      = errors.New("at least one attendance entry is required")
	errNoAssignees    = errors.New("at least one student must be on duty")
	errInvalidStatus  = "status must be one of PRESENT, ABSENT or LATE"
	errDuplicateEntry = "student listed more than once"
)

type (
	AttendanceEntryInput struct {
		StudentID string `json:"student_id" validate:"required"`
		Status    string `json:"status" validate:"required"`
	}

	// AttendanceSubmission is a monitor's bulk attendance form.
	AttendanceSubmission struct {
		CourseID string                 `json:"course_id" validate:"required"`
		Date     string                 `json:"date" validate:"required,isodate"`
		Entries  []AttendanceEntryInput `json:"entries" validate:"required,dive"`
	}

	// DutySubmission is a monitor's duty form.
	DutySubmission struct {
		Date        string   `json:"date" validate:"required,isodate"`
		AssigneeIDs []string `json:"assignee_ids" validate:"required"`
	}
)

func (as *AttendanceSubmission) Validate(validate *validator.Validate) error {
	as.CourseID = core.CleanString(as.CourseID)
	as.Date = core.CleanString(as.Date)
	for i := range as.Entries {
		as.Entries[i].StudentID = core.CleanString(as.Entries[i].StudentID)
		as.Entries[i].Status = core.CleanString(as.Entries[i].Status)
	}
	return validate.Struct(as)
}

func (ds *DutySubmission) Validate(validate *validator.Validate) error {
	ds.Date = core.CleanString(ds.Date)
	return validate.Struct(ds)
}

// Service is the single entry point for monitor writes: gate, then scope validation, then one atomic ledger write.
type Service struct {
	gate       *Gate
	dir        Directory
	attendance *attendance.Ledger
	duty       *duty.Ledger
	prefill    *Prefill
}

func NewService(gate *Gate, dir Directory, al *attendance.Ledger, dl *duty.Ledger) *Service {
	return &Service{
		gate:       gate,
		dir:        dir,
		attendance: al,
		duty:       dl,
		prefill:    NewPrefill(dir, al, dl),
	}
}

// authorize runs the gate and, when courseID is set, checks the course belongs to the monitor's cohort.
func (svc *Service) authorize(ctx context.Context, userID, courseID string) (Authorization, cohort.Course, error) {
	auth, err := svc.gate.Authorize(ctx, userID)
	if err != nil {
		return auth, cohort.Course{}, err
	}
	if !auth.Authorized() || courseID == "" {
		return auth, cohort.Course{}, auth.Err()
	}

	course, err := svc.dir.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Cause(err) == cohort.ErrCourseNotFound {
			return auth, course, core.NewValidationError(err, core.FieldError{Field: "course_id", Error: err.Error()})
		}
		return auth, course, errors.Wrap(err, "getting course")
	}
	auth = auth.ForCourse(course)
	return auth, course, auth.Err()
}

// memberSet returns the ids of the cohort's members.
func (svc *Service) memberSet(ctx context.Context, cohortID string) (map[string]cohort.Member, error) {
	members, err := svc.dir.Members(ctx, cohortID)
	if err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	set := make(map[string]cohort.Member, len(members))
	for _, m := range members {
		set[m.ID] = m
	}
	return set, nil
}

// outsiders lists the ids that are not in members, in input order.
func outsiders(ids []string, members map[string]cohort.Member) []string {
	var out []string
	for _, id := range ids {
		if _, ok := members[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// RecordAttendance upserts the attendance of a course session for the monitor userID.
// Nothing is written unless every entry is valid and every student belongs to the monitor's cohort.
func (svc *Service) RecordAttendance(ctx context.Context, userID string, sub AttendanceSubmission) ([]attendance.Record, error) {
	auth, course, err := svc.authorize(ctx, userID, core.CleanString(sub.CourseID))
	if err != nil {
		return nil, err
	}

	date, err := core.ParseDate(sub.Date)
	if err != nil {
		return nil, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}
	if len(sub.Entries) == 0 {
		return nil, core.NewValidationError(errNoEntries, core.FieldError{Field: "entries", Error: errNoEntries.Error()})
	}

	records := make([]attendance.Record, 0, len(sub.Entries))
	ids := make([]string, 0, len(sub.Entries))
	seen := make(map[string]struct{}, len(sub.Entries))
	var flds []core.FieldError
	for i, e := range sub.Entries {
		studentID := core.CleanString(e.StudentID)
		status, ok := attendance.ParseStatus(e.Status)
		if !ok {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("entries[%d].status", i), Error: errInvalidStatus})
		}
		if _, dup := seen[studentID]; dup {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("entries[%d].student_id", i), Error: errDuplicateEntry})
		}
		seen[studentID] = struct{}{}
		ids = append(ids, studentID)
		records = append(records, attendance.Record{
			StudentID:  studentID,
			CourseID:   course.ID,
			Date:       date,
			Status:     status,
			RecordedBy: auth.UserID,
		})
	}
	if flds != nil {
		return nil, core.NewValidationError(nil, flds...)
	}

	members, err := svc.memberSet(ctx, auth.CohortID)
	if err != nil {
		return nil, err
	}
	if bad := outsiders(ids, members); len(bad) > 0 {
		return nil, core.NewScopeMismatchError("cohort", bad...)
	}

	if err = svc.attendance.UpsertBatch(ctx, records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Date = core.Midnight(records[i].Date)
		records[i].StudentName = members[records[i].StudentID].Name
	}
	return records, nil
}

// AssignDuty replaces the students on duty in the monitor's cohort on the submitted date.
// Nothing is written unless every assignee belongs to the cohort.
func (svc *Service) AssignDuty(ctx context.Context, userID string, sub DutySubmission) (duty.Record, error) {
	auth, _, err := svc.authorize(ctx, userID, "")
	if err != nil {
		return duty.Record{}, err
	}

	date, err := core.ParseDate(sub.Date)
	if err != nil {
		return duty.Record{}, core.NewValidationError(err, core.FieldError{Field: "date", Error: err.Error()})
	}
	ids := core.CleanIDs(sub.AssigneeIDs)
	if len(ids) == 0 {
		return duty.Record{}, core.NewValidationError(errNoAssignees, core.FieldError{Field: "assignee_ids", Error: errNoAssignees.Error()})
	}

	members, err := svc.memberSet(ctx, auth.CohortID)
	if err != nil {
		return duty.Record{}, err
	}
	if bad := outsiders(ids, members); len(bad) > 0 {
		return duty.Record{}, core.NewScopeMismatchError("cohort", bad...)
	}

	rec, err := svc.duty.Assign(ctx, auth.CohortID, date, ids, auth.UserID)
	if err != nil {
		return duty.Record{}, err
	}
	for _, id := range rec.AssigneeIDs {
		rec.AssigneeNames = append(rec.AssigneeNames, members[id].Name)
	}
	return rec, nil
}

// AttendanceForm returns the pre-filled attendance form of a course session of the monitor's cohort.
func (svc *Service) AttendanceForm(ctx context.Context, userID, courseID string, date time.Time) (AttendanceForm, error) {
	_, course, err := svc.authorize(ctx, userID, core.CleanString(courseID))
	if err != nil {
		return AttendanceForm{}, err
	}
	if course.ID == "" {
		return AttendanceForm{}, core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "this field is required"})
	}
	return svc.prefill.Attendance(ctx, course, date)
}

// DutyForm returns the pre-filled duty form of the monitor's cohort.
func (svc *Service) DutyForm(ctx context.Context, userID string, date time.Time) (DutyForm, error) {
	auth, _, err := svc.authorize(ctx, userID, "")
	if err != nil {
		return DutyForm{}, err
	}
	return svc.prefill.Duty(ctx, auth.CohortID, date)
}
