package monitor

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/attendance"
	"github.com/trezcool/darasa/core/cohort"
	"github.com/trezcool/darasa/core/duty"
)

// DefaultStatus is the pre-filled status of students without a record.
const DefaultStatus = attendance.StatusPresent

type (
	AttendanceEntry struct {
		StudentID   string            `json:"student_id"`
		StudentName string            `json:"student_name"`
		Status      attendance.Status `json:"status"`
		Recorded    bool              `json:"recorded"`
	}

	AttendanceForm struct {
		CourseID    string            `json:"course_id"`
		CourseName  string            `json:"course_name"`
		Date        string            `json:"date"`
		HasExisting bool              `json:"has_existing"`
		Entries     []AttendanceEntry `json:"entries"`
	}

	DutyCandidate struct {
		StudentID   string `json:"student_id"`
		StudentName string `json:"student_name"`
		Selected    bool   `json:"selected"`
	}

	DutyForm struct {
		CohortID    string          `json:"cohort_id"`
		Date        string          `json:"date"`
		HasExisting bool            `json:"has_existing"`
		Candidates  []DutyCandidate `json:"candidates"`
	}
)

// AttendanceDefaults lists every member with their recorded status, or DefaultStatus when unrecorded.
// Records of non-members are ignored.
func AttendanceDefaults(members []cohort.Member, records []attendance.Record) []AttendanceEntry {
	byStudent := make(map[string]attendance.Status, len(records))
	for _, r := range records {
		byStudent[r.StudentID] = r.Status
	}
	entries := make([]AttendanceEntry, 0, len(members))
	for _, m := range members {
		entry := AttendanceEntry{StudentID: m.ID, StudentName: m.Name, Status: DefaultStatus}
		if st, ok := byStudent[m.ID]; ok {
			entry.Status = st
			entry.Recorded = true
		}
		entries = append(entries, entry)
	}
	return entries
}

// DutyDefaults lists every member, selected when on duty in rec.
func DutyDefaults(members []cohort.Member, rec *duty.Record) []DutyCandidate {
	candidates := make([]DutyCandidate, 0, len(members))
	for _, m := range members {
		candidates = append(candidates, DutyCandidate{
			StudentID:   m.ID,
			StudentName: m.Name,
			Selected:    rec != nil && rec.Has(m.ID),
		})
	}
	return candidates
}

// Directory is the part of the cohort service the monitor tools rely on.
type Directory interface {
	GetCourse(ctx context.Context, id string) (cohort.Course, error)
	Members(ctx context.Context, cohortID string) ([]cohort.Member, error)
}

// Prefill rebuilds the bulk-edit forms from the ledgers. It never writes.
type Prefill struct {
	dir        Directory
	attendance *attendance.Ledger
	duty       *duty.Ledger
}

func NewPrefill(dir Directory, al *attendance.Ledger, dl *duty.Ledger) *Prefill {
	return &Prefill{dir: dir, attendance: al, duty: dl}
}

// Attendance returns the attendance form of a course on a date.
func (p *Prefill) Attendance(ctx context.Context, course cohort.Course, date time.Time) (AttendanceForm, error) {
	members, err := p.dir.Members(ctx, course.CohortID)
	if err != nil {
		return AttendanceForm{}, errors.Wrap(err, "querying members")
	}
	records, err := p.attendance.GetByScope(ctx, course.ID, date)
	if err != nil {
		return AttendanceForm{}, err
	}
	return AttendanceForm{
		CourseID:    course.ID,
		CourseName:  course.Name,
		Date:        core.FormatDate(date),
		HasExisting: len(records) > 0,
		Entries:     AttendanceDefaults(members, records),
	}, nil
}

// Duty returns the duty form of a cohort on a date.
func (p *Prefill) Duty(ctx context.Context, cohortID string, date time.Time) (DutyForm, error) {
	members, err := p.dir.Members(ctx, cohortID)
	if err != nil {
		return DutyForm{}, errors.Wrap(err, "querying members")
	}
	rec, ok, err := p.duty.GetForDate(ctx, cohortID, date)
	if err != nil {
		return DutyForm{}, err
	}
	var existing *duty.Record
	if ok {
		existing = &rec
	}
	return DutyForm{
		CohortID:    cohortID,
		Date:        core.FormatDate(date),
		HasExisting: ok,
		Candidates:  DutyDefaults(members, existing),
	}, nil
}
