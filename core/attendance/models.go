package attendance

import (
	"strings"
	"time"

	"github.com/trezcool/darasa/core"
)

// Status of a student for a class session.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
)

// Statuses lists every valid Status.
var Statuses = []Status{StatusPresent, StatusAbsent, StatusLate}

// ParseStatus parses a case-insensitive status.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToUpper(core.CleanString(s)))
	switch st {
	case StatusPresent, StatusAbsent, StatusLate:
		return st, true
	}
	return "", false
}

// Key is the natural key of a Record.
type Key struct {
	StudentID string
	CourseID  string
	Date      time.Time // canonical UTC midnight
}

func NewKey(studentID, courseID string, date time.Time) Key {
	return Key{StudentID: studentID, CourseID: courseID, Date: core.Midnight(date)}
}

func (k Key) String() string {
	return k.StudentID + "|" + k.CourseID + "|" + core.FormatDate(k.Date)
}

// Record is the attendance of one student for one course on one date.
type Record struct {
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	Date       time.Time `json:"date"`
	Status     Status    `json:"status"`
	RecordedBy string    `json:"recorded_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// read-only label
	StudentName string `json:"student_name,omitempty"`
}

func (r Record) Key() Key {
	return NewKey(r.StudentID, r.CourseID, r.Date)
}

// Stats counts a student's records per status.
type Stats struct {
	Present int `json:"present"`
	Absent  int `json:"absent"`
	Late    int `json:"late"`
}

func (s Stats) Total() int {
	return s.Present + s.Absent + s.Late
}

func (s *Stats) add(st Status, n int) {
	switch st {
	case StatusPresent:
		s.Present += n
	case StatusAbsent:
		s.Absent += n
	case StatusLate:
		s.Late += n
	}
}

// QueryFilter selects records. Zero fields are ignored; From & To are inclusive.
type QueryFilter struct {
	StudentID string
	CourseID  string
	From      time.Time
	To        time.Time
}

func (qf QueryFilter) Match(r Record) bool {
	if qf.StudentID != "" && r.StudentID != qf.StudentID {
		return false
	}
	if qf.CourseID != "" && r.CourseID != qf.CourseID {
		return false
	}
	if !qf.From.IsZero() && r.Date.Before(core.Midnight(qf.From)) {
		return false
	}
	if !qf.To.IsZero() && r.Date.After(core.Midnight(qf.To)) {
		return false
	}
	return true
}
