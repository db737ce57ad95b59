package grade

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

// Score bounds, inclusive.
const (
	MinScore = 0
	MaxScore = 100
)

// Key is the natural key of a Record.
type Key struct {
	StudentID string
	CourseID  string
}

func NewKey(studentID, courseID string) Key {
	return Key{StudentID: studentID, CourseID: courseID}
}

func (k Key) String() string {
	return k.StudentID + "|" + k.CourseID
}

// Record is the grade of one student for one course.
type Record struct {
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Score     float64   `json:"score"`
	Feedback  string    `json:"feedback"`
	GradedBy  string    `json:"graded_by"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// read-only labels
	StudentName string `json:"student_name,omitempty"`
	CourseName  string `json:"course_name,omitempty"`
	CourseCode  string `json:"course_code,omitempty"`
}

func (r Record) Key() Key {
	return NewKey(r.StudentID, r.CourseID)
}

// QueryFilter selects records. Zero fields are ignored.
type QueryFilter struct {
	StudentID string
	CourseID  string
}

func (qf QueryFilter) Match(r Record) bool {
	if qf.StudentID != "" && r.StudentID != qf.StudentID {
		return false
	}
	if qf.CourseID != "" && r.CourseID != qf.CourseID {
		return false
	}
	return true
}

type (
	EntryInput struct {
		StudentID string   `json:"student_id" validate:"required"`
		Score     *float64 `json:"score" validate:"required"`
		Feedback  string   `json:"feedback"`
	}

	// Submission is a teacher's bulk grade form for one course.
	Submission struct {
		CourseID string       `json:"course_id" validate:"required"`
		Entries  []EntryInput `json:"entries" validate:"required,dive"`
	}
)

func (s *Submission) Validate(validate *validator.Validate) error {
	s.CourseID = core.CleanString(s.CourseID)
	for i := range s.Entries {
		s.Entries[i].StudentID = core.CleanString(s.Entries[i].StudentID)
		s.Entries[i].Feedback = core.CleanString(s.Entries[i].Feedback)
	}
	return validate.Struct(s)
}

type (
	FormEntry struct {
		StudentID   string   `json:"student_id"`
		StudentName string   `json:"student_name"`
		Score       *float64 `json:"score"` // nil until graded
		Feedback    string   `json:"feedback"`
	}

	Form struct {
		CourseID   string      `json:"course_id"`
		CourseName string      `json:"course_name"`
		CourseCode string      `json:"course_code"`
		Entries    []FormEntry `json:"entries"`
	}
)
