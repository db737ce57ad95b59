package grade

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/cohort"
)

// ReasonNotInstructor is the PermissionError reason given to anyone but the course instructor.
const ReasonNotInstructor = "only the course instructor can grade it"

var (
	errNoEntries      = errors.New("at least one grade entry is required")
	errDuplicateEntry = "student listed more than once"
)

// Directory is the part of the cohort service grading relies on.
type Directory interface {
	GetCourse(ctx context.Context, id string) (cohort.Course, error)
	Members(ctx context.Context, cohortID string) ([]cohort.Member, error)
}

// Service lets a course instructor grade the students of the course's cohort.
type Service struct {
	dir    Directory
	ledger *Ledger
}

func NewService(dir Directory, ledger *Ledger) *Service {
	return &Service{dir: dir, ledger: ledger}
}

// course returns the course `courseID` if it is taught by graderID.
func (svc *Service) course(ctx context.Context, graderID, courseID string) (cohort.Course, error) {
	courseID = core.CleanString(courseID)
	if courseID == "" {
		return cohort.Course{}, core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "this field is required"})
	}
	course, err := svc.dir.GetCourse(ctx, courseID)
	if err != nil {
		if errors.Cause(err) == cohort.ErrCourseNotFound {
			return course, core.NewValidationError(err, core.FieldError{Field: "course_id", Error: err.Error()})
		}
		return course, errors.Wrap(err, "getting course")
	}
	if graderID == "" || course.InstructorID != graderID {
		return course, core.NewPermissionError(ReasonNotInstructor)
	}
	return course, nil
}

// Form returns the roster of the course's cohort with the current grades.
func (svc *Service) Form(ctx context.Context, graderID, courseID string) (Form, error) {
	course, err := svc.course(ctx, graderID, courseID)
	if err != nil {
		return Form{}, err
	}
	members, err := svc.dir.Members(ctx, course.CohortID)
	if err != nil {
		return Form{}, errors.Wrap(err, "querying members")
	}
	records, err := svc.ledger.GetByCourse(ctx, course.ID)
	if err != nil {
		return Form{}, err
	}

	byStudent := make(map[string]Record, len(records))
	for _, r := range records {
		byStudent[r.StudentID] = r
	}
	entries := make([]FormEntry, 0, len(members))
	for _, m := range members {
		entry := FormEntry{StudentID: m.ID, StudentName: m.Name}
		if r, ok := byStudent[m.ID]; ok {
			score := r.Score
			entry.Score = &score
			entry.Feedback = r.Feedback
		}
		entries = append(entries, entry)
	}
	return Form{CourseID: course.ID, CourseName: course.Name, CourseCode: course.Code, Entries: entries}, nil
}

// Submit upserts the grades of a course for its instructor graderID.
// Nothing is written unless every entry is valid and every student belongs to the course's cohort.
func (svc *Service) Submit(ctx context.Context, graderID string, sub Submission) ([]Record, error) {
	course, err := svc.course(ctx, graderID, sub.CourseID)
	if err != nil {
		return nil, err
	}
	if len(sub.Entries) == 0 {
		return nil, core.NewValidationError(errNoEntries, core.FieldError{Field: "entries", Error: errNoEntries.Error()})
	}

	records := make([]Record, 0, len(sub.Entries))
	seen := make(map[string]struct{}, len(sub.Entries))
	var flds []core.FieldError
	for i, e := range sub.Entries {
		studentID := core.CleanString(e.StudentID)
		if e.Score == nil || !ValidScore(*e.Score) {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("entries[%d].score", i), Error: errScoreRange.Error()})
			continue
		}
		if _, dup := seen[studentID]; dup {
			flds = append(flds, core.FieldError{Field: fmt.Sprintf("entries[%d].student_id", i), Error: errDuplicateEntry})
		}
		seen[studentID] = struct{}{}
		records = append(records, Record{
			StudentID: studentID,
			CourseID:  course.ID,
			Score:     *e.Score,
			Feedback:  e.Feedback,
			GradedBy:  graderID,
		})
	}
	if flds != nil {
		return nil, core.NewValidationError(nil, flds...)
	}

	members, err := svc.dir.Members(ctx, course.CohortID)
	if err != nil {
		return nil, errors.Wrap(err, "querying members")
	}
	names := make(map[string]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}
	var outsiders []string
	for _, r := range records {
		if _, ok := names[r.StudentID]; !ok {
			outsiders = append(outsiders, r.StudentID)
		}
	}
	if len(outsiders) > 0 {
		return nil, core.NewScopeMismatchError("cohort", outsiders...)
	}

	if err = svc.ledger.UpsertBatch(ctx, records); err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Feedback = core.CleanString(records[i].Feedback)
		records[i].StudentName = names[records[i].StudentID]
		records[i].CourseName = course.Name
		records[i].CourseCode = course.Code
	}
	return records, nil
}

// Transcript returns the grades of a student, ordered by course code.
func (svc *Service) Transcript(ctx context.Context, studentID string) ([]Record, error) {
	return svc.ledger.GetByStudent(ctx, studentID)
}
