package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/darasa/core/grade"
)

type gradeRepository struct {
	db *DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *DB) grade.Repository {
	return &gradeRepository{db: db}
}

func (repo *gradeRepository) UpsertGrades(_ context.Context, records []grade.Record) error {
	if err := repo.db.writeErr(); err != nil {
		return err
	}

	repo.db.grade.Lock()
	defer repo.db.grade.Unlock()

	for _, r := range records {
		key := r.Key().String()
		if existing, ok := repo.db.grade.table[key]; ok {
			existing.Score = r.Score
			existing.Feedback = r.Feedback
			existing.GradedBy = r.GradedBy
			existing.UpdatedAt = r.UpdatedAt
			continue
		}
		stored := r
		stored.StudentName, stored.CourseName, stored.CourseCode = "", "", ""
		repo.db.grade.table[key] = &stored
	}
	return nil
}

func (repo *gradeRepository) QueryGrades(_ context.Context, filter grade.QueryFilter) ([]grade.Record, error) {
	repo.db.grade.RLock()
	records := make([]grade.Record, 0)
	for _, r := range repo.db.grade.table {
		if filter.Match(*r) {
			records = append(records, *r)
		}
	}
	repo.db.grade.RUnlock()

	repo.db.user.RLock()
	for i := range records {
		if usr, ok := repo.db.user.table[records[i].StudentID]; ok {
			records[i].StudentName = usr.Name
		}
	}
	repo.db.user.RUnlock()

	repo.db.course.RLock()
	for i := range records {
		if c, ok := repo.db.course.table[records[i].CourseID]; ok {
			records[i].CourseName = c.Name
			records[i].CourseCode = c.Code
		}
	}
	repo.db.course.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.CourseCode != b.CourseCode {
			return a.CourseCode < b.CourseCode
		}
		if a.CourseID != b.CourseID {
			return a.CourseID < b.CourseID
		}
		if a.StudentName != b.StudentName {
			return a.StudentName < b.StudentName
		}
		return a.StudentID < b.StudentID
	})
	return records, nil
}
