package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/trezcool/kulliya/core/student"
)

type studentRepository struct {
	students     *studentTable
	applications *applicationTable
}

var _ student.Repository = (*studentRepository)(nil)

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{students: db.students, applications: db.applications}
}

func (repo *studentRepository) ListStudentIDs(_ context.Context, collegeID int, prefix string, limit int) ([]string, error) {
	repo.students.mutex.RLock()
	defer repo.students.mutex.RUnlock()

	ids := make([]string, 0)
	for _, st := range repo.students.t {
		if st.CollegeID == collegeID && strings.HasPrefix(st.StudentID, prefix) {
			ids = append(ids, st.StudentID)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, filter student.GetFilter) (student.Student, error) {
	repo.students.mutex.RLock()
	defer repo.students.mutex.RUnlock()

	for _, st := range repo.students.t {
		switch {
		case filter.ID != 0:
			if st.ID == filter.ID {
				return st, nil
			}
		case filter.StudentID != "":
			if st.StudentID == filter.StudentID {
				return st, nil
			}
		case filter.Email != "":
			if strings.EqualFold(st.Email, filter.Email) {
				return st, nil
			}
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) CreateStudent(_ context.Context, st student.Student) (student.Student, error) {
	repo.students.mutex.Lock()
	defer repo.students.mutex.Unlock()

	for _, s := range repo.students.t {
		if s.StudentID == st.StudentID {
			return student.Student{}, student.ErrStudentIDTaken
		}
		if strings.EqualFold(s.Email, st.Email) {
			return student.Student{}, errEmailTaken
		}
	}
	repo.students.lastPK++
	st.ID = repo.students.lastPK
	repo.students.t = append(repo.students.t, st)
	return st, nil
}

func (repo *studentRepository) GetApplication(_ context.Context, id int) (student.Application, error) {
	repo.applications.mutex.RLock()
	defer repo.applications.mutex.RUnlock()

	if app, ok := repo.applications.t[id]; ok {
		return app, nil
	}
	return student.Application{}, student.ErrApplicationNotFound
}

func (repo *studentRepository) UpdateApplicationStatus(_ context.Context, id int, status string) error {
	repo.applications.mutex.Lock()
	defer repo.applications.mutex.Unlock()

	app, ok := repo.applications.t[id]
	if !ok {
		return student.ErrApplicationNotFound
	}
	app.Status = status
	repo.applications.t[id] = app
	return nil
}
