package inmemdb

import (
	"context"

	"github.com/trezcool/kulliya/core/college"
)

type collegeRepository struct {
	db *collegeTable
}

var _ college.Repository = (*collegeRepository)(nil)

func NewCollegeRepository(db *DB) *collegeRepository {
	return &collegeRepository{db: db.colleges}
}

func (repo *collegeRepository) GetCollege(_ context.Context, id int) (college.College, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if col, ok := repo.db.t[id]; ok {
		return col, nil
	}
	return college.College{}, college.ErrNotFound
}
