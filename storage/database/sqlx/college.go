package sqlxrepos

import (
	"context"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/college"
)

type collegeRow struct {
	ID               int         `db:"id"`
	Code             string      `db:"code"`
	NameEn           string      `db:"name_en"`
	NameAr           string      `db:"name_ar"`
	IDPrefix         null.String `db:"id_prefix"`
	IDFormat         null.String `db:"id_format"`
	IDStartingNumber null.Int    `db:"id_starting_number"`
	IsActive         bool        `db:"is_active"`
}

func (r collegeRow) toCollege() college.College {
	return college.College{
		ID:               r.ID,
		Code:             r.Code,
		NameEn:           r.NameEn,
		NameAr:           r.NameAr,
		IDPrefix:         r.IDPrefix.String,
		IDFormat:         r.IDFormat.String,
		IDStartingNumber: r.IDStartingNumber.Int,
		IsActive:         r.IsActive,
	}
}

type collegeRepository struct {
	base
}

var _ college.Repository = (*collegeRepository)(nil) // interface compliance check

func NewCollegeRepository(exec core.DBExecutor) *collegeRepository {
	return &collegeRepository{base{exec: exec}}
}

func (repo collegeRepository) GetCollege(ctx context.Context, id int) (college.College, error) {
	const q = `SELECT id, code, name_en, name_ar, id_prefix, id_format, id_starting_number, is_active
		FROM colleges WHERE id = $1`

	var row collegeRow
	if err := repo.exec.GetContext(ctx, &row, q, id); err != nil {
		return college.College{}, trapNoRowsErr(err, college.ErrNotFound, "getting college")
	}
	return row.toCollege(), nil
}
