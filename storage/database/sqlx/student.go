package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/student"
	"github.com/trezcool/kulliya/storage/database"
)

const dateLayout = "2006-01-02"

type studentRow struct {
	ID             int       `db:"id"`
	StudentID      string    `db:"student_id"`
	NameEn         string    `db:"name_en"`
	NameAr         string    `db:"name_ar"`
	FirstName      string    `db:"first_name"`
	MiddleName     string    `db:"middle_name"`
	LastName       string    `db:"last_name"`
	FirstNameAr    string    `db:"first_name_ar"`
	MiddleNameAr   string    `db:"middle_name_ar"`
	LastNameAr     string    `db:"last_name_ar"`
	Email          string    `db:"email"`
	Phone          string    `db:"phone"`
	DateOfBirth    null.Time `db:"date_of_birth"`
	Gender         string    `db:"gender"`
	Nationality    string    `db:"nationality"`
	NationalID     string    `db:"national_id"`
	Address        string    `db:"address"`
	CollegeID      int       `db:"college_id"`
	MajorID        int       `db:"major_id"`
	EnrollmentDate time.Time `db:"enrollment_date"`
	StudyType      string    `db:"study_type"`
	StudyLoad      string    `db:"study_load"`
	StudyApproach  string    `db:"study_approach"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

const studentColumns = `id, student_id, name_en, name_ar, first_name, middle_name, last_name,
	first_name_ar, middle_name_ar, last_name_ar, email, phone, date_of_birth, gender, nationality,
	national_id, address, college_id, major_id, enrollment_date, study_type, study_load, study_approach,
	status, created_at, updated_at`

func (r studentRow) toStudent() student.Student {
	st := student.Student{
		ID:             r.ID,
		StudentID:      r.StudentID,
		NameEn:         r.NameEn,
		NameAr:         r.NameAr,
		FirstName:      r.FirstName,
		MiddleName:     r.MiddleName,
		LastName:       r.LastName,
		FirstNameAr:    r.FirstNameAr,
		MiddleNameAr:   r.MiddleNameAr,
		LastNameAr:     r.LastNameAr,
		Email:          r.Email,
		Phone:          r.Phone,
		Gender:         r.Gender,
		Nationality:    r.Nationality,
		NationalID:     r.NationalID,
		Address:        r.Address,
		CollegeID:      r.CollegeID,
		MajorID:        r.MajorID,
		EnrollmentDate: r.EnrollmentDate,
		StudyType:      r.StudyType,
		StudyLoad:      r.StudyLoad,
		StudyApproach:  r.StudyApproach,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
	if r.DateOfBirth.Valid {
		st.DateOfBirth = r.DateOfBirth.Time.Format(dateLayout)
	}
	return st
}

type applicationRow struct {
	ID                    int                 `db:"id"`
	ApplicationNumber     null.String         `db:"application_number"`
	FirstName             string              `db:"first_name"`
	MiddleName            string              `db:"middle_name"`
	LastName              string              `db:"last_name"`
	FirstNameAr           string              `db:"first_name_ar"`
	MiddleNameAr          string              `db:"middle_name_ar"`
	LastNameAr            string              `db:"last_name_ar"`
	Email                 string              `db:"email"`
	Phone                 string              `db:"phone"`
	DateOfBirth           null.Time           `db:"date_of_birth"`
	Gender                string              `db:"gender"`
	Nationality           string              `db:"nationality"`
	NationalID            string              `db:"national_id"`
	Address               string              `db:"address"`
	CollegeID             null.Int            `db:"college_id"`
	MajorID               null.Int            `db:"major_id"`
	EnrollmentDate        null.Time           `db:"enrollment_date"`
	StudyType             string              `db:"study_type"`
	StudyLoad             string              `db:"study_load"`
	StudyApproach         string              `db:"study_approach"`
	RegistrationFeeAmount decimal.NullDecimal `db:"registration_fee_amount"`
	RegistrationFeePaidAt null.Time           `db:"registration_fee_paid_at"`
	RegistrationFeeMethod string              `db:"registration_fee_method"`
	Status                string              `db:"status"`
}

const applicationColumns = `id, application_number, first_name, middle_name, last_name,
	first_name_ar, middle_name_ar, last_name_ar, email, phone, date_of_birth, gender, nationality,
	national_id, address, college_id, major_id, enrollment_date, study_type, study_load, study_approach,
	registration_fee_amount, registration_fee_paid_at, registration_fee_method, status`

func (r applicationRow) toApplication() student.Application {
	app := student.Application{
		ID:                    r.ID,
		ApplicationNumber:     r.ApplicationNumber.String,
		FirstName:             r.FirstName,
		MiddleName:            r.MiddleName,
		LastName:              r.LastName,
		FirstNameAr:           r.FirstNameAr,
		MiddleNameAr:          r.MiddleNameAr,
		LastNameAr:            r.LastNameAr,
		Email:                 r.Email,
		Phone:                 r.Phone,
		Gender:                r.Gender,
		Nationality:           r.Nationality,
		NationalID:            r.NationalID,
		Address:               r.Address,
		CollegeID:             r.CollegeID.Ptr(),
		MajorID:               r.MajorID.Ptr(),
		EnrollmentDate:        r.EnrollmentDate.Ptr(),
		StudyType:             r.StudyType,
		StudyLoad:             r.StudyLoad,
		StudyApproach:         r.StudyApproach,
		RegistrationFeeAmount: r.RegistrationFeeAmount,
		RegistrationFeePaidAt: r.RegistrationFeePaidAt.Ptr(),
		RegistrationFeeMethod: r.RegistrationFeeMethod,
		Status:                r.Status,
	}
	if r.DateOfBirth.Valid {
		app.DateOfBirth = r.DateOfBirth.Time.Format(dateLayout)
	}
	return app
}

type studentRepository struct {
	base
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) *studentRepository {
	return &studentRepository{base{exec: exec}}
}

func (repo studentRepository) ListStudentIDs(ctx context.Context, collegeID int, prefix string, limit int) ([]string, error) {
	const q = `SELECT student_id FROM students
		WHERE college_id = $1 AND student_id LIKE $2
		ORDER BY student_id DESC LIMIT $3`

	ids := make([]string, 0)
	if err := repo.exec.SelectContext(ctx, &ids, q, collegeID, startsWith(prefix), limit); err != nil {
		return nil, errors.Wrap(err, "listing student IDs")
	}
	return ids, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != 0:
		where, arg = "id = $1", filter.ID
	case filter.StudentID != "":
		where, arg = "student_id = $1", filter.StudentID
	case filter.Email != "":
		where, arg = "lower(email) = lower($1)", filter.Email
	default:
		return student.Student{}, student.ErrNotFound
	}

	var row studentRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+studentColumns+" FROM students WHERE "+where+" LIMIT 1", arg); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "getting student")
	}
	return row.toStudent(), nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, st student.Student) (student.Student, error) {
	const q = `INSERT INTO students (
		student_id, name_en, name_ar, first_name, middle_name, last_name,
		first_name_ar, middle_name_ar, last_name_ar, email, phone, date_of_birth, gender, nationality,
		national_id, address, college_id, major_id, enrollment_date, study_type, study_load, study_approach,
		status, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	RETURNING id`

	err := repo.exec.QueryRowxContext(ctx, q,
		st.StudentID, st.NameEn, st.NameAr, st.FirstName, st.MiddleName, st.LastName,
		st.FirstNameAr, st.MiddleNameAr, st.LastNameAr, st.Email, st.Phone,
		null.NewString(st.DateOfBirth, st.DateOfBirth != ""), st.Gender, st.Nationality,
		st.NationalID, st.Address, st.CollegeID, st.MajorID, st.EnrollmentDate,
		st.StudyType, st.StudyLoad, st.StudyApproach, st.Status, st.CreatedAt, st.UpdatedAt,
	).Scan(&st.ID)
	if err != nil {
		if database.IsUniqueViolation(err, "student_id") {
			return student.Student{}, errors.Wrapf(student.ErrStudentIDTaken, "inserting student %s", st.StudentID)
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return st, nil
}

func (repo studentRepository) GetApplication(ctx context.Context, id int) (student.Application, error) {
	var row applicationRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+applicationColumns+" FROM applications WHERE id = $1", id); err != nil {
		return student.Application{}, trapNoRowsErr(err, student.ErrApplicationNotFound, "getting application")
	}
	return row.toApplication(), nil
}

func (repo studentRepository) UpdateApplicationStatus(ctx context.Context, id int, status string) error {
	res, err := repo.exec.ExecContext(ctx,
		"UPDATE applications SET status = $2, updated_at = now() WHERE id = $1", id, status)
	if err != nil {
		return errors.Wrap(err, "updating application status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "updating application status")
	}
	if n == 0 {
		return student.ErrApplicationNotFound
	}
	return nil
}
