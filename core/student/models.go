package student

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trezcool/kulliya/core"
)

// Application statuses
const (
	ApplicationPending     = "pending"
	ApplicationUnderReview = "under_review"
	ApplicationAccepted    = "accepted"
	ApplicationRejected    = "rejected"
)

// Student defaults
const (
	StatusActive = "active"

	DefaultStudyType     = "full_time"
	DefaultStudyLoad     = "normal"
	DefaultStudyApproach = "on_campus"
)

// Application is an admissions application. It is never modified by the conversion.
type Application struct {
	ID                int        `json:"id"`
	ApplicationNumber string     `json:"application_number"`
	FirstName         string     `json:"first_name" validate:"required,notblank,max=100"`
	MiddleName        string     `json:"middle_name" validate:"max=100"`
	LastName          string     `json:"last_name" validate:"required,notblank,max=100"`
	FirstNameAr       string     `json:"first_name_ar" validate:"max=100"`
	MiddleNameAr      string     `json:"middle_name_ar" validate:"max=100"`
	LastNameAr        string     `json:"last_name_ar" validate:"max=100"`
	Email             string     `json:"email" validate:"required,email"`
	Phone             string     `json:"phone" validate:"max=30"`
	DateOfBirth       string     `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
	Gender            string     `json:"gender" validate:"omitempty,oneof=male female"`
	Nationality       string     `json:"nationality"`
	NationalID        string     `json:"national_id"`
	Address           string     `json:"address"`
	CollegeID         *int       `json:"college_id"`
	MajorID           *int       `json:"major_id"`
	EnrollmentDate    *time.Time `json:"enrollment_date"`
	StudyType         string     `json:"study_type" validate:"omitempty,oneof=full_time part_time"`
	StudyLoad         string     `json:"study_load" validate:"omitempty,oneof=light normal heavy"`
	StudyApproach     string     `json:"study_approach" validate:"omitempty,oneof=on_campus online hybrid"`
	Status            string     `json:"status"`

	// registration fee collected while applying, if any
	RegistrationFeeAmount decimal.NullDecimal `json:"registration_fee_amount"`
	RegistrationFeePaidAt *time.Time          `json:"registration_fee_paid_at"`
	RegistrationFeeMethod string              `json:"registration_fee_method"`
}

// Clean normalizes the free-text fields of the application.
func (a *Application) Clean() {
	a.FirstName = core.CleanString(a.FirstName)
	a.MiddleName = core.CleanString(a.MiddleName)
	a.LastName = core.CleanString(a.LastName)
	a.FirstNameAr = core.CleanString(a.FirstNameAr)
	a.MiddleNameAr = core.CleanString(a.MiddleNameAr)
	a.LastNameAr = core.CleanString(a.LastNameAr)
	a.Email = core.CleanString(a.Email, true /* lower */)
	a.Phone = core.CleanString(a.Phone)
}

// HasPaidRegistrationFee reports whether the registration fee was already collected:
// both the amount and the payment time must be known.
func (a Application) HasPaidRegistrationFee() bool {
	return a.RegistrationFeeAmount.Valid && a.RegistrationFeePaidAt != nil
}

// Reference is a human readable pointer to the application.
func (a Application) Reference() string {
	if a.ApplicationNumber != "" {
		return a.ApplicationNumber
	}
	return "#" + strconv.Itoa(a.ID)
}

func (a Application) missingConversionFields() []core.FieldError {
	var flds []core.FieldError
	if a.CollegeID == nil {
		flds = append(flds, core.FieldError{Field: "college_id", Error: "this field is required"})
	}
	if a.MajorID == nil {
		flds = append(flds, core.FieldError{Field: "major_id", Error: "this field is required"})
	}
	return flds
}

type Student struct {
	ID             int       `json:"id"`
	StudentID      string    `json:"student_id"`
	NameEn         string    `json:"name_en"`
	NameAr         string    `json:"name_ar"`
	FirstName      string    `json:"first_name"`
	MiddleName     string    `json:"middle_name"`
	LastName       string    `json:"last_name"`
	FirstNameAr    string    `json:"first_name_ar"`
	MiddleNameAr   string    `json:"middle_name_ar"`
	LastNameAr     string    `json:"last_name_ar"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	DateOfBirth    string    `json:"date_of_birth"`
	Gender         string    `json:"gender"`
	Nationality    string    `json:"nationality"`
	NationalID     string    `json:"national_id"`
	Address        string    `json:"address"`
	CollegeID      int       `json:"college_id"`
	MajorID        int       `json:"major_id"`
	EnrollmentDate time.Time `json:"enrollment_date"`
	StudyType      string    `json:"study_type"`
	StudyLoad      string    `json:"study_load"`
	StudyApproach  string    `json:"study_approach"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// newStudent maps a (checked) application to the student row to insert.
func newStudent(app Application, studentID string, now time.Time) Student {
	nameEn := core.JoinNonEmpty(app.FirstName, app.MiddleName, app.LastName)
	nameAr := core.JoinNonEmpty(app.FirstNameAr, app.MiddleNameAr, app.LastNameAr)
	if nameAr == "" {
		nameAr = nameEn
	}

	y, m, d := now.Date()
	enrolled := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	if app.EnrollmentDate != nil && !app.EnrollmentDate.IsZero() {
		enrolled = *app.EnrollmentDate
	}

	return Student{
		StudentID:      studentID,
		NameEn:         nameEn,
		NameAr:         nameAr,
		FirstName:      app.FirstName,
		MiddleName:     app.MiddleName,
		LastName:       app.LastName,
		FirstNameAr:    app.FirstNameAr,
		MiddleNameAr:   app.MiddleNameAr,
		LastNameAr:     app.LastNameAr,
		Email:          app.Email,
		Phone:          app.Phone,
		DateOfBirth:    app.DateOfBirth,
		Gender:         app.Gender,
		Nationality:    app.Nationality,
		NationalID:     app.NationalID,
		Address:        app.Address,
		CollegeID:      *app.CollegeID,
		MajorID:        *app.MajorID,
		EnrollmentDate: enrolled,
		StudyType:      orDefault(app.StudyType, DefaultStudyType),
		StudyLoad:      orDefault(app.StudyLoad, DefaultStudyLoad),
		StudyApproach:  orDefault(app.StudyApproach, DefaultStudyApproach),
		Status:         StatusActive,
		CreatedAt:      now.UTC(),
		UpdatedAt:      now.UTC(),
	}
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s != "" {
		return s
	}
	return def
}

// Conversion steps whose failure does not fail the conversion.
const (
	StepAuthProvisioning   = "auth_provisioning"
	StepWelcomeEmail       = "welcome_email"
	StepRetroactiveBilling = "retroactive_billing"
)

// Warning records a secondary effect of a conversion that failed and must be done manually.
type Warning struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ConversionResult is the outcome of a successful or already-done conversion.
// Fatal failures are returned as errors instead.
type ConversionResult struct {
	Success       bool      `json:"success"`
	AlreadyExists bool      `json:"already_exists"`
	Student       *Student  `json:"student,omitempty"`
	Password      string    `json:"password,omitempty"`
	Warnings      []Warning `json:"warnings,omitempty"`
}

func (r *ConversionResult) warn(step string, err error) {
	r.Warnings = append(r.Warnings, Warning{Step: step, Message: err.Error()})
}

// GetFilter selects a single student by one of its unique keys.
type GetFilter struct {
	ID        int
	StudentID string
	Email     string
}

// ConvertApplication is the boundary payload of a direct conversion.
type ConvertApplication struct {
	Application Application `json:"application"`
	Password    string      `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
}

// AcceptApplication is the boundary payload of an admissions acceptance.
type AcceptApplication struct {
	Password string `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
}
