package student

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/college"
	"github.com/trezcool/kulliya/core/user"
)

const defaultInsertMaxAttempts = 5

var (
	NowFunc         = time.Now // mockable
	welcomeTemplate = "student_welcome"

	// errors
	ErrNotFound               = errors.New("student not found")
	ErrApplicationNotFound    = errors.New("application not found")
	ErrStudentIDTaken         = errors.New("student ID already taken")
	ErrMissingRequiredField   = errors.New("application is missing a required field")
	ErrInsertRetriesExhausted = errors.New("could not insert student: student ID kept colliding")
	ErrApplicationRejected    = errors.New("a rejected application cannot be accepted")
)

type (
	Repository interface {
		IDLister

		// GetStudent fails with ErrNotFound.
		GetStudent(ctx context.Context, filter GetFilter) (Student, error)
		// CreateStudent fails with ErrStudentIDTaken when the student ID is already used.
		CreateStudent(ctx context.Context, st Student) (Student, error)

		// GetApplication fails with ErrApplicationNotFound.
		GetApplication(ctx context.Context, id int) (Application, error)
		UpdateApplicationStatus(ctx context.Context, id int, status string) error
	}

	// AuthProvisioner creates login accounts.
	AuthProvisioner interface {
		ProvisionAccount(ctx context.Context, acc user.NewAccount) (user.User, error)
	}

	// passwordSetupLinker is implemented by provisioners able to build a password setup link.
	passwordSetupLinker interface {
		PasswordSetupURL(usr user.User) (string, error)
	}

	// BillingRecorder records the billing trail of a registration fee paid while applying.
	BillingRecorder interface {
		RecordRegistrationFee(ctx context.Context, st Student, app Application) error
	}

	Service struct {
		repo     Repository
		colleges college.Repository
		alloc    *Allocator
		auth     AuthProvisioner
		billing  BillingRecorder
		mailSvc  core.EmailService
		logger   core.Logger
		conf     *core.Config

		insertMaxAttempts int
	}
)

func NewService(
	repo Repository,
	colleges college.Repository,
	auth AuthProvisioner,
	billing BillingRecorder,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	svc := &Service{
		repo:              repo,
		colleges:          colleges,
		alloc:             NewAllocator(repo, conf.Students),
		auth:              auth,
		billing:           billing,
		mailSvc:           mailSvc,
		logger:            logger,
		conf:              conf,
		insertMaxAttempts: conf.Students.InsertMaxAttempts,
	}
	if svc.insertMaxAttempts < 1 {
		svc.insertMaxAttempts = defaultInsertMaxAttempts
	}
	return svc
}

// CreateFromApplication turns an application into a student. Running it again for the same email is a no-op.
//
// Only precondition violations, student ID exhaustion and insertion failures are returned as errors:
// once the student exists, failures to provision its account, to email it or to record its
// registration fee are reported as warnings on the result.
func (svc *Service) CreateFromApplication(ctx context.Context, app Application, customPassword string) (ConversionResult, error) {
	app.Clean()
	if app.Email == "" {
		return ConversionResult{}, core.NewValidationError(
			ErrMissingRequiredField,
			core.FieldError{Field: "email", Error: "this field is required"},
		)
	}

	existing, err := svc.repo.GetStudent(ctx, GetFilter{Email: app.Email})
	if err == nil {
		return ConversionResult{AlreadyExists: true, Student: &existing}, nil
	}
	if pkgerrors.Cause(err) != ErrNotFound {
		return ConversionResult{}, pkgerrors.Wrap(err, "looking up student by email")
	}

	if flds := app.missingConversionFields(); len(flds) > 0 {
		return ConversionResult{}, core.NewValidationError(ErrMissingRequiredField, flds...)
	}

	col, err := svc.colleges.GetCollege(ctx, *app.CollegeID)
	if err != nil {
		return ConversionResult{}, pkgerrors.Wrap(err, "getting college")
	}

	now := NowFunc()
	st, err := svc.insertStudent(ctx, app, col, now)
	if err != nil {
		return ConversionResult{}, err
	}

	res := ConversionResult{Success: true, Student: &st, Password: customPassword}
	if strings.TrimSpace(res.Password) == "" {
		res.Password = TempPassword(st.StudentID, now.Year())
	}

	svc.provisionAccount(ctx, st, res.Password, &res)

	if app.HasPaidRegistrationFee() {
		if err = svc.billing.RecordRegistrationFee(ctx, st, app); err != nil {
			res.warn(StepRetroactiveBilling, err)
			svc.logger.Warn("recording registration fee", err, map[string]interface{}{
				"student_id":  st.StudentID,
				"application": app.Reference(),
			})
		}
	}
	return res, nil
}

// TempPassword is the password given to students converted without an explicit one.
func TempPassword(studentID string, year int) string {
	return fmt.Sprintf("Temp%s@%d", studentID, year)
}

type insertOutcome int

const (
	insertOK insertOutcome = iota
	insertCollision
	insertFailed
)

func (svc *Service) tryInsert(ctx context.Context, st Student) (Student, insertOutcome, error) {
	created, err := svc.repo.CreateStudent(ctx, st)
	switch {
	case err == nil:
		return created, insertOK, nil
	case errors.Is(err, ErrStudentIDTaken):
		return Student{}, insertCollision, err
	default:
		return Student{}, insertFailed, err
	}
}

// insertStudent allocates a student ID and inserts the student,
// allocating a new ID whenever the store reports the previous one as taken.
func (svc *Service) insertStudent(ctx context.Context, app Application, col college.College, now time.Time) (Student, error) {
	var collided []string
	for attempt := 1; attempt <= svc.insertMaxAttempts; attempt++ {
		sid, err := svc.alloc.Allocate(ctx, col, now.Year(), collided...)
		if err != nil {
			return Student{}, pkgerrors.Wrap(err, "allocating student ID")
		}

		created, outcome, err := svc.tryInsert(ctx, newStudent(app, sid, now))
		switch outcome {
		case insertOK:
			return created, nil
		case insertCollision:
			svc.logger.Info("student ID collision", map[string]interface{}{"student_id": sid, "attempt": attempt})
			collided = append(collided, sid)
		case insertFailed:
			return Student{}, pkgerrors.Wrap(err, "creating student")
		}
	}
	return Student{}, ErrInsertRetriesExhausted
}

func (svc *Service) provisionAccount(ctx context.Context, st Student, pwd string, res *ConversionResult) {
	collegeID := st.CollegeID
	usr, err := svc.auth.ProvisionAccount(ctx, user.NewAccount{
		Email:     st.Email,
		Password:  pwd,
		Role:      user.RoleStudent,
		CollegeID: &collegeID,
		Name:      st.NameEn,
	})
	if err != nil {
		res.warn(StepAuthProvisioning, err)
		svc.logger.Warn("provisioning student account", err, map[string]interface{}{"student_id": st.StudentID})
		return
	}

	if svc.conf.Students.SendWelcomeEmail && svc.mailSvc != nil {
		if err = svc.sendWelcomeEmail(usr, st, pwd); err != nil {
			res.warn(StepWelcomeEmail, err)
			svc.logger.Warn("sending welcome email", err, map[string]interface{}{"student_id": st.StudentID})
		}
	}
}

func (svc *Service) sendWelcomeEmail(usr user.User, st Student, pwd string) error {
	var setupURL string
	if linker, ok := svc.auth.(passwordSetupLinker); ok {
		var err error
		if setupURL, err = linker.PasswordSetupURL(usr); err != nil {
			return pkgerrors.Wrap(err, "making password setup link")
		}
	}

	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: st.NameEn, Address: st.Email}},
		Subject:      "Welcome! Your student account",
		TemplateName: welcomeTemplate,
		TemplateData: map[string]interface{}{
			"Name":      st.NameEn,
			"StudentID": st.StudentID,
			"Email":     st.Email,
			"Password":  pwd,
			"SetupURL":  setupURL,
		},
	}
	// rendered here so template errors surface as a warning; sending stays asynchronous
	if err := msg.Render(svc.conf); err != nil {
		return pkgerrors.Wrap(err, "rendering welcome email")
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

// AcceptApplication marks the application as accepted and converts it into a student.
func (svc *Service) AcceptApplication(ctx context.Context, applicationID int, customPassword string) (ConversionResult, error) {
	app, err := svc.repo.GetApplication(ctx, applicationID)
	if err != nil {
		return ConversionResult{}, pkgerrors.Wrap(err, "getting application")
	}
	if app.Status == ApplicationRejected {
		return ConversionResult{}, core.NewValidationError(ErrApplicationRejected)
	}

	if app.Status != ApplicationAccepted {
		if err = svc.repo.UpdateApplicationStatus(ctx, app.ID, ApplicationAccepted); err != nil {
			return ConversionResult{}, pkgerrors.Wrap(err, "accepting application")
		}
		app.Status = ApplicationAccepted
	}
	return svc.CreateFromApplication(ctx, app, customPassword)
}

// PreviewStudentID returns the ID the next student of a college would most likely get.
func (svc *Service) PreviewStudentID(ctx context.Context, collegeID int) (string, error) {
	col, err := svc.colleges.GetCollege(ctx, collegeID)
	if err != nil {
		return "", pkgerrors.Wrap(err, "getting college")
	}
	return svc.alloc.Allocate(ctx, col, NowFunc().Year())
}

func (svc *Service) GetStudent(ctx context.Context, filter GetFilter) (Student, error) {
	return svc.repo.GetStudent(ctx, filter)
}
