package user

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/kulliya/core"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")
	ErrInvalidRole        = errors.New("invalid role")
)

type (
	Repository interface {
		// CreateUser fails with ErrEmailExists if the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo   Repository
		tokens tokenGenerator
		conf   *core.Config
	}
)

func NewService(repo Repository, conf *core.Config) *Service {
	return &Service{
		repo:   repo,
		tokens: tokenGenerator{secretKey: []byte(conf.SecretKey), timeout: conf.PasswordResetTimeoutDelta},
		conf:   conf,
	}
}

func IsValidRole(role string) bool {
	for _, r := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// ProvisionAccount creates an active login with a single role.
func (svc *Service) ProvisionAccount(ctx context.Context, acc NewAccount) (User, error) {
	email := core.CleanString(acc.Email, true /* lower */)
	if email == "" {
		return User{}, core.NewValidationError(nil, core.FieldError{Field: "email", Error: "this field is required"})
	}
	if !IsValidRole(acc.Role) {
		return User{}, pkgerrors.Wrapf(ErrInvalidRole, "provisioning %q", acc.Role)
	}

	now := nowFunc().UTC()
	usr := User{
		Name:      core.CleanString(acc.Name),
		Email:     email,
		IsActive:  true,
		Roles:     []string{acc.Role},
		CollegeID: acc.CollegeID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(acc.Password); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "creating user")
	}
	return usr, nil
}

// AddOrUpdate creates the user or resets the password (and roles, if given) of an existing one.
func (svc *Service) AddOrUpdate(ctx context.Context, name, email, pwd string, roles []string) (User, error) {
	email = core.CleanString(email, true /* lower */)
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: email})
	if err != nil {
		if pkgerrors.Cause(err) != ErrNotFound {
			return User{}, pkgerrors.Wrap(err, "finding user by email")
		}
		usr = User{Email: email, CreatedAt: nowFunc().UTC()}
	}
	if name = core.CleanString(name); name != "" {
		usr.Name = name
	}
	if roles != nil {
		usr.Roles = roles
	}
	usr.IsActive = true
	usr.UpdatedAt = nowFunc().UTC()
	if err = usr.SetPassword(pwd); err != nil {
		return User{}, pkgerrors.Wrap(err, "hashing password")
	}

	if usr.ID == "" {
		return svc.repo.CreateUser(ctx, usr)
	}
	return svc.repo.UpdateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// Authenticate checks the credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, pkgerrors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = nowFunc().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, pkgerrors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

// PasswordSetupURL is the frontend link a user follows to choose a new password.
func (svc *Service) PasswordSetupURL(usr User) (string, error) {
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return "", pkgerrors.Wrap(err, "making password reset token")
	}
	return svc.conf.FrontendBaseURL + "/password-reset/" + EncodeUID(usr) + "/" + token, nil
}

func (svc *Service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	uid, err := decodeUID(data.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken)
	}
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: uid})
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return pkgerrors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verifyToken(usr, data.Token); err != nil {
		if err == errInvalidToken || err == errTokenExpired {
			return core.NewValidationError(err)
		}
		return pkgerrors.Wrap(err, "verifying token")
	}
	if tag := CheckPasswordPolicy(data.Password, usr.Name, usr.Email); tag != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: PasswordPolicyText(tag)})
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = nowFunc().UTC()
	if _, err = svc.repo.UpdateUser(ctx, usr); err != nil {
		return pkgerrors.Wrap(err, "updating user")
	}
	return nil
}
