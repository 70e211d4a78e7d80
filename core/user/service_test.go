package user_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/user"
	"github.com/trezcool/kulliya/storage/database/inmem"
)

func newService() *user.Service {
	conf := &core.Config{
		SecretKey:                 "secret",
		FrontendBaseURL:           "http://localhost:8080",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	return user.NewService(inmemdb.NewUserRepository(inmemdb.Open()), conf)
}

func TestService_ProvisionAccount(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	collegeID := 7

	usr, err := svc.ProvisionAccount(ctx, user.NewAccount{
		Email: " A@X.com ", Password: "TempSTU20240001@2024", Role: user.RoleStudent, CollegeID: &collegeID, Name: "Ann Lee",
	})
	if err != nil {
		t.Fatalf("ProvisionAccount() error = %v", err)
	}
	if usr.ID == "" || usr.Email != "a@x.com" || !usr.IsActive || !usr.IsStudent() || *usr.CollegeID != 7 {
		t.Errorf("ProvisionAccount() = %+v", usr)
	}
	if err = usr.CheckPassword("TempSTU20240001@2024"); err != nil {
		t.Errorf("CheckPassword() error = %v", err)
	}

	tests := []struct {
		name    string
		acc     user.NewAccount
		wantErr error
	}{
		{name: "email exists", acc: user.NewAccount{Email: "a@x.com", Password: "x", Role: user.RoleStudent}, wantErr: user.ErrEmailExists},
		{name: "invalid role", acc: user.NewAccount{Email: "b@x.com", Password: "x", Role: "janitor:"}, wantErr: user.ErrInvalidRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ProvisionAccount(ctx, tt.acc); !errors.Is(err, tt.wantErr) {
				t.Errorf("ProvisionAccount() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	var verr *core.ValidationError
	if _, err = svc.ProvisionAccount(ctx, user.NewAccount{Role: user.RoleStudent}); !errors.As(err, &verr) {
		t.Errorf("ProvisionAccount(no email) error = %v, want a validation error", err)
	}
}

func TestService_Authenticate(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	if _, err := svc.AddOrUpdate(ctx, "Admin", "admin@x.com", "c0rrect-Horse", []string{user.RoleAdminOwner}); err != nil {
		t.Fatalf("AddOrUpdate() error = %v", err)
	}

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "nobody@x.com", pwd: "c0rrect-Horse", wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", email: "admin@x.com", pwd: "wrong", wantErr: user.ErrInvalidCredentials},
		{name: "valid", email: "ADMIN@x.com", pwd: "c0rrect-Horse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if err != tt.wantErr {
				t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && usr.LastLogin.IsZero() {
				t.Error("Authenticate() did not record the login")
			}
		})
	}
}

func TestService_ResetPassword(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	usr, err := svc.ProvisionAccount(ctx, user.NewAccount{Email: "a@x.com", Password: "TempSTU20240001@2024", Role: user.RoleStudent})
	if err != nil {
		t.Fatalf("ProvisionAccount() error = %v", err)
	}

	link, err := svc.PasswordSetupURL(usr)
	if err != nil {
		t.Fatalf("PasswordSetupURL() error = %v", err)
	}
	u, err := url.Parse(link)
	if err != nil || !strings.HasPrefix(link, "http://localhost:8080/password-reset/") {
		t.Fatalf("PasswordSetupURL() = %q", link)
	}
	parts := strings.Split(strings.TrimPrefix(u.Path, "/password-reset/"), "/")
	if len(parts) != 2 {
		t.Fatalf("PasswordSetupURL() = %q, want .../<uid>/<token>", link)
	}
	uid, token := parts[0], parts[1]

	var verr *core.ValidationError
	weak := user.ResetUserPassword{UID: uid, Token: token, Password: "weakweak", PasswordConfirm: "weakweak"}
	if err = svc.ResetPassword(ctx, weak); !errors.As(err, &verr) {
		t.Errorf("ResetPassword(weak) error = %v, want a validation error", err)
	}
	bad := user.ResetUserPassword{UID: uid, Token: token + "x", Password: "c0rrect-Horse", PasswordConfirm: "c0rrect-Horse"}
	if err = svc.ResetPassword(ctx, bad); !errors.As(err, &verr) {
		t.Errorf("ResetPassword(bad token) error = %v, want a validation error", err)
	}

	good := user.ResetUserPassword{UID: uid, Token: token, Password: "c0rrect-Horse", PasswordConfirm: "c0rrect-Horse"}
	if err = svc.ResetPassword(ctx, good); err != nil {
		t.Fatalf("ResetPassword() error = %v", err)
	}
	if _, err = svc.Authenticate(ctx, "a@x.com", "c0rrect-Horse"); err != nil {
		t.Errorf("Authenticate() with the new password error = %v", err)
	}

	// the token is single use: the password hash changed
	if err = svc.ResetPassword(ctx, good); !errors.As(err, &verr) {
		t.Errorf("ResetPassword() reusing the token error = %v, want a validation error", err)
	}
}
