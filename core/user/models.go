package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/kulliya/core"
)

// Roles
const (
	// Admin
	RoleAdmin           = "admin:"
	RoleAdminOwner      = "admin:owner"
	RoleAdminRegistrar  = "admin:registrar"
	RoleAdminAdmissions = "admin:admissions"

	// Instructor
	RoleInstructor = "instructor:"

	// Student
	RoleStudent = "student:"
)

var (
	AdminRoles      = []string{RoleAdmin, RoleAdminOwner, RoleAdminRegistrar, RoleAdminAdmissions}
	InstructorRoles = []string{RoleInstructor}
	StudentRoles    = []string{RoleStudent}
	AllRoles        = getAllRoles()

	// AdmissionsRoles may convert applications into students.
	AdmissionsRoles = []string{RoleAdminOwner, RoleAdminRegistrar, RoleAdminAdmissions}
)

func getAllRoles() []string {
	all := make([]string, 0, 6)
	all = append(all, AdminRoles...)
	all = append(all, InstructorRoles...)
	all = append(all, StudentRoles...)
	return all
}

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	IsActive     bool      `json:"is_active"`
	Roles        []string  `json:"roles"`
	CollegeID    *int      `json:"college_id"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) RoleStartsWith(prefix string) bool {
	for _, role := range u.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (u *User) HasAnyRole(roles ...string) bool {
	for _, want := range roles {
		for _, role := range u.Roles {
			if role == want {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.RoleStartsWith(RoleAdmin)
}

func (u *User) IsStudent() bool {
	return u.RoleStartsWith(RoleStudent)
}

// NewAccount contains the information needed to provision a login for someone created elsewhere
// (e.g. a freshly converted student).
type NewAccount struct {
	Email     string
	Password  string
	Role      string
	CollegeID *int
	Name      string
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Clean() {
	rp.Token = core.CleanString(rp.Token)
	rp.UID = core.CleanString(rp.UID)
}

type GetFilter struct {
	ID    string
	Email string
}
