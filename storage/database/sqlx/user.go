package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/kulliya/core"
	"github.com/trezcool/kulliya/core/user"
	"github.com/trezcool/kulliya/storage/database"
)

type userRow struct {
	ID           string         `db:"id"`
	Name         string         `db:"name"`
	Email        string         `db:"email"`
	IsActive     bool           `db:"is_active"`
	Roles        pq.StringArray `db:"roles"`
	CollegeID    null.Int       `db:"college_id"`
	PasswordHash []byte         `db:"password_hash"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
	LastLogin    null.Time      `db:"last_login"`
}

const userColumns = `id, name, email, is_active, roles, college_id, password_hash, created_at, updated_at, last_login`

func newUserRow(usr user.User) userRow {
	roles := usr.Roles
	if roles == nil {
		roles = []string{}
	}
	return userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		IsActive:     usr.IsActive,
		Roles:        roles,
		CollegeID:    null.IntFromPtr(usr.CollegeID),
		PasswordHash: usr.PasswordHash,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func (r userRow) toUser() user.User {
	return user.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		IsActive:     r.IsActive,
		Roles:        []string(r.Roles),
		CollegeID:    r.CollegeID.Ptr(),
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
		LastLogin:    r.LastLogin.Time.UTC(),
	}
}

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{base{exec: exec}}
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	usr.ID = uuid.New().String()
	r := newUserRow(usr)
	_, err := repo.exec.ExecContext(ctx, q,
		r.ID, r.Name, r.Email, r.IsActive, r.Roles, r.CollegeID, r.PasswordHash, r.CreatedAt, r.UpdatedAt, r.LastLogin)
	if err != nil {
		if database.IsUniqueViolation(err, "email") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	var (
		where string
		arg   interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		where, arg = "id = $1", filter.ID
	case filter.Email != "":
		where, arg = "email = $1", filter.Email
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.exec.GetContext(ctx, &row, "SELECT "+userColumns+" FROM users WHERE "+where, arg); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}
	return row.toUser(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	const q = `UPDATE users SET name = $2, email = $3, is_active = $4, roles = $5, college_id = $6,
		password_hash = $7, updated_at = $8, last_login = $9
		WHERE id = $1`

	r := newUserRow(usr)
	res, err := repo.exec.ExecContext(ctx, q,
		r.ID, r.Name, r.Email, r.IsActive, r.Roles, r.CollegeID, r.PasswordHash, r.UpdatedAt, r.LastLogin)
	if err != nil {
		if database.IsUniqueViolation(err, "email") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
