package inmemdb

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/kulliya/core/user"
)

var errEmailTaken = errors.New("email already taken")

type userRepository struct {
	db *userTable
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db.users}
}

func (repo *userRepository) emailTaken(email, exceptID string) bool {
	for id, usr := range repo.db.t {
		if id != exceptID && strings.EqualFold(usr.Email, email) {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if repo.emailTaken(usr.Email, "") {
		return user.User{}, user.ErrEmailExists
	}
	usr.ID = uuid.New().String()
	repo.db.t[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.t[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, usr := range repo.db.t {
			if strings.EqualFold(usr.Email, filter.Email) {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.t[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, usr.ID) {
		return user.User{}, user.ErrEmailExists
	}
	repo.db.t[usr.ID] = &usr
	return usr, nil
}
