package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

// query returns all users sorted by ID. Callers hold the lock.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users
}

func (repo *userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	excluded := make(map[int]struct{}, len(excludedUsers))
	for _, u := range excludedUsers {
		excluded[u.ID] = struct{}{}
	}
	for _, usr := range repo.query() {
		if _, ok := excluded[usr.ID]; ok {
			continue
		}
		if usr.Username == username {
			return user.ErrUsernameExists
		}
		if usr.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.userPK++
	usr.ID = repo.db.userPK
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) QueryAllUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	matches := func(usr user.User) bool {
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(usr.Username), s) &&
				!strings.Contains(strings.ToLower(usr.Email), s) &&
				!strings.Contains(strings.ToLower(usr.FirstName), s) &&
				!strings.Contains(strings.ToLower(usr.LastName), s) {
				return false
			}
		}
		if filter.Role != "" && usr.Role != filter.Role {
			return false
		}
		if filter.Activated != nil && usr.Activated != *filter.Activated {
			return false
		}
		return true
	}

	var users []user.User
	for _, usr := range repo.query() {
		if matches(usr) {
			users = append(users, usr)
		}
	}
	return users, nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(func(usr user.User) bool { return usr.Username == username })
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(func(usr user.User) bool { return usr.Email == email })
}

func (repo *userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(func(usr user.User) bool { return usr.Username == username || usr.Email == username })
}

func (repo *userRepository) GetUserByEmailVerificationToken(ctx context.Context, token string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(func(usr user.User) bool {
		return usr.EmailVerificationToken.Valid && usr.EmailVerificationToken.String == token
	})
}

func (repo *userRepository) GetUserByPasswordResetToken(ctx context.Context, token string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(func(usr user.User) bool {
		return usr.PasswordResetToken.Valid && usr.PasswordResetToken.String == token
	})
}

func (repo *userRepository) getUser(match func(user.User) bool) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if match(usr) {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}
