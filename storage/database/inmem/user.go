package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

type userRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users
}

// CreateUser enforces the identity and one-admin-per-club invariants under
// the write lock, like the partial unique indexes do in postgres.
func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, u := range repo.db.users {
		if u.ClubCode == usr.ClubCode && (u.Username == usr.Username || u.Email == usr.Email) {
			return user.User{}, user.ErrUserExists
		}
		if usr.RollNo != "" && u.RollNo == usr.RollNo {
			return user.User{}, user.ErrRollNoExists
		}
		// club-less admins (the system admin) are exempt, like the
		// club_code <> '' condition on the postgres partial index
		if usr.ClubCode != "" && user.HasRole(usr.Roles, user.RoleAdmin) && u.IsAdmin() && u.ClubCode == usr.ClubCode {
			return user.User{}, user.ErrAdminExists
		}
	}

	usr.ID = uuid.NewString()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Username == username {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByUsernameAndClub(_ context.Context, username, clubCode string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.Username == username && usr.ClubCode == clubCode {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByIdentity(_ context.Context, username, email, clubCode string, role user.Role) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if clubCode != "" && usr.ClubCode != clubCode {
			continue
		}
		if !user.HasRole(usr.Roles, role) {
			continue
		}
		if usr.Username == username || usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetAdminByClub(_ context.Context, clubCode string) (user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, usr := range repo.query() {
		if usr.IsAdmin() && usr.ClubCode == clubCode {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsersByClub(_ context.Context, clubCode string) ([]user.User, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var users []user.User
	for _, usr := range repo.query() {
		if usr.ClubCode == clubCode {
			users = append(users, usr)
		}
	}
	return users, nil
}

func (repo *userRepository) AddUserRoles(_ context.Context, id string, roles ...user.Role) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	usr, ok := repo.db.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.Roles = user.MergeRoles(usr.Roles, roles...)
	return *usr, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.users {
		if u.ID != usr.ID && u.ClubCode == usr.ClubCode && (u.Username == usr.Username || u.Email == usr.Email) {
			return user.User{}, user.ErrUserExists
		}
	}
	orig.Username = usr.Username
	orig.Email = usr.Email
	if usr.PasswordHash != nil {
		orig.PasswordHash = usr.PasswordHash
	}
	orig.UpdatedAt = usr.UpdatedAt
	return *orig, nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.users, id)
	return nil
}
