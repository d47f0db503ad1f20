package pgdb

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/WMS-GIETU/WorkshopMS/core/user"
)

type dbUser struct {
	ID           string         `db:"id"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	PasswordHash []byte         `db:"password_hash"`
	Roles        pq.StringArray `db:"roles"`
	ClubCode     string         `db:"club_code"`
	Name         string         `db:"name"`
	RollNo       string         `db:"roll_no"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (u dbUser) toUser() user.User {
	roles := make([]user.Role, len(u.Roles))
	for i, r := range u.Roles {
		roles[i] = user.Role(r)
	}
	return user.User{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Roles:        roles,
		ClubCode:     u.ClubCode,
		Name:         u.Name,
		RollNo:       u.RollNo,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func rolesArray(roles []user.Role) pq.StringArray {
	arr := make(pq.StringArray, len(roles))
	for i, r := range roles {
		arr[i] = string(r)
	}
	return arr
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, roles, club_code, name, roll_no, created_at, updated_at`

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO app_user (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		usr.ID, usr.Username, usr.Email, usr.PasswordHash, rolesArray(usr.Roles),
		usr.ClubCode, usr.Name, usr.RollNo, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "app_user_one_admin_per_club_idx"):
			return user.User{}, user.ErrAdminExists
		case uniqueViolation(err, "app_user_roll_no_idx"):
			return user.User{}, user.ErrRollNoExists
		case uniqueViolation(err, ""):
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) getUser(ctx context.Context, query string, args ...interface{}) (user.User, error) {
	var row dbUser
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM app_user WHERE id = $1`, id)
}

func (repo *userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM app_user WHERE username = $1 LIMIT 1`, username)
}

func (repo *userRepository) GetUserByUsernameAndClub(ctx context.Context, username, clubCode string) (user.User, error) {
	return repo.getUser(ctx, `
		SELECT `+userColumns+` FROM app_user
		WHERE username = $1 AND club_code = $2`, username, clubCode)
}

func (repo *userRepository) GetUserByIdentity(ctx context.Context, username, email, clubCode string, role user.Role) (user.User, error) {
	return repo.getUser(ctx, `
		SELECT `+userColumns+` FROM app_user
		WHERE (username = $1 OR email = $2)
		  AND ($3 = '' OR club_code = $3)
		  AND roles @> ARRAY[$4]::TEXT[]
		LIMIT 1`, username, email, clubCode, string(role))
}

func (repo *userRepository) GetAdminByClub(ctx context.Context, clubCode string) (user.User, error) {
	return repo.getUser(ctx, `
		SELECT `+userColumns+` FROM app_user
		WHERE club_code = $1 AND roles @> ARRAY['admin']::TEXT[]`, clubCode)
}

func (repo *userRepository) FilterUsersByClub(ctx context.Context, clubCode string) ([]user.User, error) {
	var rows []dbUser
	err := repo.db.SelectContext(ctx, &rows, `
		SELECT `+userColumns+` FROM app_user
		WHERE club_code = $1 ORDER BY created_at`, clubCode)
	if err != nil {
		return nil, err
	}
	users := make([]user.User, len(rows))
	for i, row := range rows {
		users[i] = row.toUser()
	}
	return users, nil
}

func (repo *userRepository) AddUserRoles(ctx context.Context, id string, roles ...user.Role) (user.User, error) {
	var row dbUser
	err := repo.db.GetContext(ctx, &row, `
		UPDATE app_user
		SET roles = (SELECT ARRAY_AGG(DISTINCT r) FROM UNNEST(roles || $2::TEXT[]) AS r)
		WHERE id = $1
		RETURNING `+userColumns, id, rolesArray(roles))
	if err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		if uniqueViolation(err, "app_user_one_admin_per_club_idx") {
			return user.User{}, user.ErrAdminExists
		}
		return user.User{}, err
	}
	return row.toUser(), nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	res, err := repo.db.ExecContext(ctx, `
		UPDATE app_user
		SET username = $2, email = $3, password_hash = $4, updated_at = $5
		WHERE id = $1`,
		usr.ID, usr.Username, usr.Email, usr.PasswordHash, usr.UpdatedAt,
	)
	if err != nil {
		if uniqueViolation(err, "") {
			return user.User{}, user.ErrUserExists
		}
		return user.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo *userRepository) DeleteUser(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM app_user WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}
