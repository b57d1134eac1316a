package pgdb

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/tkimaro/shule/core"
	"github.com/tkimaro/shule/core/user"
)

type dbUser struct {
	ID                      int         `db:"id"`
	Username                string      `db:"username"`
	Role                    string      `db:"role"`
	Email                   string      `db:"email"`
	FirstName               string      `db:"first_name"`
	LastName                string      `db:"last_name"`
	BirthDate               time.Time   `db:"birth_date"`
	PhoneNumber             null.String `db:"phone_number"`
	ProfilePicture          null.String `db:"profile_picture"`
	PasswordHash            []byte      `db:"password_hash"`
	EmailVerified           bool        `db:"email_verified"`
	EmailVerificationToken  null.String `db:"email_verification_token"`
	EmailVerificationExpiry null.Time   `db:"email_verification_expiry"`
	PasswordResetToken      null.String `db:"password_reset_token"`
	PasswordResetExpiry     null.Time   `db:"password_reset_expiry"`
	Activated               bool        `db:"activated"`
	CreatedAt               time.Time   `db:"created_at"`
	UpdatedAt               time.Time   `db:"updated_at"`
}

func (u dbUser) toUser() user.User {
	return user.User{
		ID:                      u.ID,
		Username:                u.Username,
		Role:                    u.Role,
		Email:                   u.Email,
		FirstName:               u.FirstName,
		LastName:                u.LastName,
		BirthDate:               u.BirthDate,
		PhoneNumber:             u.PhoneNumber,
		ProfilePicture:          u.ProfilePicture,
		PasswordHash:            u.PasswordHash,
		EmailVerified:           u.EmailVerified,
		EmailVerificationToken:  u.EmailVerificationToken,
		EmailVerificationExpiry: u.EmailVerificationExpiry,
		PasswordResetToken:      u.PasswordResetToken,
		PasswordResetExpiry:     u.PasswordResetExpiry,
		Activated:               u.Activated,
		CreatedAt:               u.CreatedAt,
		UpdatedAt:               u.UpdatedAt,
	}
}

func toUsers(rows []dbUser) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, u := range rows {
		users = append(users, u.toUser())
	}
	return users
}

const userColumns = `id, username, role, email, first_name, last_name, birth_date, phone_number, profile_picture,
	password_hash, email_verified, email_verification_token, email_verification_expiry,
	password_reset_token, password_reset_expiry, activated, created_at, updated_at`

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return repo.exec
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	exe := repo.getExec(exec)

	q := `SELECT username, email FROM "user" WHERE (username = ? OR email = ?)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]int, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		var err error
		if q, args, err = sqlx.In(q+" AND id NOT IN (?)", username, email, ids); err != nil {
			return errors.Wrap(err, "checking user uniqueness")
		}
	}

	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if row.Username == username {
			return user.ErrUsernameExists
		}
		if row.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	exe := repo.getExec(exec)

	q := `
	INSERT INTO "user" (username, role, email, first_name, last_name, birth_date, phone_number, profile_picture,
		password_hash, email_verified, email_verification_token, email_verification_expiry,
		password_reset_token, password_reset_expiry, activated, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	RETURNING id`
	err := exe.GetContext(ctx, &usr.ID, q,
		usr.Username, usr.Role, usr.Email, usr.FirstName, usr.LastName, usr.BirthDate,
		usr.PhoneNumber, usr.ProfilePicture, usr.PasswordHash, usr.EmailVerified,
		usr.EmailVerificationToken, usr.EmailVerificationExpiry,
		usr.PasswordResetToken, usr.PasswordResetExpiry,
		usr.Activated, usr.CreatedAt, usr.UpdatedAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context, exec ...core.DBExecutor) ([]user.User, error) {
	var rows []dbUser
	q := `SELECT ` + userColumns + ` FROM "user"`
	if err := repo.getExec(exec).SelectContext(ctx, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return toUsers(rows), nil
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	exe := repo.getExec(exec)

	var conds []string
	var args []interface{}
	if filter.Search != "" {
		conds = append(conds, "(username ILIKE ? OR email ILIKE ? OR first_name ILIKE ? OR last_name ILIKE ?)")
		val := "%" + filter.Search + "%"
		args = append(args, val, val, val, val)
	}
	if filter.Role != "" {
		conds = append(conds, "role = ?")
		args = append(args, filter.Role)
	}
	if filter.Activated != nil {
		conds = append(conds, "activated = ?")
		args = append(args, *filter.Activated)
	}

	q := `SELECT ` + userColumns + ` FROM "user"`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	if len(ordering) > 0 {
		orderList := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			orderList = append(orderList, ord.String())
		}
		q += " ORDER BY " + strings.Join(orderList, ", ")
	}

	var rows []dbUser
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return toUsers(rows), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM "user" WHERE id = $1`, id, "finding user by ID", exec)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM "user" WHERE username = $1`, username, "finding user by username", exec)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM "user" WHERE email = $1`, email, "finding user by email", exec)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	var row dbUser
	q := `SELECT ` + userColumns + ` FROM "user" WHERE username = $1 OR email = $1`
	if err := repo.getExec(exec).GetContext(ctx, &row, q, username); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "finding user by username or email")
	}
	return row.toUser(), nil
}

func (repo userRepository) GetUserByEmailVerificationToken(ctx context.Context, token string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM "user" WHERE email_verification_token = $1`, token, "finding user by verification token", exec)
}

func (repo userRepository) GetUserByPasswordResetToken(ctx context.Context, token string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, `SELECT `+userColumns+` FROM "user" WHERE password_reset_token = $1`, token, "finding user by reset token", exec)
}

func (repo userRepository) getUser(ctx context.Context, q string, arg interface{}, msg string, exec []core.DBExecutor) (user.User, error) {
	var row dbUser
	if err := repo.getExec(exec).GetContext(ctx, &row, q, arg); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, msg)
	}
	return row.toUser(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := `
	UPDATE "user"
	SET username = $1, role = $2, email = $3, first_name = $4, last_name = $5, birth_date = $6,
		phone_number = $7, profile_picture = $8, password_hash = $9, email_verified = $10,
		email_verification_token = $11, email_verification_expiry = $12,
		password_reset_token = $13, password_reset_expiry = $14,
		activated = $15, updated_at = $16
	WHERE id = $17`
	res, err := repo.getExec(exec).ExecContext(ctx, q,
		usr.Username, usr.Role, usr.Email, usr.FirstName, usr.LastName, usr.BirthDate,
		usr.PhoneNumber, usr.ProfilePicture, usr.PasswordHash, usr.EmailVerified,
		usr.EmailVerificationToken, usr.EmailVerificationExpiry,
		usr.PasswordResetToken, usr.PasswordResetExpiry,
		usr.Activated, usr.UpdatedAt, usr.ID,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
