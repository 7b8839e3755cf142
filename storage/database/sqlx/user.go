package sqlxrepos

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/user"
)

var userColumns = []string{"id", "first_name", "last_name", "username", "email", "role", "is_active", "password_hash", "created_at", "updated_at", "last_login"}

type userRow struct {
	ID           int         `db:"id"`
	FirstName    null.String `db:"first_name"`
	LastName     null.String `db:"last_name"`
	Username     string      `db:"username"`
	Email        string      `db:"email"`
	Role         string      `db:"role"`
	IsActive     bool        `db:"is_active"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func packUser(usr user.User) userRow {
	return userRow{
		ID:           usr.ID,
		FirstName:    null.NewString(usr.FirstName, usr.FirstName != ""),
		LastName:     null.NewString(usr.LastName, usr.LastName != ""),
		Username:     usr.Username,
		Email:        usr.Email,
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		PasswordHash: null.BytesFrom(usr.PasswordHash),
		CreatedAt:    null.NewTime(usr.CreatedAt.UTC(), !usr.CreatedAt.IsZero()),
		UpdatedAt:    null.NewTime(usr.UpdatedAt.UTC(), !usr.UpdatedAt.IsZero()),
		LastLogin:    null.NewTime(usr.LastLogin.UTC(), !usr.LastLogin.IsZero()),
	}
}

func unpackUser(row userRow) user.User {
	return user.User{
		ID:           row.ID,
		FirstName:    row.FirstName.String,
		LastName:     row.LastName.String,
		Username:     row.Username,
		Email:        row.Email,
		Role:         row.Role,
		IsActive:     row.IsActive,
		PasswordHash: row.PasswordHash.Bytes,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
		LastLogin:    row.LastLogin.Time,
	}
}

func unpackUsers(rows []userRow) []user.User {
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, unpackUser(row))
	}
	return users
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	exclIDs := make([]int, 0, len(excludedUsers))
	for _, usr := range excludedUsers {
		exclIDs = append(exclIDs, usr.ID)
	}

	taken, err := repo.exists(ctx, sq.Eq{"username": username}, exclIDs)
	if err != nil {
		return errors.Wrap(err, "checking username uniqueness")
	}
	if taken {
		return user.ErrUsernameExists
	}

	taken, err = repo.exists(ctx, sq.Eq{"email": email}, exclIDs)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if taken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) exists(ctx context.Context, pred sq.Eq, exclIDs []int) (bool, error) {
	qb := psql.Select("COUNT(*)").From("users").Where(pred)
	if len(exclIDs) > 0 {
		qb = qb.Where(sq.NotEq{"id": exclIDs})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return false, err
	}
	var count int
	if err = sqlx.GetContext(ctx, repo.db, &count, query, args...); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	row := packUser(usr)
	query, args, err := psql.Insert("users").
		Columns("first_name", "last_name", "username", "email", "role", "is_active", "password_hash", "created_at", "updated_at", "last_login").
		Values(row.FirstName, row.LastName, row.Username, row.Email, row.Role, row.IsActive, row.PasswordHash, row.CreatedAt, row.UpdatedAt, row.LastLogin).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &usr.ID, query, args...); err != nil {
		switch {
		case isUniqueViolation(err, "users_username_key"):
			return user.User{}, user.ErrUsernameExists
		case isUniqueViolation(err, "users_email_key"):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id int, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"id": id}, "finding user by ID", exec)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"username": username}, "finding user by username", exec)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, sq.Eq{"email": email}, "finding user by email", exec)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string, exec ...core.DBExecutor) (user.User, error) {
	return repo.getUser(ctx, sq.Or{sq.Eq{"username": username}, sq.Eq{"email": username}}, "finding user", exec)
}

func (repo userRepository) getUser(ctx context.Context, pred sq.Sqlizer, msg string, exec []core.DBExecutor) (user.User, error) {
	query, args, err := psql.Select(userColumns...).From("users").Where(pred).ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var row userRow
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &row, query, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, msg)
	}
	return unpackUser(row), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool, exec ...core.DBExecutor) (user.User, error) {
	row := packUser(usr)
	qb := psql.Update("users").
		Set("first_name", row.FirstName).
		Set("last_name", row.LastName).
		Set("username", row.Username).
		Set("email", row.Email).
		Set("updated_at", row.UpdatedAt).
		Where(sq.Eq{"id": usr.ID}).
		Suffix("RETURNING " + strings.Join(userColumns, ", "))
	if usr.Role != "" {
		qb = qb.Set("role", row.Role)
	}
	if usr.PasswordHash != nil {
		qb = qb.Set("password_hash", row.PasswordHash)
	}
	if isActive != nil {
		qb = qb.Set("is_active", *isActive)
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return user.User{}, errors.Wrap(err, "building query")
	}
	var updated userRow
	if err = sqlx.GetContext(ctx, getExec(repo.db, exec), &updated, query, args...); err != nil {
		switch {
		case isUniqueViolation(err, "users_username_key"):
			return user.User{}, user.ErrUsernameExists
		case isUniqueViolation(err, "users_email_key"):
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "updating user")
	}
	return unpackUser(updated), nil
}

func (repo userRepository) SetUserLastLogin(ctx context.Context, usr user.User, exec ...core.DBExecutor) error {
	row := packUser(usr)
	query, args, err := psql.Update("users").
		Set("last_login", row.LastLogin).
		Where(sq.Eq{"id": usr.ID}).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = getExec(repo.db, exec).ExecContext(ctx, query, args...); err != nil {
		return errors.Wrap(err, "setting user last login")
	}
	return nil
}
