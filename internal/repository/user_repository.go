package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

const userColumns = "id, username, email, password_hash, role, registration_date, created_at, updated_at"

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// NewUser carries the registration input.  Password is the plain text value;
// it is hashed before it reaches the database.
type NewUser struct {
	Username string
	Email    string
	Password string
	Role     model.Role
}

// Create hashes the password, inserts the user and returns the stored row.
func (r *UserRepo) Create(ctx context.Context, in NewUser, cost int) (*model.User, error) {
	hash, err := utils.HashPassword(in.Password, cost)
	if err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, registration_date) VALUES (?,?,?,?,CURRENT_TIMESTAMP)",
		strings.TrimSpace(in.Username), normalizeEmail(in.Email), hash, in.Role.String())
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", normalizeEmail(email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...any) (*model.User, error) {
	var (
		u    model.User
		role string
	)
	err := r.DB.QueryRowContext(ctx, query, args...).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.RegistrationDate, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if u.Role, err = model.ParseRole(role); err != nil {
		return nil, fmt.Errorf("user %d: %w", u.ID, err)
	}
	return &u, nil
}

// UsernameTaken reports whether another user (id != exceptID) already uses
// the username.  Pass exceptID 0 during registration.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string, exceptID uint64) (bool, error) {
	n, err := count(ctx, r.DB, "SELECT COUNT(*) FROM users WHERE username=? AND id<>?", strings.TrimSpace(username), exceptID)
	return n > 0, err
}

// EmailTaken reports whether the normalized email is registered.
func (r *UserRepo) EmailTaken(ctx context.Context, email string) (bool, error) {
	n, err := count(ctx, r.DB, "SELECT COUNT(*) FROM users WHERE email=?", normalizeEmail(email))
	return n > 0, err
}

// UpdateUsername changes the profile name.  Email is immutable.
func (r *UserRepo) UpdateUsername(ctx context.Context, id uint64, username string) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET username=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", strings.TrimSpace(username), id)
	if err != nil {
		if isDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return requireAffected(res)
}

// UpdatePassword stores a new bcrypt hash for the user.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, plain string, cost int) error {
	hash, err := utils.HashPassword(plain, cost)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_hash=?, updated_at=CURRENT_TIMESTAMP WHERE id=?", hash, id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// requireAffected maps "no row matched" to ErrNotFound.  The DSN enables
// clientFoundRows, so an update that leaves values unchanged still counts.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
