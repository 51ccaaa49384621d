package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/coreybb/taskboard/models"
	"github.com/lib/pq"
)

// ErrUsernameTaken is returned by CreateUser when the username already exists.
var ErrUsernameTaken = errors.New("username already taken")

// Postgres SQLSTATE for unique_violation.
const pqUniqueViolation = "23505"

type UserRepository struct {
	db *sql.DB // The actual database connection pool
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, role, hashed_password, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username, string(user.Role), user.HashedPassword, user.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return fmt.Errorf("failed to insert user %s: %w", user.Username, ErrUsernameTaken)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByUsername retrieves a user, including the password hash, by username.
func (r *UserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, role, hashed_password, created_at
		FROM users
		WHERE username = $1
	`
	user, err := scanUser(r.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user not found: %w", err)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return user, nil
}

func scanUser(row *sql.Row) (*models.User, error) {
	var user models.User
	var role string
	if err := row.Scan(&user.ID, &user.Username, &role, &user.HashedPassword, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}
