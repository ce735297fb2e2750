package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/m-mizutani/goerr/v2"

	"github.com/spec-kit/incident-service/internal/domain"
)

// UserFilter narrows the user directory.
type UserFilter struct {
	Role *domain.Role
}

// UserRepository defines persistence access for users.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	UpdatePushToken(ctx context.Context, id int64, token string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, role, push_token, created_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, role)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		string(user.Role),
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return goerr.Wrap(ErrDuplicate, "email already registered", goerr.V("email", user.Email))
		}
		return goerr.Wrap(err, "insert user", goerr.V("email", user.Email))
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, wrapNoRows(err, "get user", goerr.V("user_id", id))
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email=$1`
	user, err := scanUser(r.pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, wrapNoRows(err, "get user by email", goerr.V("email", email))
	}
	return user, nil
}

func (r *userRepository) List(ctx context.Context, filter UserFilter) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	args := []any{}
	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		query += fmt.Sprintf(" WHERE role=$%d", len(args))
	}
	query += " ORDER BY name ASC, id ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, goerr.Wrap(err, "list users")
	}
	defer rows.Close()

	result := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "scan user")
		}
		result = append(result, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "iterate users")
	}
	return result, nil
}

func (r *userRepository) UpdatePushToken(ctx context.Context, id int64, token string) error {
	const query = `UPDATE users SET push_token=$1 WHERE id=$2`

	cmd, err := r.pool.Exec(ctx, query, token, id)
	if err != nil {
		return goerr.Wrap(err, "update push token", goerr.V("user_id", id))
	}
	if cmd.RowsAffected() == 0 {
		return goerr.Wrap(ErrNotFound, "user not found", goerr.V("user_id", id))
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		user domain.User
		role string
	)
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&role,
		&user.PushToken,
		&user.CreatedAt,
	); err != nil {
		return nil, err
	}
	user.Role = domain.Role(role)
	return &user, nil
}

func wrapNoRows(err error, msg string, opts ...goerr.Option) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return goerr.Wrap(ErrNotFound, msg, opts...)
	}
	return goerr.Wrap(err, msg, opts...)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
