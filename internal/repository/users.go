package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/library-service/internal/domain"
)

// UsersRepository provides persistence helpers for library members.
type UsersRepository struct {
	pool *pgxpool.Pool
}

const userColumns = `id, name, created_at, updated_at`

// Create inserts a new user. A name collision yields ErrDuplicate.
func (r *UsersRepository) Create(ctx context.Context, name string) (domain.User, error) {
	query := fmt.Sprintf(`INSERT INTO users (name) VALUES ($1) RETURNING %s`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ErrDuplicate
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

// GetByID fetches a user by its identifier.
func (r *UsersRepository) GetByID(ctx context.Context, id int64) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// GetByName fetches a user by exact, case-sensitive name.
func (r *UsersRepository) GetByName(ctx context.Context, name string) (domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE name = $1`, userColumns)
	user, err := scanUser(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, ErrNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// List returns every user ordered by id.
func (r *UsersRepository) List(ctx context.Context) ([]domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY id`, userColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var user domain.User
	err := row.Scan(&user.ID, &user.Name, &user.CreatedAt, &user.UpdatedAt)
	return user, err
}
