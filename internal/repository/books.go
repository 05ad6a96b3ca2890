package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/library-service/internal/domain"
)

// BooksRepository provides persistence helpers for book entities.
type BooksRepository struct {
	pool *pgxpool.Pool
}

const bookColumns = `
    id,
    name,
    average_score,
    created_at,
    updated_at
`

// Create inserts a new unrated book. A name collision yields ErrDuplicate.
func (r *BooksRepository) Create(ctx context.Context, name string) (domain.Book, error) {
	query := fmt.Sprintf(`
        INSERT INTO books (name)
        VALUES ($1)
        RETURNING %s
    `, bookColumns)

	book, err := scanBook(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Book{}, ErrDuplicate
		}
		return domain.Book{}, fmt.Errorf("insert book: %w", err)
	}
	return book, nil
}

// GetByID fetches a book by its identifier.
func (r *BooksRepository) GetByID(ctx context.Context, id int64) (domain.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE id = $1`, bookColumns)
	book, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, ErrNotFound
		}
		return domain.Book{}, err
	}
	return book, nil
}

// GetByName fetches a book by exact, case-sensitive name.
func (r *BooksRepository) GetByName(ctx context.Context, name string) (domain.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books WHERE name = $1`, bookColumns)
	book, err := scanBook(r.pool.QueryRow(ctx, query, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, ErrNotFound
		}
		return domain.Book{}, err
	}
	return book, nil
}

// List returns every book ordered by id.
func (r *BooksRepository) List(ctx context.Context) ([]domain.Book, error) {
	query := fmt.Sprintf(`SELECT %s FROM books ORDER BY id`, bookColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make([]domain.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateAverageScore stores a freshly computed average for the book.
func (r *BooksRepository) UpdateAverageScore(ctx context.Context, id int64, average float64) error {
	const query = `
        UPDATE books
        SET average_score = $2,
            updated_at = now()
        WHERE id = $1
    `
	tag, err := r.pool.Exec(ctx, query, id, average)
	if err != nil {
		return fmt.Errorf("update average score: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBook(row pgx.Row) (domain.Book, error) {
	var book domain.Book
	err := row.Scan(
		&book.ID,
		&book.Name,
		&book.AverageScore,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	return book, err
}
