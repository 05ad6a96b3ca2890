package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect registration
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Clark-Hu/library-service/internal/domain"
)

// BorrowingsRepository provides persistence helpers for loans (user_books rows).
type BorrowingsRepository struct {
	pool *pgxpool.Pool
}

// LoanStatus narrows a lookup to active or returned loans.
type LoanStatus int

const (
	LoanAny LoanStatus = iota
	LoanActive
	LoanReturned
)

// BorrowingFilter encapsulates the optional predicates of Find.
type BorrowingFilter struct {
	UserID *int64
	BookID *int64
	Status LoanStatus
	Limit  uint
}

const (
	dialectPostgres = "postgres"
	tableUserBooks  = "user_books"
	tableBooks      = "books"
)

var dialect = goqu.Dialect(dialectPostgres)

// Create opens a new active loan. A second active loan for the same book is
// rejected by the database with ErrDuplicate; unknown user/book ids yield ErrNotFound.
func (r *BorrowingsRepository) Create(ctx context.Context, userID, bookID int64, borrowedAt time.Time) (domain.Borrowing, error) {
	const query = `
        INSERT INTO user_books (user_id, book_id, borrowed_at)
        VALUES ($1,$2,$3)
        RETURNING id, user_id, book_id, score, borrowed_at, returned_at
    `

	var b domain.Borrowing
	err := r.pool.QueryRow(ctx, query, userID, bookID, borrowedAt).Scan(
		&b.ID,
		&b.UserID,
		&b.BookID,
		&b.Score,
		&b.BorrowedAt,
		&b.ReturnedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.Borrowing{}, ErrDuplicate
		}
		if isForeignKeyViolation(err) {
			return domain.Borrowing{}, ErrNotFound
		}
		return domain.Borrowing{}, fmt.Errorf("insert borrowing: %w", err)
	}
	return b, nil
}

// Save persists the return state (score, returned_at) of an existing loan.
func (r *BorrowingsRepository) Save(ctx context.Context, b domain.Borrowing) (domain.Borrowing, error) {
	const query = `
        UPDATE user_books
        SET score = $2,
            returned_at = $3
        WHERE id = $1
        RETURNING id, user_id, book_id, score, borrowed_at, returned_at
    `

	saved := domain.Borrowing{BookName: b.BookName}
	err := r.pool.QueryRow(ctx, query, b.ID, b.Score, b.ReturnedAt).Scan(
		&saved.ID,
		&saved.UserID,
		&saved.BookID,
		&saved.Score,
		&saved.BorrowedAt,
		&saved.ReturnedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Borrowing{}, ErrNotFound
		}
		return domain.Borrowing{}, fmt.Errorf("update borrowing: %w", err)
	}
	return saved, nil
}

// Find returns loans matching the filter in borrow order, each carrying its book name.
func (r *BorrowingsRepository) Find(ctx context.Context, filter BorrowingFilter) ([]domain.Borrowing, error) {
	query, args, err := buildFindQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Borrowing, 0)
	for rows.Next() {
		var b domain.Borrowing
		if err := rows.Scan(
			&b.ID,
			&b.UserID,
			&b.BookID,
			&b.BookName,
			&b.Score,
			&b.BorrowedAt,
			&b.ReturnedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// FindActiveByBook returns the loan currently holding the book, regardless of borrower.
func (r *BorrowingsRepository) FindActiveByBook(ctx context.Context, bookID int64) (domain.Borrowing, error) {
	return r.findOne(ctx, BorrowingFilter{BookID: &bookID, Status: LoanActive})
}

// FindActive returns the active loan of exactly this user/book pair.
func (r *BorrowingsRepository) FindActive(ctx context.Context, userID, bookID int64) (domain.Borrowing, error) {
	return r.findOne(ctx, BorrowingFilter{UserID: &userID, BookID: &bookID, Status: LoanActive})
}

// ListByUser returns every loan of the user, active and returned.
func (r *BorrowingsRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Borrowing, error) {
	return r.Find(ctx, BorrowingFilter{UserID: &userID})
}

// ScoresByBook returns the scores of every returned, scored loan of the book.
func (r *BorrowingsRepository) ScoresByBook(ctx context.Context, bookID int64) ([]int, error) {
	query, args, err := dialect.
		From(tableUserBooks).
		Select("score").
		Where(
			goqu.C("book_id").Eq(bookID),
			goqu.C("returned_at").IsNotNull(),
			goqu.C("score").IsNotNull(),
		).
		Order(goqu.C("id").Asc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build scores query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	scores := make([]int, 0)
	for rows.Next() {
		var score int
		if err := rows.Scan(&score); err != nil {
			return nil, err
		}
		scores = append(scores, score)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return scores, nil
}

func (r *BorrowingsRepository) findOne(ctx context.Context, filter BorrowingFilter) (domain.Borrowing, error) {
	filter.Limit = 1
	results, err := r.Find(ctx, filter)
	if err != nil {
		return domain.Borrowing{}, err
	}
	if len(results) == 0 {
		return domain.Borrowing{}, ErrNotFound
	}
	return results[0], nil
}

func buildFindQuery(filter BorrowingFilter) (string, []interface{}, error) {
	ds := dialect.
		From(goqu.T(tableUserBooks).As("ub")).
		Join(goqu.T(tableBooks).As("b"), goqu.On(goqu.I("b.id").Eq(goqu.I("ub.book_id")))).
		Select(
			goqu.I("ub.id"),
			goqu.I("ub.user_id"),
			goqu.I("ub.book_id"),
			goqu.I("b.name"),
			goqu.I("ub.score"),
			goqu.I("ub.borrowed_at"),
			goqu.I("ub.returned_at"),
		).
		Order(goqu.I("ub.borrowed_at").Asc(), goqu.I("ub.id").Asc()).
		Prepared(true)

	if filter.UserID != nil {
		ds = ds.Where(goqu.I("ub.user_id").Eq(*filter.UserID))
	}
	if filter.BookID != nil {
		ds = ds.Where(goqu.I("ub.book_id").Eq(*filter.BookID))
	}
	switch filter.Status {
	case LoanActive:
		ds = ds.Where(goqu.I("ub.returned_at").IsNull())
	case LoanReturned:
		ds = ds.Where(goqu.I("ub.returned_at").IsNotNull())
	}
	if filter.Limit > 0 {
		ds = ds.Limit(filter.Limit)
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build borrowings query: %w", err)
	}
	return query, args, nil
}
