package service

import (
	"context"
	"time"

	"github.com/Clark-Hu/library-service/internal/domain"
)

// UserStore is the persistence port for users. Lookups that miss must return
// an error matching repository.ErrNotFound; name collisions repository.ErrDuplicate.
type UserStore interface {
	Create(ctx context.Context, name string) (domain.User, error)
	GetByID(ctx context.Context, id int64) (domain.User, error)
	GetByName(ctx context.Context, name string) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}

// BookStore is the persistence port for books.
type BookStore interface {
	Create(ctx context.Context, name string) (domain.Book, error)
	GetByID(ctx context.Context, id int64) (domain.Book, error)
	GetByName(ctx context.Context, name string) (domain.Book, error)
	List(ctx context.Context) ([]domain.Book, error)
	UpdateAverageScore(ctx context.Context, id int64, average float64) error
}

// BorrowingStore is the persistence port for loans.
type BorrowingStore interface {
	Create(ctx context.Context, userID, bookID int64, borrowedAt time.Time) (domain.Borrowing, error)
	Save(ctx context.Context, b domain.Borrowing) (domain.Borrowing, error)
	FindActiveByBook(ctx context.Context, bookID int64) (domain.Borrowing, error)
	FindActive(ctx context.Context, userID, bookID int64) (domain.Borrowing, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Borrowing, error)
	ScoresByBook(ctx context.Context, bookID int64) ([]int, error)
}
