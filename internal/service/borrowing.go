package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Clark-Hu/library-service/internal/domain"
	"github.com/Clark-Hu/library-service/internal/repository"
)

const (
	MinScore = 1
	MaxScore = 10
)

// BorrowingService tracks loans and enforces one active borrower per book.
//
// The "is the book free" check and the insert are separate round-trips. Two
// racing borrows of the same book are settled by the partial unique index on
// user_books, and the loser gets the same Conflict as the sequential case.
// The average recompute after a return is last-writer-wins.
type BorrowingService struct {
	store      BorrowingStore
	aggregator *RatingAggregator
	logger     *slog.Logger
	now        func() time.Time
}

// NewBorrowingService constructs the tracker.
func NewBorrowingService(store BorrowingStore, aggregator *RatingAggregator, logger *slog.Logger) *BorrowingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BorrowingService{
		store:      store,
		aggregator: aggregator,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CreateBorrowing lends the book to the user unless someone already holds it.
// Existence of the user and the book is the caller's concern.
func (s *BorrowingService) CreateBorrowing(ctx context.Context, userID, bookID int64) (domain.Borrowing, error) {
	_, err := s.store.FindActiveByBook(ctx, bookID)
	switch {
	case err == nil:
		return domain.Borrowing{}, Conflict(MsgBookAlreadyLent)
	case !errors.Is(err, repository.ErrNotFound):
		return domain.Borrowing{}, fmt.Errorf("find active borrowing: %w", err)
	}

	borrowing, err := s.store.Create(ctx, userID, bookID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Borrowing{}, Conflict(MsgBookAlreadyLent)
		}
		return domain.Borrowing{}, fmt.Errorf("create borrowing: %w", err)
	}

	s.logger.InfoContext(ctx, "book borrowed",
		"borrowing_id", borrowing.ID,
		"user_id", userID,
		"book_id", bookID,
	)
	return borrowing, nil
}

// ReturnBorrowing closes the user's active loan of the book with a score and
// refreshes the book's average.
func (s *BorrowingService) ReturnBorrowing(ctx context.Context, userID, bookID int64, score int) (domain.Borrowing, error) {
	if score < MinScore || score > MaxScore {
		return domain.Borrowing{}, BadRequest("score must be between %d and %d", MinScore, MaxScore)
	}

	borrowing, err := s.store.FindActive(ctx, userID, bookID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Borrowing{}, Conflict(MsgNoActiveBorrowing)
		}
		return domain.Borrowing{}, fmt.Errorf("find active borrowing: %w", err)
	}

	returnedAt := s.now()
	borrowing.ReturnedAt = &returnedAt
	borrowing.Score = &score

	saved, err := s.store.Save(ctx, borrowing)
	if err != nil {
		return domain.Borrowing{}, fmt.Errorf("save borrowing: %w", err)
	}

	average, err := s.aggregator.Recompute(ctx, bookID)
	if err != nil {
		return domain.Borrowing{}, err
	}

	s.logger.InfoContext(ctx, "book returned",
		"borrowing_id", saved.ID,
		"user_id", userID,
		"book_id", bookID,
		"score", score,
		"average_score", average,
	)
	return saved, nil
}

// GetAllBooksByUser splits the user's loans into returned (Past) and active
// (Present), keeping storage order inside each group.
func (s *BorrowingService) GetAllBooksByUser(ctx context.Context, userID int64) (domain.BorrowedBooks, error) {
	borrowings, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return domain.BorrowedBooks{}, fmt.Errorf("list borrowings: %w", err)
	}

	result := domain.BorrowedBooks{
		Past:    make([]domain.Borrowing, 0),
		Present: make([]domain.Borrowing, 0),
	}
	for _, b := range borrowings {
		if b.Active() {
			result.Present = append(result.Present, b)
		} else {
			result.Past = append(result.Past, b)
		}
	}
	return result, nil
}

// GetActiveByUser returns the loans the user still holds.
func (s *BorrowingService) GetActiveByUser(ctx context.Context, userID int64) ([]domain.Borrowing, error) {
	books, err := s.GetAllBooksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return books.Present, nil
}

// GetHistoryByUser returns the loans the user has already returned.
func (s *BorrowingService) GetHistoryByUser(ctx context.Context, userID int64) ([]domain.Borrowing, error) {
	books, err := s.GetAllBooksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return books.Past, nil
}
