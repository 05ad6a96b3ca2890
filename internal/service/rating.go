package service

import (
	"context"
	"fmt"
	"math"

	"github.com/Clark-Hu/library-service/internal/domain"
)

// AverageScore returns the mean of scores rounded half-up to two decimals,
// or domain.UnratedScore when there is nothing to average.
func AverageScore(scores []int) float64 {
	if len(scores) == 0 {
		return domain.UnratedScore
	}
	sum := 0
	for _, s := range scores {
		sum += s
	}
	mean := float64(sum) / float64(len(scores))
	return roundToTwoDecimals(mean)
}

func roundToTwoDecimals(value float64) float64 {
	return math.Round(value*100) / 100
}

// RatingAggregator recomputes a book's average from its full loan history.
type RatingAggregator struct {
	borrowings BorrowingStore
	books      BookStore
}

// NewRatingAggregator wires the aggregator to its stores.
func NewRatingAggregator(borrowings BorrowingStore, books BookStore) *RatingAggregator {
	return &RatingAggregator{borrowings: borrowings, books: books}
}

// Recompute rescans every scored return of the book and stores the new average.
func (a *RatingAggregator) Recompute(ctx context.Context, bookID int64) (float64, error) {
	scores, err := a.borrowings.ScoresByBook(ctx, bookID)
	if err != nil {
		return 0, fmt.Errorf("load scores for book %d: %w", bookID, err)
	}
	average := AverageScore(scores)
	if err := a.books.UpdateAverageScore(ctx, bookID, average); err != nil {
		return 0, fmt.Errorf("store average for book %d: %w", bookID, err)
	}
	return average, nil
}
