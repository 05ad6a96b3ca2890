package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Clark-Hu/library-service/internal/domain"
)

func TestAverageScore(t *testing.T) {
	tests := []struct {
		name   string
		scores []int
		want   float64
	}{
		{name: "empty", scores: nil, want: domain.UnratedScore},
		{name: "single", scores: []int{7}, want: 7},
		{name: "even split", scores: []int{8, 6}, want: 7},
		{name: "repeating thirds", scores: []int{10, 10, 9}, want: 9.67},
		{name: "one third", scores: []int{1, 1, 2}, want: 1.33},
		{name: "half up", scores: []int{8, 8, 8, 8, 9, 8, 8, 8}, want: 8.13},
		{name: "extremes", scores: []int{1, 10}, want: 5.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AverageScore(tt.scores))
		})
	}
}

func TestRatingAggregatorRecompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	book, err := f.books.CreateBook(ctx, "Dune")
	require.NoError(t, err)

	avg, err := NewRatingAggregator(memBorrowings{f.store}, memBooks{f.store}).Recompute(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UnratedScore, avg)

	f.store.failScores = errStoreDown
	_, err = NewRatingAggregator(memBorrowings{f.store}, memBooks{f.store}).Recompute(ctx, book.ID)
	require.ErrorIs(t, err, errStoreDown)
}
