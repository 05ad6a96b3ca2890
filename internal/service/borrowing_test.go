package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, f *fixture) (alice, bob, book int64) {
	t.Helper()
	ctx := context.Background()
	a, err := f.users.CreateUser(ctx, "Alice")
	require.NoError(t, err)
	b, err := f.users.CreateUser(ctx, "Bob")
	require.NoError(t, err)
	bk, err := f.books.CreateBook(ctx, "Neuromancer")
	require.NoError(t, err)
	return a.ID, b.ID, bk.ID
}

func requireKind(t *testing.T, err error, kind Kind, message string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, KindOf(err))
	assert.EqualError(t, err, message)
}

func TestCreateBorrowingRejectsActiveLoanForAnyUser(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice, bob, book := seed(t, f)

	created, err := f.borrowings.CreateBorrowing(ctx, alice, book)
	require.NoError(t, err)
	assert.True(t, created.Active())
	assert.Nil(t, created.Score)

	_, err = f.borrowings.CreateBorrowing(ctx, bob, book)
	requireKind(t, err, KindConflict, MsgBookAlreadyLent)

	_, err = f.borrowings.CreateBorrowing(ctx, alice, book)
	requireKind(t, err, KindConflict, MsgBookAlreadyLent)
}

func TestCreateBorrowingDuplicateInsertIsConflict(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	f := newFixtureWith(st, racyBorrowings{memBorrowings{st}})
	alice, bob, book := seed(t, f)

	_, err := f.borrowings.CreateBorrowing(ctx, alice, book)
	require.NoError(t, err)

	_, err = f.borrowings.CreateBorrowing(ctx, bob, book)
	requireKind(t, err, KindConflict, MsgBookAlreadyLent)
}

func TestUserMayHoldManyBooks(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice, _, first := seed(t, f)
	second, err := f.books.CreateBook(ctx, "Snow Crash")
	require.NoError(t, err)

	_, err = f.borrowings.CreateBorrowing(ctx, alice, first)
	require.NoError(t, err)
	_, err = f.borrowings.CreateBorrowing(ctx, alice, second.ID)
	require.NoError(t, err)

	active, err := f.borrowings.GetActiveByUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, active, 2)
}

func TestReturnBorrowingRequiresOwnActiveLoan(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice, bob, book := seed(t, f)

	_, err := f.borrowings.ReturnBorrowing(ctx, alice, book, 5)
	requireKind(t, err, KindConflict, MsgNoActiveBorrowing)

	_, err = f.borrowings.CreateBorrowing(ctx, alice, book)
	require.NoError(t, err)

	_, err = f.borrowings.ReturnBorrowing(ctx, bob, book, 5)
	requireKind(t, err, KindConflict, MsgNoActiveBorrowing)

	_, err = f.borrowings.ReturnBorrowing(ctx, alice, book, 5)
	require.NoError(t, err)

	_, err = f.borrowings.ReturnBorrowing(ctx, alice, book, 5)
	requireKind(t, err, KindConflict, MsgNoActiveBorrowing)
}

func TestReturnBorrowingRejectsOutOfRangeScore(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice, _, book := seed(t, f)
	_, err := f.borrowings.CreateBorrowing(ctx, alice, book)
	require.NoError(t, err)

	for _, score := range []int{0, 11, -3} {
		_, err := f.borrowings.ReturnBorrowing(ctx, alice, book, score)
		assert.Equal(t, KindBadRequest, KindOf(err), "score %d", score)
	}

	active, err := f.borrowings.GetActiveByUser(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestReturnBorrowingStampsAndRecomputes(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice, _, book := seed(t, f)

	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	f.borrowings.now = func() time.Time { return fixed }

	_, err := f.borrowings.CreateBorrowing(ctx, alice, book)
	require.NoError(t, err)

	returned, err := f.borrowings.ReturnBorrowing(ctx, alice, book, 9)
	require.NoError(t, err)
	require.NotNil(t, returned.ReturnedAt)
	require.NotNil(t, returned.Score)
	assert.Equal(t, fixed, *returned.ReturnedAt)
	assert.Equal(t, 9, *returned.Score)

	got, err := f.books.GetBook(ctx, book)
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.AverageScore)
}

func TestReturnBorrowingSurfacesAggregatorFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice, _, book := seed(t, f)
	_, err := f.borrowings.CreateBorrowing(ctx, alice, book)
	require.NoError(t, err)

	f.store.failScores = errStoreDown
	_, err = f.borrowings.ReturnBorrowing(ctx, alice, book, 4)
	require.ErrorIs(t, err, errStoreDown)
	assert.Zero(t, KindOf(err))
}

func TestGetAllBooksByUserPartitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	alice, bob, first := seed(t, f)
	second, err := f.books.CreateBook(ctx, "Hyperion")
	require.NoError(t, err)
	third, err := f.books.CreateBook(ctx, "Ubik")
	require.NoError(t, err)

	for _, id := range []int64{first, second.ID, third.ID} {
		_, err := f.borrowings.CreateBorrowing(ctx, alice, id)
		require.NoError(t, err)
	}
	_, err = f.borrowings.ReturnBorrowing(ctx, alice, second.ID, 6)
	require.NoError(t, err)

	books, err := f.borrowings.GetAllBooksByUser(ctx, alice)
	require.NoError(t, err)
	require.Len(t, books.Past, 1)
	require.Len(t, books.Present, 2)
	assert.Equal(t, "Hyperion", books.Past[0].BookName)
	assert.Equal(t, "Neuromancer", books.Present[0].BookName)
	assert.Equal(t, "Ubik", books.Present[1].BookName)

	history, err := f.borrowings.GetHistoryByUser(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, books.Past, history)

	empty, err := f.borrowings.GetAllBooksByUser(ctx, bob)
	require.NoError(t, err)
	assert.NotNil(t, empty.Past)
	assert.NotNil(t, empty.Present)
	assert.Empty(t, empty.Past)
	assert.Empty(t, empty.Present)
}
