package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Clark-Hu/library-service/internal/domain"
	"github.com/Clark-Hu/library-service/internal/repository"
)

// memStore is an in-memory implementation of every store port.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	users      map[int64]domain.User
	books      map[int64]domain.Book
	borrowings []domain.Borrowing

	failScores error
}

func newMemStore() *memStore {
	return &memStore{
		users: make(map[int64]domain.User),
		books: make(map[int64]domain.Book),
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

type memUsers struct{ *memStore }

type memBooks struct{ *memStore }

type memBorrowings struct{ *memStore }

func (u memUsers) Create(_ context.Context, name string) (domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.users {
		if existing.Name == name {
			return domain.User{}, repository.ErrDuplicate
		}
	}
	now := time.Now()
	user := domain.User{ID: u.id(), Name: name, CreatedAt: now, UpdatedAt: now}
	u.users[user.ID] = user
	return user, nil
}

func (u memUsers) GetByID(_ context.Context, id int64) (domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.users[id]
	if !ok {
		return domain.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (u memUsers) GetByName(_ context.Context, name string) (domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.users {
		if user.Name == name {
			return user, nil
		}
	}
	return domain.User{}, repository.ErrNotFound
}

func (u memUsers) List(_ context.Context) ([]domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]domain.User, 0, len(u.users))
	for _, user := range u.users {
		out = append(out, user)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b memBooks) Create(_ context.Context, name string) (domain.Book, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, existing := range b.books {
		if existing.Name == name {
			return domain.Book{}, repository.ErrDuplicate
		}
	}
	now := time.Now()
	book := domain.Book{ID: b.id(), Name: name, AverageScore: domain.UnratedScore, CreatedAt: now, UpdatedAt: now}
	b.books[book.ID] = book
	return book, nil
}

func (b memBooks) GetByID(_ context.Context, id int64) (domain.Book, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	book, ok := b.books[id]
	if !ok {
		return domain.Book{}, repository.ErrNotFound
	}
	return book, nil
}

func (b memBooks) GetByName(_ context.Context, name string) (domain.Book, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, book := range b.books {
		if book.Name == name {
			return book, nil
		}
	}
	return domain.Book{}, repository.ErrNotFound
}

func (b memBooks) List(_ context.Context) ([]domain.Book, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Book, 0, len(b.books))
	for _, book := range b.books {
		out = append(out, book)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (b memBooks) UpdateAverageScore(_ context.Context, id int64, average float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	book, ok := b.books[id]
	if !ok {
		return repository.ErrNotFound
	}
	book.AverageScore = average
	b.books[id] = book
	return nil
}

func (s memBorrowings) Create(_ context.Context, userID, bookID int64, borrowedAt time.Time) (domain.Borrowing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.borrowings {
		if b.BookID == bookID && b.Active() {
			return domain.Borrowing{}, repository.ErrDuplicate
		}
	}
	b := domain.Borrowing{ID: s.id(), UserID: userID, BookID: bookID, BorrowedAt: borrowedAt}
	if book, ok := s.books[bookID]; ok {
		b.BookName = book.Name
	}
	s.borrowings = append(s.borrowings, b)
	return b, nil
}

func (s memBorrowings) Save(_ context.Context, b domain.Borrowing) (domain.Borrowing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.borrowings {
		if s.borrowings[i].ID == b.ID {
			s.borrowings[i].Score = b.Score
			s.borrowings[i].ReturnedAt = b.ReturnedAt
			return s.borrowings[i], nil
		}
	}
	return domain.Borrowing{}, repository.ErrNotFound
}

func (s memBorrowings) FindActiveByBook(_ context.Context, bookID int64) (domain.Borrowing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.borrowings {
		if b.BookID == bookID && b.Active() {
			return b, nil
		}
	}
	return domain.Borrowing{}, repository.ErrNotFound
}

func (s memBorrowings) FindActive(_ context.Context, userID, bookID int64) (domain.Borrowing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.borrowings {
		if b.UserID == userID && b.BookID == bookID && b.Active() {
			return b, nil
		}
	}
	return domain.Borrowing{}, repository.ErrNotFound
}

func (s memBorrowings) ListByUser(_ context.Context, userID int64) ([]domain.Borrowing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Borrowing, 0)
	for _, b := range s.borrowings {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (s memBorrowings) ScoresByBook(_ context.Context, bookID int64) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failScores != nil {
		return nil, s.failScores
	}
	scores := make([]int, 0)
	for _, b := range s.borrowings {
		if b.BookID == bookID && b.ReturnedAt != nil && b.Score != nil {
			scores = append(scores, *b.Score)
		}
	}
	return scores, nil
}

// racyBorrowings hides active loans from FindActiveByBook so the insert is
// the only thing standing between two borrowers.
type racyBorrowings struct{ memBorrowings }

func (racyBorrowings) FindActiveByBook(context.Context, int64) (domain.Borrowing, error) {
	return domain.Borrowing{}, repository.ErrNotFound
}

var errStoreDown = errors.New("store down")

type fixture struct {
	store      *memStore
	users      *UserService
	books      *BookService
	borrowings *BorrowingService
}

func newFixture() *fixture {
	st := newMemStore()
	return newFixtureWith(st, memBorrowings{st})
}

func newFixtureWith(st *memStore, borrowingStore BorrowingStore) *fixture {
	aggregator := NewRatingAggregator(borrowingStore, memBooks{st})
	borrowings := NewBorrowingService(borrowingStore, aggregator, nil)
	return &fixture{
		store:      st,
		users:      NewUserService(memUsers{st}, memBooks{st}, borrowings),
		books:      NewBookService(memBooks{st}),
		borrowings: borrowings,
	}
}
