package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clark-Hu/library-service/internal/domain"
	"github.com/Clark-Hu/library-service/internal/repository"
)

// BookService exposes book catalogue operations.
type BookService struct {
	books BookStore
}

// NewBookService constructs the books facade.
func NewBookService(books BookStore) *BookService {
	return &BookService{books: books}
}

// ListBooks returns all books.
func (s *BookService) ListBooks(ctx context.Context) ([]domain.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// GetBook returns a single book including its average score.
func (s *BookService) GetBook(ctx context.Context, id int64) (domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.Book{}, NotFound(MsgBookNotFound)
		}
		return domain.Book{}, fmt.Errorf("get book: %w", err)
	}
	return book, nil
}

// CreateBook adds an unrated book under an unused, exact name.
func (s *BookService) CreateBook(ctx context.Context, name string) (domain.Book, error) {
	_, err := s.books.GetByName(ctx, name)
	switch {
	case err == nil:
		return domain.Book{}, Conflict(MsgBookNameTaken)
	case !errors.Is(err, repository.ErrNotFound):
		return domain.Book{}, fmt.Errorf("lookup book by name: %w", err)
	}

	book, err := s.books.Create(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Book{}, Conflict(MsgBookNameTaken)
		}
		return domain.Book{}, fmt.Errorf("create book: %w", err)
	}
	return book, nil
}
