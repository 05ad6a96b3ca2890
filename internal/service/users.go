package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Clark-Hu/library-service/internal/domain"
	"github.com/Clark-Hu/library-service/internal/repository"
)

// UserDetail is a user together with their loan partition.
type UserDetail struct {
	User  domain.User
	Books domain.BorrowedBooks
}

// UserService exposes user operations and the user-facing borrow/return flow.
type UserService struct {
	users      UserStore
	books      BookStore
	borrowings *BorrowingService
}

// NewUserService constructs the users facade.
func NewUserService(users UserStore, books BookStore, borrowings *BorrowingService) *UserService {
	return &UserService{users: users, books: books, borrowings: borrowings}
}

// ListUsers returns all users.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns the user and their past/present loans.
func (s *UserService) GetUser(ctx context.Context, id int64) (UserDetail, error) {
	user, err := s.requireUser(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	books, err := s.borrowings.GetAllBooksByUser(ctx, id)
	if err != nil {
		return UserDetail{}, err
	}
	return UserDetail{User: user, Books: books}, nil
}

// CreateUser registers a user under an unused, exact name.
func (s *UserService) CreateUser(ctx context.Context, name string) (domain.User, error) {
	_, err := s.users.GetByName(ctx, name)
	switch {
	case err == nil:
		return domain.User{}, Conflict(MsgUserNameTaken)
	case !errors.Is(err, repository.ErrNotFound):
		return domain.User{}, fmt.Errorf("lookup user by name: %w", err)
	}

	user, err := s.users.Create(ctx, name)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.User{}, Conflict(MsgUserNameTaken)
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// BorrowBook checks that both user and book exist, then lends the book.
func (s *UserService) BorrowBook(ctx context.Context, userID, bookID int64) error {
	if err := s.requireUserAndBook(ctx, userID, bookID); err != nil {
		return err
	}
	_, err := s.borrowings.CreateBorrowing(ctx, userID, bookID)
	return err
}

// ReturnBook checks that both user and book exist, then closes the loan with a score.
func (s *UserService) ReturnBook(ctx context.Context, userID, bookID int64, score int) error {
	if err := s.requireUserAndBook(ctx, userID, bookID); err != nil {
		return err
	}
	_, err := s.borrowings.ReturnBorrowing(ctx, userID, bookID, score)
	return err
}

func (s *UserService) requireUserAndBook(ctx context.Context, userID, bookID int64) error {
	if _, err := s.requireUser(ctx, userID); err != nil {
		return err
	}
	if _, err := s.books.GetByID(ctx, bookID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NotFound(MsgBookNotFound)
		}
		return fmt.Errorf("get book: %w", err)
	}
	return nil
}

func (s *UserService) requireUser(ctx context.Context, id int64) (domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.User{}, NotFound(MsgUserNotFound)
		}
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
