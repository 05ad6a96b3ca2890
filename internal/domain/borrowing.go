package domain

import "time"

// Borrowing is a single loan of a book to a user.
// A nil ReturnedAt means the loan is still active.
type Borrowing struct {
	ID         int64
	UserID     int64
	BookID     int64
	BookName   string
	Score      *int
	BorrowedAt time.Time
	ReturnedAt *time.Time
}

// Active reports whether the book has not been returned yet.
func (b Borrowing) Active() bool {
	return b.ReturnedAt == nil
}

// BorrowedBooks splits a user's loans into returned and still active ones.
type BorrowedBooks struct {
	Past    []Borrowing
	Present []Borrowing
}
